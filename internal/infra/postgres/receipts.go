package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brankas/brankas/internal/domain"
)

const receiptColumns = `id, transaction_id, gcs_uri, file_name, mime_type, status, merchant, total,
	currency, purchase_date, category, error_message, created_at, updated_at`

func scanReceipt(row pgx.Row) (domain.Receipt, error) {
	var (
		rc                        domain.Receipt
		status                    string
		txnID, merchant, currency pgtype.Text
		category, errMsg          pgtype.Text
		total                     pgtype.Numeric
		purchased                 pgtype.Date
		updated                   pgtype.Timestamptz
	)
	err := row.Scan(&rc.ID, &txnID, &rc.GCSURI, &rc.FileName, &rc.MIMEType, &status, &merchant, &total,
		&currency, &purchased, &category, &errMsg, &rc.CreatedAt, &updated)
	if err != nil {
		return domain.Receipt{}, err
	}
	rc.TransactionID = txnID.String
	rc.Status = domain.ReceiptStatus(status)
	rc.Merchant = merchant.String
	rc.Total = fromNullNumeric(total)
	rc.Currency = currency.String
	rc.PurchaseDate = fromNullDate(purchased)
	rc.Category = category.String
	rc.Error = errMsg.String
	rc.UpdatedAt = fromTimestamp(updated)
	return rc, nil
}

func (r *Repository) InsertReceipt(ctx context.Context, rc domain.Receipt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rc.ID, toText(rc.TransactionID), rc.GCSURI, rc.FileName, rc.MIMEType, string(rc.Status),
		toText(rc.Merchant), toNullNumeric(rc.Total), toText(rc.Currency), toNullDate(rc.PurchaseDate),
		toText(rc.Category), toText(rc.Error), createdAt(rc.CreatedAt), toTimestamp(rc.UpdatedAt))
	return mapError("InsertReceipt", err)
}

func (r *Repository) GetReceipt(ctx context.Context, id string) (domain.Receipt, error) {
	rc, err := scanReceipt(r.pool.QueryRow(ctx, `SELECT `+receiptColumns+` FROM receipts WHERE id = $1`, id))
	if err != nil {
		return domain.Receipt{}, mapError("GetReceipt", err)
	}
	return rc, nil
}

func (r *Repository) UpdateReceipt(ctx context.Context, rc domain.Receipt) error {
	return execOne(ctx, r.pool, "UpdateReceipt", `
		UPDATE receipts
		SET transaction_id = $2, gcs_uri = $3, file_name = $4, mime_type = $5, status = $6, merchant = $7,
		    total = $8, currency = $9, purchase_date = $10, category = $11, error_message = $12,
		    updated_at = NOW()
		WHERE id = $1`,
		rc.ID, toText(rc.TransactionID), rc.GCSURI, rc.FileName, rc.MIMEType, string(rc.Status),
		toText(rc.Merchant), toNullNumeric(rc.Total), toText(rc.Currency), toNullDate(rc.PurchaseDate),
		toText(rc.Category), toText(rc.Error))
}

// ListReceipts returns receipts linked to transactionID, or all receipts
// when it is empty.
func (r *Repository) ListReceipts(ctx context.Context, transactionID string) ([]domain.Receipt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+receiptColumns+` FROM receipts
		WHERE ($1 = '' OR transaction_id = $1)
		ORDER BY created_at`, transactionID)
	if err != nil {
		return nil, mapError("ListReceipts", err)
	}
	return collect(rows, "ListReceipts", scanReceipt)
}
