package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/brankas/brankas/internal/domain"
)

type ReceiptRow struct {
	ReceiptID           string              `bigquery:"receipt_id"`            // REQUIRED
	LinkedTransactionID bigquery.NullString `bigquery:"linked_transaction_id"` // NULLABLE
	GCSURI              string              `bigquery:"gcs_uri"`               // REQUIRED
	OriginalFilename    string              `bigquery:"original_filename"`
	FileMimeType        string              `bigquery:"file_mime_type"`
	Status              string              `bigquery:"status"` // uploaded | scanned | failed

	MerchantName bigquery.NullString `bigquery:"merchant_name"` // NULLABLE
	TotalAmount  *big.Rat            `bigquery:"total_amount"`  // NULLABLE NUMERIC
	Currency     bigquery.NullString `bigquery:"currency"`      // NULLABLE
	PurchaseDate bigquery.NullDate   `bigquery:"purchase_date"` // NULLABLE
	CategoryName bigquery.NullString `bigquery:"category_name"` // NULLABLE
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP())
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func receiptToRow(r domain.Receipt) ReceiptRow {
	return ReceiptRow{
		ReceiptID:           r.ID,
		LinkedTransactionID: nullString(r.TransactionID),
		GCSURI:              r.GCSURI,
		OriginalFilename:    r.FileName,
		FileMimeType:        r.MIMEType,
		Status:              string(r.Status),
		MerchantName:        nullString(r.Merchant),
		TotalAmount:         toNullRat(r.Total),
		Currency:            nullString(r.Currency),
		PurchaseDate:        nullDate(r.PurchaseDate),
		CategoryName:        nullString(r.Category),
		ErrorMessage:        nullString(r.Error),
		CreatedTS:           r.CreatedAt,
		UpdatedTS:           nullTimestamp(r.UpdatedAt),
	}
}

func (r ReceiptRow) toDomain() domain.Receipt {
	return domain.Receipt{
		ID:            r.ReceiptID,
		TransactionID: r.LinkedTransactionID.StringVal,
		GCSURI:        r.GCSURI,
		FileName:      r.OriginalFilename,
		MIMEType:      r.FileMimeType,
		Status:        domain.ReceiptStatus(r.Status),
		Merchant:      r.MerchantName.StringVal,
		Total:         fromNullRat(r.TotalAmount),
		Currency:      r.Currency.StringVal,
		PurchaseDate:  fromNullDate(r.PurchaseDate),
		Category:      r.CategoryName.StringVal,
		Error:         r.ErrorMessage.StringVal,
		CreatedAt:     r.CreatedTS,
		UpdatedAt:     fromNullTimestamp(r.UpdatedTS),
	}
}

const receiptColumns = `receipt_id, linked_transaction_id, gcs_uri, original_filename, file_mime_type, status,
	merchant_name, total_amount, currency, purchase_date, category_name, error_message, created_ts, updated_ts`

func (r *Repository) InsertReceipt(ctx context.Context, rc domain.Receipt) error {
	row := receiptToRow(rc)
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@receipt_id, @linked_transaction_id, @gcs_uri, @original_filename, @file_mime_type, @status,
		        @merchant_name, @total_amount, @currency, @purchase_date, @category_name, @error_message,
		        @created_ts, NULL)
	`, r.table(receiptsTable), receiptColumns)

	_, err := r.exec(ctx, "InsertReceipt", query, append(receiptParams(row),
		bigquery.QueryParameter{Name: "created_ts", Value: row.CreatedTS}))
	return err
}

func (r *Repository) GetReceipt(ctx context.Context, id string) (domain.Receipt, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE receipt_id = @receipt_id LIMIT 1`, receiptColumns, r.table(receiptsTable))
	row, err := readOne[ReceiptRow](ctx, r.client, "GetReceipt", query, []bigquery.QueryParameter{
		{Name: "receipt_id", Value: id},
	})
	if err != nil {
		return domain.Receipt{}, err
	}
	return row.toDomain(), nil
}

func (r *Repository) UpdateReceipt(ctx context.Context, rc domain.Receipt) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET linked_transaction_id = @linked_transaction_id,
		    gcs_uri = @gcs_uri,
		    original_filename = @original_filename,
		    file_mime_type = @file_mime_type,
		    status = @status,
		    merchant_name = @merchant_name,
		    total_amount = @total_amount,
		    currency = @currency,
		    purchase_date = @purchase_date,
		    category_name = @category_name,
		    error_message = @error_message,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE receipt_id = @receipt_id
	`, r.table(receiptsTable))
	return r.execOne(ctx, "UpdateReceipt", query, receiptParams(receiptToRow(rc)))
}

// ListReceipts returns receipts linked to transactionID, or all receipts
// when it is empty.
func (r *Repository) ListReceipts(ctx context.Context, transactionID string) ([]domain.Receipt, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE (@transaction_id = '' OR linked_transaction_id = @transaction_id)
		ORDER BY created_ts
	`, receiptColumns, r.table(receiptsTable))

	rows, err := readAll[ReceiptRow](ctx, r.client, "ListReceipts", query, []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
	})
	if err != nil {
		return nil, err
	}
	receipts := make([]domain.Receipt, 0, len(rows))
	for _, row := range rows {
		receipts = append(receipts, row.toDomain())
	}
	return receipts, nil
}

func receiptParams(row ReceiptRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "receipt_id", Value: row.ReceiptID},
		{Name: "linked_transaction_id", Value: row.LinkedTransactionID},
		{Name: "gcs_uri", Value: row.GCSURI},
		{Name: "original_filename", Value: row.OriginalFilename},
		{Name: "file_mime_type", Value: row.FileMimeType},
		{Name: "status", Value: row.Status},
		{Name: "merchant_name", Value: row.MerchantName},
		{Name: "total_amount", Value: nullableNumeric(row.TotalAmount)},
		{Name: "currency", Value: row.Currency},
		{Name: "purchase_date", Value: row.PurchaseDate},
		{Name: "category_name", Value: row.CategoryName},
		{Name: "error_message", Value: row.ErrorMessage},
	}
}
