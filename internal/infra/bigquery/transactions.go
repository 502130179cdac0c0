package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/brankas/brankas/internal/domain"
)

type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	AccountID     string `bigquery:"account_id"`     // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Description     string     `bigquery:"description"`      // REQUIRED STRING

	Amount *big.Rat `bigquery:"amount"` // REQUIRED NUMERIC, signed

	TransactionType string              `bigquery:"transaction_type"` // REQUIRED
	CategoryName    string              `bigquery:"category_name"`    // REQUIRED
	SubcategoryName bigquery.NullString `bigquery:"subcategory_name"` // NULLABLE

	ToAccountID bigquery.NullString `bigquery:"to_account_id"` // NULLABLE, outgoing transfer leg only
	ReceiptURL  bigquery.NullString `bigquery:"receipt_url"`   // NULLABLE
	IsStruck    bool                `bigquery:"is_struck"`

	TransferGroupID bigquery.NullString `bigquery:"transfer_group_id"` // NULLABLE, shared by both legs
	TransferLeg     bigquery.NullString `bigquery:"transfer_leg"`      // NULLABLE: out | in
	ClientRef       bigquery.NullString `bigquery:"client_ref"`        // NULLABLE

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP)
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func transactionToRow(t domain.Transaction) TransactionRow {
	return TransactionRow{
		TransactionID:   t.ID,
		AccountID:       t.AccountID,
		TransactionDate: t.Date,
		Description:     t.Description,
		Amount:          toRat(t.Amount),
		TransactionType: string(t.Type),
		CategoryName:    t.Category,
		SubcategoryName: nullString(t.Subcategory),
		ToAccountID:     nullString(t.ToAccountID),
		ReceiptURL:      nullString(t.ReceiptURL),
		IsStruck:        t.Struck,
		TransferGroupID: nullString(t.TransferGroupID),
		TransferLeg:     nullString(string(t.Leg)),
		ClientRef:       nullString(t.ClientRef),
		CreatedTS:       t.CreatedAt,
	}
}

func (r TransactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:              r.TransactionID,
		Date:            r.TransactionDate,
		Description:     r.Description,
		Amount:          fromRat(r.Amount),
		Type:            domain.TransactionType(r.TransactionType),
		Category:        r.CategoryName,
		Subcategory:     r.SubcategoryName.StringVal,
		AccountID:       r.AccountID,
		ToAccountID:     r.ToAccountID.StringVal,
		ReceiptURL:      r.ReceiptURL.StringVal,
		Struck:          r.IsStruck,
		TransferGroupID: r.TransferGroupID.StringVal,
		Leg:             domain.Leg(r.TransferLeg.StringVal),
		ClientRef:       r.ClientRef.StringVal,
		CreatedAt:       r.CreatedTS,
	}
}
