package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ReceiptStatus tracks a receipt through scanning.
type ReceiptStatus string

const (
	ReceiptUploaded ReceiptStatus = "uploaded"
	ReceiptScanned  ReceiptStatus = "scanned"
	ReceiptFailed   ReceiptStatus = "failed"
)

// Receipt is an uploaded receipt image, optionally linked to a transaction,
// plus whatever could be read from it.
type Receipt struct {
	ID            string           `json:"id"`
	TransactionID string           `json:"transactionId,omitempty"`
	GCSURI        string           `json:"gcsUri"`
	FileName      string           `json:"fileName"`
	MIMEType      string           `json:"mimeType"`
	Status        ReceiptStatus    `json:"status"`
	Merchant      string           `json:"merchant,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	PurchaseDate  *civil.Date      `json:"purchaseDate,omitempty"`
	Category      string           `json:"category,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"createdAt,omitzero"`
	UpdatedAt     time.Time        `json:"updatedAt,omitzero"`
}
