package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a money movement.
type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
	TypeDebt     TransactionType = "debt"
)

// TransferCategory is the category used for inter-account transfers.
const TransferCategory = "Mutasi"

// ParseTransactionType validates a transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeIncome, TypeExpense, TypeTransfer, TypeDebt:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalid, s)
	}
}

// Leg tells the outgoing and incoming records of a transfer apart.
type Leg string

const (
	LegOut Leg = "out"
	LegIn  Leg = "in"
)

// Transaction is a single signed movement on one account: negative for
// outflow, positive for inflow.
type Transaction struct {
	ID              string          `json:"id"`
	Date            civil.Date      `json:"date"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory,omitempty"`
	AccountID       string          `json:"accountId"`
	ToAccountID     string          `json:"toAccountId,omitempty"`
	ReceiptURL      string          `json:"receiptUrl,omitempty"`
	Struck          bool            `json:"struck,omitempty"`
	TransferGroupID string          `json:"transferGroupId,omitempty"`
	Leg             Leg             `json:"leg,omitempty"`
	ClientRef       string          `json:"clientRef,omitempty"`
	CreatedAt       time.Time       `json:"createdAt,omitzero"`
}

// IsTransferLeg reports whether the record is one half of a transfer pair.
func (t Transaction) IsTransferLeg() bool {
	return t.Type == TypeTransfer && t.TransferGroupID != ""
}

// TransactionInput is the user-facing form for a simple income, expense or
// debt record. Amount is entered as a positive magnitude.
type TransactionInput struct {
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Subcategory string          `json:"subcategory,omitempty"`
	AccountID   string          `json:"accountId"`
	ReceiptURL  string          `json:"receiptUrl,omitempty"`
}

// ToTransaction validates the input and applies the sign for its type.
// Transfers are rejected: they are created only in pairs by the ledger.
func (in TransactionInput) ToTransaction(today civil.Date) (Transaction, error) {
	typ, err := ParseTransactionType(in.Type)
	if err != nil {
		return Transaction{}, err
	}
	if typ == TypeTransfer || strings.EqualFold(in.Category, TransferCategory) {
		return Transaction{}, fmt.Errorf("%w: transfers must be submitted as a transfer request", ErrInvalid)
	}
	if strings.TrimSpace(in.AccountID) == "" {
		return Transaction{}, fmt.Errorf("%w: accountId is required", ErrInvalid)
	}
	if !in.Amount.IsPositive() {
		return Transaction{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalid)
	}

	date := today
	if in.Date != "" {
		date, err = civil.ParseDate(in.Date)
		if err != nil {
			return Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD: %v", ErrInvalid, err)
		}
	}

	amount := in.Amount
	if typ == TypeExpense {
		amount = amount.Neg()
	}

	return Transaction{
		Date:        date,
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Type:        typ,
		Category:    strings.TrimSpace(in.Category),
		Subcategory: strings.TrimSpace(in.Subcategory),
		AccountID:   in.AccountID,
		ReceiptURL:  in.ReceiptURL,
	}, nil
}
