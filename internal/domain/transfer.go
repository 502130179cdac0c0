package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when an amount cannot be read as a finite number.
var ErrInvalidAmount = fmt.Errorf("%w: amount", ErrInvalid)

// TransferRequest is a validated request to move money between two accounts.
type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Description   string
	Subcategory   string
	// Date defaults to the engine clock's current day when nil.
	Date *civil.Date
	// ClientRef lets a client resubmit safely; a second transfer with the
	// same reference is rejected.
	ClientRef string
}

// TransferInput is the raw transfer form as submitted by a client. Amount
// may be a JSON number or a numeric string.
type TransferInput struct {
	FromAccountID string          `json:"fromAccountId"`
	ToAccountID   string          `json:"toAccountId"`
	Amount        json.RawMessage `json:"amount"`
	Description   string          `json:"description"`
	Subcategory   string          `json:"subcategory,omitempty"`
	Date          string          `json:"date,omitempty"`
	ClientRef     string          `json:"clientRef,omitempty"`
}

// ToRequest builds the validated request. Only amount and date are checked
// here; account rules belong to the ledger.
func (in TransferInput) ToRequest() (TransferRequest, error) {
	req := TransferRequest{
		FromAccountID: strings.TrimSpace(in.FromAccountID),
		ToAccountID:   strings.TrimSpace(in.ToAccountID),
		Description:   strings.TrimSpace(in.Description),
		Subcategory:   strings.TrimSpace(in.Subcategory),
		ClientRef:     strings.TrimSpace(in.ClientRef),
	}

	amount, err := parseRawAmount(in.Amount)
	if err != nil {
		return req, err
	}
	req.Amount = amount

	if in.Date != "" {
		d, err := civil.ParseDate(in.Date)
		if err != nil {
			return req, fmt.Errorf("%w: date must be YYYY-MM-DD: %v", ErrInvalid, err)
		}
		req.Date = &d
	}
	return req, nil
}

func parseRawAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("%w is required", ErrInvalidAmount)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		return ParseAmount(s)
	}
	return ParseAmount(string(raw))
}

// ParseAmount reads a decimal amount, rejecting NaN, infinities and
// anything that is not a number.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if s == "" || strings.Contains(lower, "nan") || strings.Contains(lower, "inf") {
		return decimal.Zero, fmt.Errorf("%w %q is not a finite number", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}
	return d, nil
}

// AmountFromFloat converts a float amount, rejecting NaN and infinities.
func AmountFromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("%w %v is not a finite number", ErrInvalidAmount, f)
	}
	return decimal.NewFromFloat(f), nil
}

// IsInvalidAmount reports whether err came from amount parsing.
func IsInvalidAmount(err error) bool {
	return errors.Is(err, ErrInvalidAmount)
}
