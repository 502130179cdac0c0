package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Debt is a liability tracked alongside the ledger. Paying it down is a
// manual update; it never moves account balances.
type Debt struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	TotalAmount     decimal.Decimal  `json:"totalAmount"`
	RemainingAmount decimal.Decimal  `json:"remainingAmount"`
	InterestRate    *decimal.Decimal `json:"interestRate,omitempty"`
	MinimumPayment  *decimal.Decimal `json:"minimumPayment,omitempty"`
	DueDate         *civil.Date      `json:"dueDate,omitempty"`
	Description     string           `json:"description,omitempty"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt,omitzero"`
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: debt name is required", ErrInvalid)
	}
	if !d.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: totalAmount must be greater than zero", ErrInvalid)
	}
	if d.RemainingAmount.IsNegative() || d.RemainingAmount.GreaterThan(d.TotalAmount) {
		return fmt.Errorf("%w: remainingAmount must be between 0 and totalAmount", ErrInvalid)
	}
	if d.InterestRate != nil && d.InterestRate.IsNegative() {
		return fmt.Errorf("%w: interestRate cannot be negative", ErrInvalid)
	}
	if d.MinimumPayment != nil && d.MinimumPayment.IsNegative() {
		return fmt.Errorf("%w: minimumPayment cannot be negative", ErrInvalid)
	}
	return nil
}

// PaidAmount is how much of the debt has been repaid.
func (d Debt) PaidAmount() decimal.Decimal {
	return d.TotalAmount.Sub(d.RemainingAmount)
}
