package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// SavingsGoal is a target measured against the combined balance of savings
// accounts. It holds no balance of its own.
type SavingsGoal struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Deadline     *civil.Date     `json:"deadline,omitempty"`
	Description  string          `json:"description,omitempty"`
	IsActive     bool            `json:"isActive"`
	CreatedAt    time.Time       `json:"createdAt,omitzero"`
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: goal name is required", ErrInvalid)
	}
	if !g.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: targetAmount must be greater than zero", ErrInvalid)
	}
	return nil
}
