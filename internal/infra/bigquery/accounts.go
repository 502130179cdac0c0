package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/brankas/brankas/internal/domain"
)

type AccountRow struct {
	AccountID   string   `bigquery:"account_id"`   // REQUIRED
	AccountName string   `bigquery:"account_name"` // REQUIRED
	AccountType string   `bigquery:"account_type"` // REQUIRED: bank | ewallet
	Balance     *big.Rat `bigquery:"balance"`      // REQUIRED NUMERIC
	IsSavings   bool     `bigquery:"is_savings"`   // REQUIRED
	Color       string   `bigquery:"color"`        // NULLABLE

	CreatedTS time.Time              `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP())
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"` // NULLABLE
}

func accountToRow(a domain.Account) AccountRow {
	return AccountRow{
		AccountID:   a.ID,
		AccountName: a.Name,
		AccountType: string(a.Kind),
		Balance:     toRat(a.Balance),
		IsSavings:   a.IsSavings,
		Color:       a.Color,
		CreatedTS:   a.CreatedAt,
	}
}

func (r AccountRow) toDomain() domain.Account {
	kind, err := domain.ParseAccountKind(r.AccountType)
	if err != nil {
		kind = domain.AccountKind(r.AccountType)
	}
	return domain.Account{
		ID:        r.AccountID,
		Name:      r.AccountName,
		Kind:      kind,
		Balance:   fromRat(r.Balance),
		IsSavings: r.IsSavings,
		Color:     r.Color,
		CreatedAt: r.CreatedTS,
	}
}
