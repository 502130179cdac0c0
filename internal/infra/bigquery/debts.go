package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/brankas/brankas/internal/domain"
)

type DebtRow struct {
	DebtID          string              `bigquery:"debt_id"`          // REQUIRED
	Name            string              `bigquery:"name"`             // REQUIRED
	TotalAmount     *big.Rat            `bigquery:"total_amount"`     // REQUIRED NUMERIC
	RemainingAmount *big.Rat            `bigquery:"remaining_amount"` // REQUIRED NUMERIC
	InterestRate    *big.Rat            `bigquery:"interest_rate"`    // NULLABLE NUMERIC
	MinimumPayment  *big.Rat            `bigquery:"minimum_payment"`  // NULLABLE NUMERIC
	DueDate         bigquery.NullDate   `bigquery:"due_date"`         // NULLABLE
	Description     bigquery.NullString `bigquery:"description"`      // NULLABLE
	IsActive        bool                `bigquery:"is_active"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func debtToRow(d domain.Debt) DebtRow {
	return DebtRow{
		DebtID:          d.ID,
		Name:            d.Name,
		TotalAmount:     toRat(d.TotalAmount),
		RemainingAmount: toRat(d.RemainingAmount),
		InterestRate:    toNullRat(d.InterestRate),
		MinimumPayment:  toNullRat(d.MinimumPayment),
		DueDate:         nullDate(d.DueDate),
		Description:     nullString(d.Description),
		IsActive:        d.IsActive,
		CreatedTS:       d.CreatedAt,
	}
}

func (r DebtRow) toDomain() domain.Debt {
	return domain.Debt{
		ID:              r.DebtID,
		Name:            r.Name,
		TotalAmount:     fromRat(r.TotalAmount),
		RemainingAmount: fromRat(r.RemainingAmount),
		InterestRate:    fromNullRat(r.InterestRate),
		MinimumPayment:  fromNullRat(r.MinimumPayment),
		DueDate:         fromNullDate(r.DueDate),
		Description:     r.Description.StringVal,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedTS,
	}
}

const debtColumns = `debt_id, name, total_amount, remaining_amount, interest_rate, minimum_payment,
	due_date, description, is_active, created_ts, updated_ts`

func (r *Repository) ListDebts(ctx context.Context, activeOnly bool) ([]domain.Debt, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE (@active_only = FALSE OR is_active) ORDER BY created_ts`,
		debtColumns, r.table(debtsTable))

	rows, err := readAll[DebtRow](ctx, r.client, "ListDebts", query, []bigquery.QueryParameter{
		{Name: "active_only", Value: activeOnly},
	})
	if err != nil {
		return nil, err
	}
	debts := make([]domain.Debt, 0, len(rows))
	for _, row := range rows {
		debts = append(debts, row.toDomain())
	}
	return debts, nil
}

func (r *Repository) GetDebt(ctx context.Context, id string) (domain.Debt, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE debt_id = @debt_id LIMIT 1`, debtColumns, r.table(debtsTable))
	row, err := readOne[DebtRow](ctx, r.client, "GetDebt", query, []bigquery.QueryParameter{
		{Name: "debt_id", Value: id},
	})
	if err != nil {
		return domain.Debt{}, err
	}
	return row.toDomain(), nil
}

func (r *Repository) InsertDebt(ctx context.Context, d domain.Debt) error {
	row := debtToRow(d)
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@debt_id, @name, @total_amount, @remaining_amount, @interest_rate, @minimum_payment,
		        @due_date, @description, @is_active, @created_ts, NULL)
	`, r.table(debtsTable), debtColumns)

	_, err := r.exec(ctx, "InsertDebt", query, append(debtParams(row),
		bigquery.QueryParameter{Name: "created_ts", Value: row.CreatedTS}))
	return err
}

func (r *Repository) UpdateDebt(ctx context.Context, d domain.Debt) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = @name,
		    total_amount = @total_amount,
		    remaining_amount = @remaining_amount,
		    interest_rate = @interest_rate,
		    minimum_payment = @minimum_payment,
		    due_date = @due_date,
		    description = @description,
		    is_active = @is_active,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE debt_id = @debt_id
	`, r.table(debtsTable))
	return r.execOne(ctx, "UpdateDebt", query, debtParams(debtToRow(d)))
}

func (r *Repository) DeleteDebt(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteDebt", debtsTable, "debt_id", id)
}

// debtParams omits created_ts, which only inserts set.
func debtParams(row DebtRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "debt_id", Value: row.DebtID},
		{Name: "name", Value: row.Name},
		{Name: "total_amount", Value: row.TotalAmount},
		{Name: "remaining_amount", Value: row.RemainingAmount},
		{Name: "interest_rate", Value: nullableNumeric(row.InterestRate)},
		{Name: "minimum_payment", Value: nullableNumeric(row.MinimumPayment)},
		{Name: "due_date", Value: row.DueDate},
		{Name: "description", Value: row.Description},
		{Name: "is_active", Value: row.IsActive},
	}
}

// nullableNumeric types a nil NUMERIC parameter explicitly, since a nil
// *big.Rat carries no type information for the query.
func nullableNumeric(r *big.Rat) bigquery.QueryParameterValue {
	pv := bigquery.QueryParameterValue{
		Type: bigquery.StandardSQLDataType{TypeKind: "NUMERIC"},
	}
	if r != nil {
		pv.Value = r
	}
	return pv
}
