package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/brankas/brankas/internal/domain"
)

const debtColumns = `id, name, total_amount, remaining_amount, interest_rate, minimum_payment,
	due_date, description, is_active, created_at`

func scanDebt(row pgx.Row) (domain.Debt, error) {
	var (
		d                domain.Debt
		total, remaining pgtype.Numeric
		rate, minimum    pgtype.Numeric
		due              pgtype.Date
		description      pgtype.Text
	)
	err := row.Scan(&d.ID, &d.Name, &total, &remaining, &rate, &minimum, &due, &description, &d.IsActive, &d.CreatedAt)
	if err != nil {
		return domain.Debt{}, err
	}
	d.TotalAmount = fromNumeric(total)
	d.RemainingAmount = fromNumeric(remaining)
	d.InterestRate = fromNullNumeric(rate)
	d.MinimumPayment = fromNullNumeric(minimum)
	d.DueDate = fromNullDate(due)
	d.Description = description.String
	return d, nil
}

func (r *Repository) ListDebts(ctx context.Context, activeOnly bool) ([]domain.Debt, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+debtColumns+` FROM debts WHERE ($1 = FALSE OR is_active) ORDER BY created_at`, activeOnly)
	if err != nil {
		return nil, mapError("ListDebts", err)
	}
	return collect(rows, "ListDebts", scanDebt)
}

func (r *Repository) GetDebt(ctx context.Context, id string) (domain.Debt, error) {
	d, err := scanDebt(r.pool.QueryRow(ctx, `SELECT `+debtColumns+` FROM debts WHERE id = $1`, id))
	if err != nil {
		return domain.Debt{}, mapError("GetDebt", err)
	}
	return d, nil
}

func (r *Repository) InsertDebt(ctx context.Context, d domain.Debt) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO debts (`+debtColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.Name, toNumeric(d.TotalAmount), toNumeric(d.RemainingAmount), toNullNumeric(d.InterestRate),
		toNullNumeric(d.MinimumPayment), toNullDate(d.DueDate), toText(d.Description), d.IsActive, createdAt(d.CreatedAt))
	return mapError("InsertDebt", err)
}

func (r *Repository) UpdateDebt(ctx context.Context, d domain.Debt) error {
	return execOne(ctx, r.pool, "UpdateDebt", `
		UPDATE debts
		SET name = $2, total_amount = $3, remaining_amount = $4, interest_rate = $5, minimum_payment = $6,
		    due_date = $7, description = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Name, toNumeric(d.TotalAmount), toNumeric(d.RemainingAmount), toNullNumeric(d.InterestRate),
		toNullNumeric(d.MinimumPayment), toNullDate(d.DueDate), toText(d.Description), d.IsActive)
}

func (r *Repository) DeleteDebt(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, "DeleteDebt", `DELETE FROM debts WHERE id = $1`, id)
}

const goalColumns = `id, name, target_amount, deadline, description, is_active, created_at`

func scanGoal(row pgx.Row) (domain.SavingsGoal, error) {
	var (
		g           domain.SavingsGoal
		target      pgtype.Numeric
		deadline    pgtype.Date
		description pgtype.Text
	)
	if err := row.Scan(&g.ID, &g.Name, &target, &deadline, &description, &g.IsActive, &g.CreatedAt); err != nil {
		return domain.SavingsGoal{}, err
	}
	g.TargetAmount = fromNumeric(target)
	g.Deadline = fromNullDate(deadline)
	g.Description = description.String
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, activeOnly bool) ([]domain.SavingsGoal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+goalColumns+` FROM goals WHERE ($1 = FALSE OR is_active) ORDER BY created_at`, activeOnly)
	if err != nil {
		return nil, mapError("ListGoals", err)
	}
	return collect(rows, "ListGoals", scanGoal)
}

func (r *Repository) GetGoal(ctx context.Context, id string) (domain.SavingsGoal, error) {
	g, err := scanGoal(r.pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id))
	if err != nil {
		return domain.SavingsGoal{}, mapError("GetGoal", err)
	}
	return g, nil
}

func (r *Repository) InsertGoal(ctx context.Context, g domain.SavingsGoal) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO goals (`+goalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.Name, toNumeric(g.TargetAmount), toNullDate(g.Deadline), toText(g.Description), g.IsActive, createdAt(g.CreatedAt))
	return mapError("InsertGoal", err)
}

func (r *Repository) UpdateGoal(ctx context.Context, g domain.SavingsGoal) error {
	return execOne(ctx, r.pool, "UpdateGoal", `
		UPDATE goals
		SET name = $2, target_amount = $3, deadline = $4, description = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1`,
		g.ID, g.Name, toNumeric(g.TargetAmount), toNullDate(g.Deadline), toText(g.Description), g.IsActive)
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	return execOne(ctx, r.pool, "DeleteGoal", `DELETE FROM goals WHERE id = $1`, id)
}
