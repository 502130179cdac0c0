package bigquery

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/brankas/brankas/internal/domain"
)

type GoalRow struct {
	GoalID       string              `bigquery:"goal_id"`       // REQUIRED
	Name         string              `bigquery:"name"`          // REQUIRED
	TargetAmount *big.Rat            `bigquery:"target_amount"` // REQUIRED NUMERIC
	Deadline     bigquery.NullDate   `bigquery:"deadline"`      // NULLABLE
	Description  bigquery.NullString `bigquery:"description"`   // NULLABLE
	IsActive     bool                `bigquery:"is_active"`

	CreatedTS time.Time              `bigquery:"created_ts"`
	UpdatedTS bigquery.NullTimestamp `bigquery:"updated_ts"`
}

func goalToRow(g domain.SavingsGoal) GoalRow {
	return GoalRow{
		GoalID:       g.ID,
		Name:         g.Name,
		TargetAmount: toRat(g.TargetAmount),
		Deadline:     nullDate(g.Deadline),
		Description:  nullString(g.Description),
		IsActive:     g.IsActive,
		CreatedTS:    g.CreatedAt,
	}
}

func (r GoalRow) toDomain() domain.SavingsGoal {
	return domain.SavingsGoal{
		ID:           r.GoalID,
		Name:         r.Name,
		TargetAmount: fromRat(r.TargetAmount),
		Deadline:     fromNullDate(r.Deadline),
		Description:  r.Description.StringVal,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedTS,
	}
}

const goalColumns = `goal_id, name, target_amount, deadline, description, is_active, created_ts, updated_ts`

func (r *Repository) ListGoals(ctx context.Context, activeOnly bool) ([]domain.SavingsGoal, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE (@active_only = FALSE OR is_active) ORDER BY created_ts`,
		goalColumns, r.table(goalsTable))

	rows, err := readAll[GoalRow](ctx, r.client, "ListGoals", query, []bigquery.QueryParameter{
		{Name: "active_only", Value: activeOnly},
	})
	if err != nil {
		return nil, err
	}
	goals := make([]domain.SavingsGoal, 0, len(rows))
	for _, row := range rows {
		goals = append(goals, row.toDomain())
	}
	return goals, nil
}

func (r *Repository) GetGoal(ctx context.Context, id string) (domain.SavingsGoal, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE goal_id = @goal_id LIMIT 1`, goalColumns, r.table(goalsTable))
	row, err := readOne[GoalRow](ctx, r.client, "GetGoal", query, []bigquery.QueryParameter{
		{Name: "goal_id", Value: id},
	})
	if err != nil {
		return domain.SavingsGoal{}, err
	}
	return row.toDomain(), nil
}

func (r *Repository) InsertGoal(ctx context.Context, g domain.SavingsGoal) error {
	row := goalToRow(g)
	if row.CreatedTS.IsZero() {
		row.CreatedTS = time.Now().UTC()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES (@goal_id, @name, @target_amount, @deadline, @description, @is_active, @created_ts, NULL)
	`, r.table(goalsTable), goalColumns)

	_, err := r.exec(ctx, "InsertGoal", query, append(goalParams(row),
		bigquery.QueryParameter{Name: "created_ts", Value: row.CreatedTS}))
	return err
}

func (r *Repository) UpdateGoal(ctx context.Context, g domain.SavingsGoal) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = @name,
		    target_amount = @target_amount,
		    deadline = @deadline,
		    description = @description,
		    is_active = @is_active,
		    updated_ts = CURRENT_TIMESTAMP()
		WHERE goal_id = @goal_id
	`, r.table(goalsTable))
	return r.execOne(ctx, "UpdateGoal", query, goalParams(goalToRow(g)))
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "DeleteGoal", goalsTable, "goal_id", id)
}

func goalParams(row GoalRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "goal_id", Value: row.GoalID},
		{Name: "name", Value: row.Name},
		{Name: "target_amount", Value: row.TargetAmount},
		{Name: "deadline", Value: row.Deadline},
		{Name: "description", Value: row.Description},
		{Name: "is_active", Value: row.IsActive},
	}
}
