package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
)

func (l *Ledger) Debts(ctx context.Context, activeOnly bool) ([]domain.Debt, error) {
	debts, err := l.store.ListDebts(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("Debts: %w", err)
	}
	return debts, nil
}

func (l *Ledger) Debt(ctx context.Context, id string) (domain.Debt, error) {
	d, err := l.store.GetDebt(ctx, id)
	if err != nil {
		return domain.Debt{}, fmt.Errorf("Debt: %w", err)
	}
	return d, nil
}

// CreateDebt stores a new debt. A zero remaining amount starts at the total.
func (l *Ledger) CreateDebt(ctx context.Context, d domain.Debt) (domain.Debt, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.RemainingAmount.IsZero() {
		d.RemainingAmount = d.TotalAmount
	}
	if err := d.Validate(); err != nil {
		return domain.Debt{}, err
	}
	d.ID = l.engine.NewID()
	d.CreatedAt = l.now().UTC()

	if err := l.store.InsertDebt(ctx, d); err != nil {
		return domain.Debt{}, fmt.Errorf("CreateDebt: %w", err)
	}
	return d, nil
}

func (l *Ledger) UpdateDebt(ctx context.Context, id string, d domain.Debt) (domain.Debt, error) {
	current, err := l.store.GetDebt(ctx, id)
	if err != nil {
		return domain.Debt{}, fmt.Errorf("UpdateDebt: %w", err)
	}
	d.ID = current.ID
	d.CreatedAt = current.CreatedAt
	d.Name = strings.TrimSpace(d.Name)
	if err := d.Validate(); err != nil {
		return domain.Debt{}, err
	}
	if err := l.store.UpdateDebt(ctx, d); err != nil {
		return domain.Debt{}, fmt.Errorf("UpdateDebt: %w", err)
	}
	return d, nil
}

func (l *Ledger) DeleteDebt(ctx context.Context, id string) error {
	if err := l.store.DeleteDebt(ctx, id); err != nil {
		return fmt.Errorf("DeleteDebt: %w", err)
	}
	return nil
}

func (l *Ledger) Goals(ctx context.Context, activeOnly bool) ([]domain.SavingsGoal, error) {
	goals, err := l.store.ListGoals(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("Goals: %w", err)
	}
	return goals, nil
}

func (l *Ledger) Goal(ctx context.Context, id string) (domain.SavingsGoal, error) {
	g, err := l.store.GetGoal(ctx, id)
	if err != nil {
		return domain.SavingsGoal{}, fmt.Errorf("Goal: %w", err)
	}
	return g, nil
}

func (l *Ledger) CreateGoal(ctx context.Context, g domain.SavingsGoal) (domain.SavingsGoal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return domain.SavingsGoal{}, err
	}
	g.ID = l.engine.NewID()
	g.CreatedAt = l.now().UTC()

	if err := l.store.InsertGoal(ctx, g); err != nil {
		return domain.SavingsGoal{}, fmt.Errorf("CreateGoal: %w", err)
	}
	return g, nil
}

func (l *Ledger) UpdateGoal(ctx context.Context, id string, g domain.SavingsGoal) (domain.SavingsGoal, error) {
	current, err := l.store.GetGoal(ctx, id)
	if err != nil {
		return domain.SavingsGoal{}, fmt.Errorf("UpdateGoal: %w", err)
	}
	g.ID = current.ID
	g.CreatedAt = current.CreatedAt
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return domain.SavingsGoal{}, err
	}
	if err := l.store.UpdateGoal(ctx, g); err != nil {
		return domain.SavingsGoal{}, fmt.Errorf("UpdateGoal: %w", err)
	}
	return g, nil
}

func (l *Ledger) DeleteGoal(ctx context.Context, id string) error {
	if err := l.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("DeleteGoal: %w", err)
	}
	return nil
}

// GoalProgress measures the savings accounts against a goal's target.
func (l *Ledger) GoalProgress(ctx context.Context, id string) (ledger.Progress, error) {
	g, err := l.store.GetGoal(ctx, id)
	if err != nil {
		return ledger.Progress{}, fmt.Errorf("GoalProgress: %w", err)
	}
	accounts, err := l.Accounts(ctx)
	if err != nil {
		return ledger.Progress{}, fmt.Errorf("GoalProgress: %w", err)
	}
	return ledger.GoalProgress(g, accounts), nil
}
