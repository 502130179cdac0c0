package service

import (
	"context"
	"fmt"

	"github.com/brankas/brankas/internal/cache"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

// AccountSummary is one account card on the dashboard.
type AccountSummary struct {
	domain.Account
	Stats ledger.Stats `json:"stats"`
}

type Dashboard struct {
	Totals   ledger.Totals    `json:"totals"`
	Accounts []AccountSummary `json:"accounts"`
}

// Dashboard returns balance totals and per-account stats, cached until the
// next write.
func (l *Ledger) Dashboard(ctx context.Context) (Dashboard, error) {
	if d, ok := cache.Load[Dashboard](l.cache, keyDashboard); ok {
		return d, nil
	}

	gen := l.generation()
	accounts, err := l.Accounts(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("Dashboard: %w", err)
	}
	txns, err := l.store.ListTransactions(ctx, store.TransactionQuery{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("Dashboard: %w", err)
	}

	d := Dashboard{Totals: ledger.DashboardTotals(accounts), Accounts: make([]AccountSummary, 0, len(accounts))}
	for _, a := range accounts {
		d.Accounts = append(d.Accounts, AccountSummary{Account: a, Stats: ledger.AccountStats(a.ID, txns)})
	}
	l.fill(gen, cache.GroupSummary, keyDashboard, d)
	return d, nil
}

// PeriodSummary compares income and expense for the named period against
// the period before it.
func (l *Ledger) PeriodSummary(ctx context.Context, period string) (ledger.Summary, error) {
	p, err := ledger.ParsePeriod(period)
	if err != nil {
		return ledger.Summary{}, err
	}
	txns, err := l.store.ListTransactions(ctx, store.TransactionQuery{})
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("PeriodSummary: %w", err)
	}
	return ledger.PeriodSummary(p, l.engine.Today(), txns), nil
}

// CategoryBreakdown totals records of typ per category within f.
func (l *Ledger) CategoryBreakdown(ctx context.Context, typ string, f ledger.Filter) ([]ledger.CategoryTotal, error) {
	t, err := domain.ParseTransactionType(typ)
	if err != nil {
		return nil, err
	}
	f.Type = t
	f.Limit, f.Offset = 0, 0
	txns, _, err := l.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("CategoryBreakdown: %w", err)
	}
	return ledger.CategoryBreakdown(txns, t), nil
}
