package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/brankas/brankas/internal/cache"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

// Accounts returns every account, from the cache when possible.
func (l *Ledger) Accounts(ctx context.Context) ([]domain.Account, error) {
	if accounts, ok := cache.Load[[]domain.Account](l.cache, keyAccounts); ok {
		return domain.CloneAccounts(accounts), nil
	}
	gen := l.generation()
	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("Accounts: %w", err)
	}
	l.fill(gen, cache.GroupAccounts, keyAccounts, domain.CloneAccounts(accounts))
	return accounts, nil
}

func (l *Ledger) Account(ctx context.Context, id string) (domain.Account, error) {
	a, err := l.store.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("Account: %w", err)
	}
	return a, nil
}

// CreateAccount stores a new account. Its balance is taken as the opening
// balance; afterwards it only changes through transactions.
func (l *Ledger) CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}
	if a.ID == "" {
		a.ID = l.engine.NewID()
	}
	a.CreatedAt = l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.InsertAccount(ctx, a); err != nil {
		return domain.Account{}, fmt.Errorf("CreateAccount: %w", err)
	}
	l.invalidate()
	l.log.Info().Str("account_id", a.ID).Str("name", a.Name).Msg("Account created")
	return a, nil
}

// UpdateAccount changes the descriptive fields of an account. The balance
// in a is ignored.
func (l *Ledger) UpdateAccount(ctx context.Context, id string, a domain.Account) (domain.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return domain.Account{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.store.GetAccount(ctx, id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("UpdateAccount: %w", err)
	}
	current.Name = a.Name
	current.Kind = a.Kind
	current.IsSavings = a.IsSavings
	current.Color = a.Color

	if err := l.store.UpdateAccount(ctx, current); err != nil {
		return domain.Account{}, fmt.Errorf("UpdateAccount: %w", err)
	}
	l.invalidate()
	return current, nil
}

// DeleteAccount removes an account with no transactions. An account that
// still has history yields store.ErrConflict.
func (l *Ledger) DeleteAccount(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("DeleteAccount: %w", err)
	}
	l.invalidate()
	l.log.Info().Str("account_id", id).Msg("Account deleted")
	return nil
}

// AccountStats summarises the records booked on one account.
func (l *Ledger) AccountStats(ctx context.Context, id string) (ledger.Stats, error) {
	if _, err := l.store.GetAccount(ctx, id); err != nil {
		return ledger.Stats{}, fmt.Errorf("AccountStats: %w", err)
	}
	txns, err := l.store.ListTransactions(ctx, store.TransactionQuery{AccountID: id})
	if err != nil {
		return ledger.Stats{}, fmt.Errorf("AccountStats: %w", err)
	}
	return ledger.AccountStats(id, txns), nil
}
