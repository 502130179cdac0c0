package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

// change is a ChangeSet plus the rows it overwrites, so a partially applied
// write can be rolled back on stores without transactions.
type change struct {
	store.ChangeSet
	replaced       map[string]domain.Transaction
	accountsBefore []domain.Account
}

func newChange(before, after []domain.Account) *change {
	return &change{
		ChangeSet:      store.ChangeSet{Accounts: changedAccounts(before, after)},
		replaced:       make(map[string]domain.Transaction),
		accountsBefore: before,
	}
}

func (c *change) update(old, updated domain.Transaction) {
	c.replaced[old.ID] = old
	c.Update = append(c.Update, updated)
}

func (c *change) delete(old domain.Transaction) {
	c.replaced[old.ID] = old
	c.Delete = append(c.Delete, old.ID)
}

// changedAccounts returns the accounts in after whose balance differs from
// before. Accounts missing from before are included.
func changedAccounts(before, after []domain.Account) []domain.Account {
	var out []domain.Account
	for _, a := range after {
		i := domain.FindAccount(before, a.ID)
		if i < 0 || !before[i].Balance.Equal(a.Balance) {
			out = append(out, a)
		}
	}
	return out
}

// commit writes c atomically when the store supports it. Otherwise each
// step is written in turn and the completed steps are undone if a later one
// fails.
func (l *Ledger) commit(ctx context.Context, c *change) error {
	if c.Empty() {
		return nil
	}
	if tx, ok := l.store.(store.Committer); ok {
		if err := tx.Commit(ctx, c.ChangeSet); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	}

	var undo []func(context.Context) error
	fail := func(step string, err error) error {
		err = fmt.Errorf("commit: %s: %w", step, err)
		if uerr := l.compensate(ctx, undo); uerr != nil {
			return errors.Join(err, uerr)
		}
		return err
	}

	if len(c.Insert) > 0 {
		if err := l.store.InsertTransactions(ctx, c.Insert); err != nil {
			return fail("inserting transactions", err)
		}
		ids := make([]string, len(c.Insert))
		for i, t := range c.Insert {
			ids[i] = t.ID
		}
		undo = append(undo, func(ctx context.Context) error { return l.store.DeleteTransactions(ctx, ids...) })
	}

	for _, t := range c.Update {
		if err := l.store.UpdateTransaction(ctx, t); err != nil {
			return fail("updating transaction "+t.ID, err)
		}
		old := c.replaced[t.ID]
		undo = append(undo, func(ctx context.Context) error { return l.store.UpdateTransaction(ctx, old) })
	}

	if len(c.Delete) > 0 {
		if err := l.store.DeleteTransactions(ctx, c.Delete...); err != nil {
			return fail("deleting transactions", err)
		}
		removed := make([]domain.Transaction, 0, len(c.Delete))
		for _, id := range c.Delete {
			removed = append(removed, c.replaced[id])
		}
		undo = append(undo, func(ctx context.Context) error { return l.store.InsertTransactions(ctx, removed) })
	}

	for _, a := range c.Accounts {
		if err := l.store.UpdateAccount(ctx, a); err != nil {
			return fail("updating account "+a.ID, err)
		}
		if i := domain.FindAccount(c.accountsBefore, a.ID); i >= 0 {
			old := c.accountsBefore[i]
			undo = append(undo, func(ctx context.Context) error { return l.store.UpdateAccount(ctx, old) })
		}
	}
	return nil
}

// compensate runs undo steps newest first. It keeps going after a failure
// and reports every step that could not be undone.
func (l *Ledger) compensate(ctx context.Context, undo []func(context.Context) error) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](ctx); err != nil {
			l.log.Error().Err(err).Int("step", i).Msg("Compensation step failed")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("compensation incomplete: %w", errors.Join(errs...))
	}
	l.log.Warn().Int("steps", len(undo)).Msg("Partial write rolled back")
	return nil
}
