package service

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

// Transfer validates and books req. A refusal is returned as an unsuccessful
// result with a nil error; the error is for storage and snapshot failures.
func (l *Ledger) Transfer(ctx context.Context, req domain.TransferRequest) (ledger.TransferResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return ledger.TransferResult{}, fmt.Errorf("Transfer: loading accounts: %w", err)
	}
	var history []domain.Transaction
	if req.ClientRef != "" {
		history, err = l.store.ListTransactions(ctx, store.TransactionQuery{ClientRef: req.ClientRef})
		if err != nil {
			return ledger.TransferResult{}, fmt.Errorf("Transfer: loading history: %w", err)
		}
	}

	result, err := l.engine.ProcessTransfer(req, accounts, history)
	if err != nil {
		return ledger.TransferResult{}, fmt.Errorf("Transfer: %w", err)
	}
	if !result.Success {
		l.log.Info().
			Str("kind", string(result.Kind)).
			Str("from", req.FromAccountID).
			Str("to", req.ToAccountID).
			Msg("Transfer refused")
		return result, nil
	}

	c := newChange(accounts, result.UpdatedAccounts)
	c.Insert = result.Transactions
	if err := l.commit(ctx, c); err != nil {
		return ledger.TransferResult{}, fmt.Errorf("Transfer: %w", err)
	}
	l.invalidate()

	l.log.Info().
		Str("transfer_group_id", result.Transactions[0].TransferGroupID).
		Str("amount", req.Amount.String()).
		Msg("Transfer booked")
	return result, nil
}

// Transaction returns a single record.
func (l *Ledger) Transaction(ctx context.Context, id string) (domain.Transaction, error) {
	t, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns the page selected by f and the total number of
// matches.
func (l *Ledger) ListTransactions(ctx context.Context, f ledger.Filter) ([]domain.Transaction, int, error) {
	if err := f.Validate(); err != nil {
		return nil, 0, err
	}
	all, err := l.store.ListTransactions(ctx, store.TransactionQuery{})
	if err != nil {
		return nil, 0, fmt.Errorf("ListTransactions: %w", err)
	}
	page, total := f.Apply(all)
	return page, total, nil
}

// CreateTransaction books a simple income, expense or debt record.
func (l *Ledger) CreateTransaction(ctx context.Context, in domain.TransactionInput) (domain.Transaction, error) {
	txn, err := in.ToTransaction(l.engine.Today())
	if err != nil {
		return domain.Transaction{}, err
	}
	txn.ID = l.engine.NewID()
	txn.CreatedAt = l.now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("CreateTransaction: loading accounts: %w", err)
	}
	updated, err := l.engine.RecordTransaction(accounts, txn)
	if err != nil {
		return domain.Transaction{}, err
	}

	c := newChange(accounts, updated)
	c.Insert = []domain.Transaction{txn}
	if err := l.commit(ctx, c); err != nil {
		return domain.Transaction{}, fmt.Errorf("CreateTransaction: %w", err)
	}
	l.invalidate()
	return txn, nil
}

// UpdateTransaction replaces a record with in, moving the balance
// difference. On a transfer leg only the date, description, subcategory and
// receipt can change; date, description and subcategory are kept in step on
// both legs. An empty receipt URL keeps the attached receipt.
func (l *Ledger) UpdateTransaction(ctx context.Context, id string, in domain.TransactionInput) (domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("UpdateTransaction: %w", err)
	}
	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("UpdateTransaction: loading accounts: %w", err)
	}

	if old.IsTransferLeg() {
		return l.updateTransferLeg(ctx, accounts, old, in)
	}

	updated, err := in.ToTransaction(old.Date)
	if err != nil {
		return domain.Transaction{}, err
	}
	updated.ID = old.ID
	updated.Struck = old.Struck
	updated.CreatedAt = old.CreatedAt
	if updated.ReceiptURL == "" {
		updated.ReceiptURL = old.ReceiptURL
	}

	after, err := l.engine.EditTransaction(accounts, old, updated)
	if err != nil {
		return domain.Transaction{}, err
	}

	c := newChange(accounts, after)
	c.update(old, updated)
	if err := l.commit(ctx, c); err != nil {
		return domain.Transaction{}, fmt.Errorf("UpdateTransaction: %w", err)
	}
	l.invalidate()
	return updated, nil
}

func (l *Ledger) updateTransferLeg(ctx context.Context, accounts []domain.Account, old domain.Transaction, in domain.TransactionInput) (domain.Transaction, error) {
	updated := old
	if !in.Amount.IsZero() && !in.Amount.Equal(old.Amount.Abs()) {
		updated.Amount = in.Amount
		if old.Amount.IsNegative() {
			updated.Amount = in.Amount.Neg()
		}
	}
	if in.AccountID != "" {
		updated.AccountID = in.AccountID
	}
	if _, err := l.engine.EditTransaction(accounts, old, updated); err != nil {
		return domain.Transaction{}, err
	}

	if in.Date != "" {
		d, err := civil.ParseDate(in.Date)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("%w: date must be YYYY-MM-DD: %v", domain.ErrInvalid, err)
		}
		updated.Date = d
	}
	updated.Description = strings.TrimSpace(in.Description)
	updated.Subcategory = strings.TrimSpace(in.Subcategory)
	if in.ReceiptURL != "" {
		updated.ReceiptURL = in.ReceiptURL
	}

	legs, err := l.store.ListTransactions(ctx, store.TransactionQuery{TransferGroupID: old.TransferGroupID})
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("UpdateTransaction: loading transfer: %w", err)
	}

	c := newChange(accounts, accounts)
	c.update(old, updated)
	for _, leg := range legs {
		if leg.ID == old.ID {
			continue
		}
		pair := leg
		pair.Date = updated.Date
		pair.Description = updated.Description
		pair.Subcategory = updated.Subcategory
		c.update(leg, pair)
	}
	if err := l.commit(ctx, c); err != nil {
		return domain.Transaction{}, fmt.Errorf("UpdateTransaction: %w", err)
	}
	l.invalidate()
	return updated, nil
}

// DeleteTransaction removes a record and reverses its balance effect. For a
// transfer leg both legs of the transfer are removed. It returns the ids
// that were deleted.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("DeleteTransaction: %w", err)
	}
	accounts, err := l.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("DeleteTransaction: loading accounts: %w", err)
	}

	var (
		after   []domain.Account
		removed []domain.Transaction
	)
	if txn.IsTransferLeg() {
		group, err := l.store.ListTransactions(ctx, store.TransactionQuery{TransferGroupID: txn.TransferGroupID})
		if err != nil {
			return nil, fmt.Errorf("DeleteTransaction: loading transfer: %w", err)
		}
		after, removed, err = ledger.DeleteTransfer(accounts, group, txn.TransferGroupID)
		if err != nil {
			return nil, fmt.Errorf("DeleteTransaction: %w", err)
		}
	} else {
		after, err = ledger.DeleteTransaction(accounts, txn)
		if err != nil {
			return nil, fmt.Errorf("DeleteTransaction: %w", err)
		}
		removed = []domain.Transaction{txn}
	}

	c := newChange(accounts, after)
	ids := make([]string, 0, len(removed))
	for _, t := range removed {
		c.delete(t)
		ids = append(ids, t.ID)
	}
	if err := l.commit(ctx, c); err != nil {
		return nil, fmt.Errorf("DeleteTransaction: %w", err)
	}
	l.invalidate()
	l.log.Info().Strs("ids", ids).Msg("Transactions deleted")
	return ids, nil
}

// ToggleStruck flips the struck-through mark of a record. Balances are not
// affected.
func (l *Ledger) ToggleStruck(ctx context.Context, id string) (domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("ToggleStruck: %w", err)
	}
	t.Struck = !t.Struck
	if err := l.store.UpdateTransaction(ctx, t); err != nil {
		return domain.Transaction{}, fmt.Errorf("ToggleStruck: %w", err)
	}
	l.invalidate()
	return t, nil
}

// AttachReceipt links a stored receipt to a record.
func (l *Ledger) AttachReceipt(ctx context.Context, transactionID, receiptURL string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, err := l.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("AttachReceipt: %w", err)
	}
	t.ReceiptURL = receiptURL
	if err := l.store.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("AttachReceipt: %w", err)
	}
	return nil
}
