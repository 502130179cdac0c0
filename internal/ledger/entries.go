package ledger

import (
	"fmt"

	"github.com/brankas/brankas/internal/domain"
)

// Apply returns a copy of accounts with txn's signed amount added to its
// own account. A record never touches any other account, so a transfer is
// applied as two records.
func Apply(accounts []domain.Account, txn domain.Transaction) ([]domain.Account, error) {
	return shift(accounts, txn, false)
}

// Reverse undoes Apply for the same record.
func Reverse(accounts []domain.Account, txn domain.Transaction) ([]domain.Account, error) {
	return shift(accounts, txn, true)
}

func shift(accounts []domain.Account, txn domain.Transaction, reverse bool) ([]domain.Account, error) {
	i := domain.FindAccount(accounts, txn.AccountID)
	if i < 0 {
		return nil, refuse(AccountNotFound, "account %q not found", txn.AccountID)
	}
	out := domain.CloneAccounts(accounts)
	if reverse {
		out[i].Balance = out[i].Balance.Sub(txn.Amount)
	} else {
		out[i].Balance = out[i].Balance.Add(txn.Amount)
	}
	return out, nil
}

// RecordTransaction applies a new simple record, enforcing the overdraft
// policy on outflows.
func (e *Engine) RecordTransaction(accounts []domain.Account, txn domain.Transaction) ([]domain.Account, error) {
	if txn.Type == domain.TypeTransfer {
		return nil, refuse(InvalidAmount, "transfers must be processed as a pair")
	}
	if txn.Amount.IsZero() {
		return nil, refuse(InvalidAmount, "amount must not be zero")
	}
	out, err := Apply(accounts, txn)
	if err != nil {
		return nil, err
	}
	if err := e.checkOverdraft(accounts, out, txn.AccountID); err != nil {
		return nil, err
	}
	return out, nil
}

// EditTransaction reverses old and applies updated, enforcing the overdraft
// policy on both accounts when the record moves. A transfer leg may only
// change fields that do not affect balances.
func (e *Engine) EditTransaction(accounts []domain.Account, old, updated domain.Transaction) ([]domain.Account, error) {
	if old.IsTransferLeg() || updated.Type == domain.TypeTransfer {
		if old.Type != updated.Type || old.AccountID != updated.AccountID || !old.Amount.Equal(updated.Amount) {
			return nil, refuse(InvalidAmount, "transfer amount and accounts cannot be edited; delete and transfer again")
		}
		return domain.CloneAccounts(accounts), nil
	}
	if updated.Amount.IsZero() {
		return nil, refuse(InvalidAmount, "amount must not be zero")
	}

	out, err := Reverse(accounts, old)
	if err != nil {
		return nil, err
	}
	out, err = Apply(out, updated)
	if err != nil {
		return nil, err
	}
	if err := e.checkOverdraft(accounts, out, updated.AccountID); err != nil {
		return nil, err
	}
	// Moving a record off an account reverses it there, which is an outflow
	// when the record was income.
	if old.AccountID != updated.AccountID {
		if err := e.checkOverdraft(accounts, out, old.AccountID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DeleteTransaction reverses a simple record.
func DeleteTransaction(accounts []domain.Account, txn domain.Transaction) ([]domain.Account, error) {
	if txn.IsTransferLeg() {
		return nil, fmt.Errorf("ledger: transaction %s is a transfer leg; delete the transfer group", txn.ID)
	}
	return Reverse(accounts, txn)
}

// DeleteTransfer reverses both legs of a transfer and returns them so the
// caller can remove them from storage.
func DeleteTransfer(accounts []domain.Account, transactions []domain.Transaction, groupID string) ([]domain.Account, []domain.Transaction, error) {
	legs := TransferLegs(transactions, groupID)
	if len(legs) != 2 || legs[0].Leg == legs[1].Leg {
		return nil, nil, fmt.Errorf("%w: transfer group %q has %d legs", ErrCorruptSnapshot, groupID, len(legs))
	}
	if !legs[0].Amount.Add(legs[1].Amount).IsZero() {
		return nil, nil, fmt.Errorf("%w: transfer group %q legs do not balance", ErrCorruptSnapshot, groupID)
	}

	out := accounts
	for _, leg := range legs {
		var err error
		if out, err = Reverse(out, leg); err != nil {
			return nil, nil, err
		}
	}
	return out, legs, nil
}

// TransferLegs returns the records of a transfer group in snapshot order.
func TransferLegs(transactions []domain.Transaction, groupID string) []domain.Transaction {
	var legs []domain.Transaction
	if groupID == "" {
		return legs
	}
	for _, t := range transactions {
		if t.TransferGroupID == groupID {
			legs = append(legs, t)
		}
	}
	return legs
}

// checkOverdraft refuses a change that takes an account below zero or
// further below than it already was.
func (e *Engine) checkOverdraft(before, after []domain.Account, accountID string) error {
	if e.policy.AllowOverdraft {
		return nil
	}
	i := domain.FindAccount(after, accountID)
	j := domain.FindAccount(before, accountID)
	if i < 0 || j < 0 {
		return nil
	}
	if after[i].Balance.IsNegative() && after[i].Balance.LessThan(before[j].Balance) {
		return refuse(InsufficientFunds, "insufficient funds in %s: balance would become %s",
			after[i].Name, after[i].Balance)
	}
	return nil
}
