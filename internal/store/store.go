// Package store defines the persistence contract for accounts, transactions,
// debts, goals and receipts. Implementations live under internal/infra.
package store

import (
	"context"
	"errors"

	"github.com/brankas/brankas/internal/domain"
)

var (
	// ErrNotFound is returned when a row with the requested id does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a write would break referential rules,
	// such as deleting an account that still has transactions.
	ErrConflict = errors.New("store: conflict")
)

// AccountStore provides CRUD over accounts (platforms).
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	InsertAccount(ctx context.Context, a domain.Account) error
	// UpdateAccount replaces every column of the row, balance included.
	UpdateAccount(ctx context.Context, a domain.Account) error
	DeleteAccount(ctx context.Context, id string) error
}

// TransactionQuery narrows ListTransactions. Zero fields do not filter.
type TransactionQuery struct {
	AccountID       string
	TransferGroupID string
	ClientRef       string
}

// TransactionStore provides CRUD over transactions.
type TransactionStore interface {
	ListTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (domain.Transaction, error)
	InsertTransactions(ctx context.Context, txns []domain.Transaction) error
	UpdateTransaction(ctx context.Context, t domain.Transaction) error
	DeleteTransactions(ctx context.Context, ids ...string) error
}

// DebtStore provides CRUD over debts.
type DebtStore interface {
	ListDebts(ctx context.Context, activeOnly bool) ([]domain.Debt, error)
	GetDebt(ctx context.Context, id string) (domain.Debt, error)
	InsertDebt(ctx context.Context, d domain.Debt) error
	UpdateDebt(ctx context.Context, d domain.Debt) error
	DeleteDebt(ctx context.Context, id string) error
}

// GoalStore provides CRUD over savings goals.
type GoalStore interface {
	ListGoals(ctx context.Context, activeOnly bool) ([]domain.SavingsGoal, error)
	GetGoal(ctx context.Context, id string) (domain.SavingsGoal, error)
	InsertGoal(ctx context.Context, g domain.SavingsGoal) error
	UpdateGoal(ctx context.Context, g domain.SavingsGoal) error
	DeleteGoal(ctx context.Context, id string) error
}

// ReceiptStore keeps uploaded receipts and their scan results.
type ReceiptStore interface {
	InsertReceipt(ctx context.Context, r domain.Receipt) error
	GetReceipt(ctx context.Context, id string) (domain.Receipt, error)
	UpdateReceipt(ctx context.Context, r domain.Receipt) error
	ListReceipts(ctx context.Context, transactionID string) ([]domain.Receipt, error)
}

// Store is the full persistence surface used by the service layer.
type Store interface {
	AccountStore
	TransactionStore
	DebtStore
	GoalStore
	ReceiptStore
	Close() error
}

// ChangeSet is every row write produced by one ledger operation.
type ChangeSet struct {
	Insert   []domain.Transaction
	Update   []domain.Transaction
	Delete   []string
	Accounts []domain.Account
}

// Empty reports whether the change set has nothing to write.
func (c ChangeSet) Empty() bool {
	return len(c.Insert) == 0 && len(c.Update) == 0 && len(c.Delete) == 0 && len(c.Accounts) == 0
}

// Committer is implemented by stores that can write a ChangeSet
// atomically. Stores without it get best-effort writes with compensation.
type Committer interface {
	Commit(ctx context.Context, cs ChangeSet) error
}
