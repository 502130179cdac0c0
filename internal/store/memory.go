package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/brankas/brankas/internal/domain"
)

// Memory is an in-process Store. It is safe for concurrent use and loses
// its data on restart; use it for tests and local demos.
type Memory struct {
	mu           sync.RWMutex
	accounts     map[string]domain.Account
	accountOrder []string
	transactions map[string]domain.Transaction
	debts        map[string]domain.Debt
	goals        map[string]domain.SavingsGoal
	receipts     map[string]domain.Receipt
}

func NewMemory() *Memory {
	return &Memory{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
		debts:        make(map[string]domain.Debt),
		goals:        make(map[string]domain.SavingsGoal),
		receipts:     make(map[string]domain.Receipt),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Account, 0, len(m.accountOrder))
	for _, id := range m.accountOrder {
		out = append(out, m.accounts[id])
	}
	return out, nil
}

func (m *Memory) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *Memory) InsertAccount(ctx context.Context, a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[a.ID]; exists {
		return fmt.Errorf("account %s already exists: %w", a.ID, ErrConflict)
	}
	m.accounts[a.ID] = a
	m.accountOrder = append(m.accountOrder, a.ID)
	return nil
}

func (m *Memory) UpdateAccount(ctx context.Context, a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateAccountLocked(a)
}

func (m *Memory) updateAccountLocked(a domain.Account) error {
	if _, ok := m.accounts[a.ID]; !ok {
		return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
	}
	m.accounts[a.ID] = a
	return nil
}

// DeleteAccount refuses to remove an account still referenced by a transaction.
func (m *Memory) DeleteAccount(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	for _, t := range m.transactions {
		if t.AccountID == id || t.ToAccountID == id {
			return fmt.Errorf("account %s has transactions: %w", id, ErrConflict)
		}
	}
	delete(m.accounts, id)
	for i, v := range m.accountOrder {
		if v == id {
			m.accountOrder = append(m.accountOrder[:i], m.accountOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) ListTransactions(ctx context.Context, q TransactionQuery) ([]domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(m.transactions))
	for _, t := range m.transactions {
		if q.AccountID != "" && t.AccountID != q.AccountID {
			continue
		}
		if q.TransferGroupID != "" && t.TransferGroupID != q.TransferGroupID {
			continue
		}
		if q.ClientRef != "" && t.ClientRef != q.ClientRef {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.transactions[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (m *Memory) InsertTransactions(ctx context.Context, txns []domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertTransactionsLocked(txns)
}

func (m *Memory) insertTransactionsLocked(txns []domain.Transaction) error {
	for _, t := range txns {
		if _, exists := m.transactions[t.ID]; exists {
			return fmt.Errorf("transaction %s already exists: %w", t.ID, ErrConflict)
		}
	}
	for _, t := range txns {
		m.transactions[t.ID] = t
	}
	return nil
}

func (m *Memory) UpdateTransaction(ctx context.Context, t domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTransactionLocked(t)
}

func (m *Memory) updateTransactionLocked(t domain.Transaction) error {
	if _, ok := m.transactions[t.ID]; !ok {
		return fmt.Errorf("transaction %s: %w", t.ID, ErrNotFound)
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *Memory) DeleteTransactions(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.transactions, id)
	}
	return nil
}

// Commit applies the change set under a single lock. It validates every
// row first so a failure leaves the store untouched.
func (m *Memory) Commit(ctx context.Context, cs ChangeSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range cs.Insert {
		if _, exists := m.transactions[t.ID]; exists {
			return fmt.Errorf("transaction %s already exists: %w", t.ID, ErrConflict)
		}
	}
	for _, t := range cs.Update {
		if _, ok := m.transactions[t.ID]; !ok {
			return fmt.Errorf("transaction %s: %w", t.ID, ErrNotFound)
		}
	}
	for _, a := range cs.Accounts {
		if _, ok := m.accounts[a.ID]; !ok {
			return fmt.Errorf("account %s: %w", a.ID, ErrNotFound)
		}
	}

	for _, id := range cs.Delete {
		delete(m.transactions, id)
	}
	for _, t := range cs.Insert {
		m.transactions[t.ID] = t
	}
	for _, t := range cs.Update {
		m.transactions[t.ID] = t
	}
	for _, a := range cs.Accounts {
		m.accounts[a.ID] = a
	}
	return nil
}

func (m *Memory) ListDebts(ctx context.Context, activeOnly bool) ([]domain.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Debt
	for _, d := range m.debts {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetDebt(ctx context.Context, id string) (domain.Debt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.debts[id]
	if !ok {
		return domain.Debt{}, fmt.Errorf("debt %s: %w", id, ErrNotFound)
	}
	return d, nil
}

func (m *Memory) InsertDebt(ctx context.Context, d domain.Debt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.debts[d.ID]; exists {
		return fmt.Errorf("debt %s already exists: %w", d.ID, ErrConflict)
	}
	m.debts[d.ID] = d
	return nil
}

func (m *Memory) UpdateDebt(ctx context.Context, d domain.Debt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.debts[d.ID]; !ok {
		return fmt.Errorf("debt %s: %w", d.ID, ErrNotFound)
	}
	m.debts[d.ID] = d
	return nil
}

func (m *Memory) DeleteDebt(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.debts[id]; !ok {
		return fmt.Errorf("debt %s: %w", id, ErrNotFound)
	}
	delete(m.debts, id)
	return nil
}

func (m *Memory) ListGoals(ctx context.Context, activeOnly bool) ([]domain.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.SavingsGoal
	for _, g := range m.goals {
		if activeOnly && !g.IsActive {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetGoal(ctx context.Context, id string) (domain.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.goals[id]
	if !ok {
		return domain.SavingsGoal{}, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g, nil
}

func (m *Memory) InsertGoal(ctx context.Context, g domain.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.goals[g.ID]; exists {
		return fmt.Errorf("goal %s already exists: %w", g.ID, ErrConflict)
	}
	m.goals[g.ID] = g
	return nil
}

func (m *Memory) UpdateGoal(ctx context.Context, g domain.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.goals[g.ID]; !ok {
		return fmt.Errorf("goal %s: %w", g.ID, ErrNotFound)
	}
	m.goals[g.ID] = g
	return nil
}

func (m *Memory) DeleteGoal(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.goals[id]; !ok {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	delete(m.goals, id)
	return nil
}

func (m *Memory) InsertReceipt(ctx context.Context, r domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.receipts[r.ID]; exists {
		return fmt.Errorf("receipt %s already exists: %w", r.ID, ErrConflict)
	}
	m.receipts[r.ID] = r
	return nil
}

func (m *Memory) GetReceipt(ctx context.Context, id string) (domain.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.receipts[id]
	if !ok {
		return domain.Receipt{}, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	return r, nil
}

func (m *Memory) UpdateReceipt(ctx context.Context, r domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.receipts[r.ID]; !ok {
		return fmt.Errorf("receipt %s: %w", r.ID, ErrNotFound)
	}
	m.receipts[r.ID] = r
	return nil
}

func (m *Memory) ListReceipts(ctx context.Context, transactionID string) ([]domain.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Receipt
	for _, r := range m.receipts {
		if transactionID != "" && r.TransactionID != transactionID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var (
	_ Store     = (*Memory)(nil)
	_ Committer = (*Memory)(nil)
)
