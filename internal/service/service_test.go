package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/cache"
	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newTestLedger seeds st with a spending account, an e-wallet and a savings
// account.
func newTestLedger(t *testing.T, st store.Store, opts ...Option) *Ledger {
	t.Helper()
	n := 0
	engine := ledger.NewEngine(
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	seed := []domain.Account{
		{ID: "A", Name: "BCA", Kind: domain.KindBank, Balance: amount("1000000")},
		{ID: "B", Name: "GoPay", Kind: domain.KindEWallet, Balance: decimal.Zero},
		{ID: "S", Name: "Tabungan", Kind: domain.KindBank, Balance: amount("500000"), IsSavings: true},
	}
	for _, a := range seed {
		if err := st.InsertAccount(context.Background(), a); err != nil {
			t.Fatalf("seeding %s: %v", a.ID, err)
		}
	}
	return New(st, engine, append([]Option{WithClock(func() time.Time { return testNow })}, opts...)...)
}

func balance(t *testing.T, st store.Store, id string) decimal.Decimal {
	t.Helper()
	a, err := st.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccount(%s): %v", id, err)
	}
	return a.Balance
}

func assertBalance(t *testing.T, st store.Store, id, want string) {
	t.Helper()
	if got := balance(t, st, id); !got.Equal(amount(want)) {
		t.Errorf("balance of %s = %s, want %s", id, got, want)
	}
}

func TestTransfer_BooksBothLegs(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	res, err := l.Transfer(ctx, domain.TransferRequest{
		FromAccountID: "A", ToAccountID: "B", Amount: amount("200000"), Description: "Top up",
	})
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if !res.Success {
		t.Fatalf("Transfer() refused: %s", res.Message)
	}

	assertBalance(t, st, "A", "800000")
	assertBalance(t, st, "B", "200000")
	assertBalance(t, st, "S", "500000")

	legs, _ := st.ListTransactions(ctx, store.TransactionQuery{TransferGroupID: res.Transactions[0].TransferGroupID})
	if len(legs) != 2 {
		t.Fatalf("stored %d legs, want 2", len(legs))
	}
}

func TestTransfer_RefusalLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	res, err := l.Transfer(ctx, domain.TransferRequest{FromAccountID: "B", ToAccountID: "A", Amount: amount("1")})
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if res.Success || res.Kind != ledger.InsufficientFunds {
		t.Fatalf("result = %+v, want InsufficientFunds", res)
	}

	txns, _ := st.ListTransactions(ctx, store.TransactionQuery{})
	if len(txns) != 0 {
		t.Errorf("stored %d transactions, want 0", len(txns))
	}
	assertBalance(t, st, "A", "1000000")
	assertBalance(t, st, "B", "0")
}

func TestTransfer_DuplicateClientRef(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	req := domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: amount("1000"), ClientRef: "tap-1"}
	if res, _ := l.Transfer(ctx, req); !res.Success {
		t.Fatalf("first transfer refused: %s", res.Message)
	}
	res, err := l.Transfer(ctx, req)
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if res.Kind != ledger.DuplicateTransfer {
		t.Errorf("Kind = %q, want %q", res.Kind, ledger.DuplicateTransfer)
	}
	assertBalance(t, st, "A", "999000")
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	txn, err := l.CreateTransaction(ctx, domain.TransactionInput{
		Description: "Lunch", Amount: amount("50000"), Type: "expense", Category: "Food", AccountID: "A",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if !txn.Amount.Equal(amount("-50000")) || txn.ID == "" {
		t.Errorf("unexpected transaction: %+v", txn)
	}
	assertBalance(t, st, "A", "950000")

	_, err = l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("1"), Type: "expense", Category: "Food", AccountID: "B",
	})
	if kind, _ := ledger.KindOf(err); kind != ledger.InsufficientFunds {
		t.Errorf("overdraft error = %v, want InsufficientFunds", err)
	}

	_, err = l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("1"), Type: "transfer", Category: "Mutasi", AccountID: "A",
	})
	if !errors.Is(err, domain.ErrInvalid) {
		t.Errorf("direct transfer error = %v, want ErrInvalid", err)
	}
}

func TestUpdateTransaction_MovesDifference(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	txn, err := l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("50000"), Type: "expense", Category: "Food", AccountID: "A",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	updated, err := l.UpdateTransaction(ctx, txn.ID, domain.TransactionInput{
		Amount: amount("80000"), Type: "expense", Category: "Food", AccountID: "A",
	})
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if updated.Date != txn.Date || !updated.CreatedAt.Equal(txn.CreatedAt) {
		t.Errorf("date or creation time changed: %+v", updated)
	}
	assertBalance(t, st, "A", "920000")

	// Moving the expense to the empty e-wallet would overdraw it.
	_, err = l.UpdateTransaction(ctx, txn.ID, domain.TransactionInput{
		Amount: amount("80000"), Type: "expense", Category: "Food", AccountID: "B",
	})
	if kind, _ := ledger.KindOf(err); kind != ledger.InsufficientFunds {
		t.Errorf("error = %v, want InsufficientFunds", err)
	}
	assertBalance(t, st, "A", "920000")
	assertBalance(t, st, "B", "0")
}

func TestUpdateTransaction_TransferLegMetadataOnly(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	res, _ := l.Transfer(ctx, domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: amount("200000")})
	out := res.Transactions[0]

	if _, err := l.UpdateTransaction(ctx, out.ID, domain.TransactionInput{Description: "Top up GoPay", Date: "2024-03-14"}); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	legs, _ := st.ListTransactions(ctx, store.TransactionQuery{TransferGroupID: out.TransferGroupID})
	for _, leg := range legs {
		if leg.Description != "Top up GoPay" || leg.Date.String() != "2024-03-14" {
			t.Errorf("leg %s = %q on %s, want both legs updated", leg.ID, leg.Description, leg.Date)
		}
	}

	_, err := l.UpdateTransaction(ctx, out.ID, domain.TransactionInput{Amount: amount("300000")})
	if kind, _ := ledger.KindOf(err); kind != ledger.InvalidAmount {
		t.Errorf("amount edit error = %v, want InvalidAmount", err)
	}
	assertBalance(t, st, "A", "800000")
	assertBalance(t, st, "B", "200000")
}

func TestDeleteTransaction_TransferRemovesBothLegs(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	res, _ := l.Transfer(ctx, domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: amount("200000")})

	ids, err := l.DeleteTransaction(ctx, res.Transactions[1].ID)
	if err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("deleted %v, want both legs", ids)
	}
	assertBalance(t, st, "A", "1000000")
	assertBalance(t, st, "B", "0")

	if _, err := l.DeleteTransaction(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestToggleStruck(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	txn, _ := l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("1000"), Type: "income", Category: "Salary", AccountID: "A",
	})
	got, err := l.ToggleStruck(ctx, txn.ID)
	if err != nil {
		t.Fatalf("ToggleStruck() error = %v", err)
	}
	if !got.Struck {
		t.Error("Struck = false, want true")
	}
	assertBalance(t, st, "A", "1001000")
}

func TestAccounts_UpdateKeepsBalanceAndDeleteRestricts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	a, err := l.UpdateAccount(ctx, "A", domain.Account{Name: "BCA Utama", Kind: domain.KindBank, Balance: amount("1")})
	if err != nil {
		t.Fatalf("UpdateAccount() error = %v", err)
	}
	if a.Name != "BCA Utama" || !a.Balance.Equal(amount("1000000")) {
		t.Errorf("account = %+v, want renamed with balance kept", a)
	}

	created, err := l.CreateAccount(ctx, domain.Account{Name: "OVO", Kind: domain.KindEWallet, Balance: amount("25000")})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	assertBalance(t, st, created.ID, "25000")

	if _, err := l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("1000"), Type: "expense", Category: "Food", AccountID: created.ID,
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if err := l.DeleteAccount(ctx, created.ID); !errors.Is(err, store.ErrConflict) {
		t.Errorf("DeleteAccount() error = %v, want ErrConflict", err)
	}
	if err := l.DeleteAccount(ctx, "B"); err != nil {
		t.Errorf("DeleteAccount(B) error = %v", err)
	}
}

func TestDashboard_InvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	c, err := cache.New()
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	defer c.Close()
	st := store.NewMemory()
	l := newTestLedger(t, st, WithCache(c))

	d, err := l.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if !d.Totals.Total.Equal(amount("1500000")) || !d.Totals.Savings.Equal(amount("500000")) || !d.Totals.Daily.Equal(amount("1000000")) {
		t.Errorf("totals = %+v", d.Totals)
	}

	if _, err := l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("100000"), Type: "income", Category: "Salary", AccountID: "A",
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}

	d, err = l.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if !d.Totals.Total.Equal(amount("1600000")) {
		t.Errorf("total after income = %s, want 1600000", d.Totals.Total)
	}
	if d.Accounts[0].Stats.Count != 1 {
		t.Errorf("stats of A = %+v, want one record", d.Accounts[0].Stats)
	}
}

func TestPeriodSummary(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	for _, in := range []domain.TransactionInput{
		{Date: "2024-03-10", Amount: amount("100000"), Type: "income", Category: "Salary", AccountID: "A"},
		{Date: "2024-03-12", Amount: amount("40000"), Type: "expense", Category: "Food", AccountID: "A"},
		{Date: "2024-02-20", Amount: amount("50000"), Type: "income", Category: "Salary", AccountID: "A"},
	} {
		if _, err := l.CreateTransaction(ctx, in); err != nil {
			t.Fatalf("CreateTransaction() error = %v", err)
		}
	}
	if _, err := l.Transfer(ctx, domain.TransferRequest{FromAccountID: "A", ToAccountID: "S", Amount: amount("10000")}); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	s, err := l.PeriodSummary(ctx, "")
	if err != nil {
		t.Fatalf("PeriodSummary() error = %v", err)
	}
	if !s.Income.Equal(amount("100000")) || !s.Expense.Equal(amount("40000")) || !s.PreviousIncome.Equal(amount("50000")) {
		t.Errorf("summary = %+v", s)
	}
	if !s.IncomeChange.Equal(amount("100")) {
		t.Errorf("IncomeChange = %s, want 100", s.IncomeChange)
	}

	if _, err := l.PeriodSummary(ctx, "fortnightly"); !errors.Is(err, domain.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}

func TestGoalProgress(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	g, err := l.CreateGoal(ctx, domain.SavingsGoal{Name: "Emergency fund", TargetAmount: amount("2000000"), IsActive: true})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	p, err := l.GoalProgress(ctx, g.ID)
	if err != nil {
		t.Fatalf("GoalProgress() error = %v", err)
	}
	if !p.Percent.Equal(amount("25")) || !p.Remaining.Equal(amount("1500000")) {
		t.Errorf("progress = %+v", p)
	}
}

func TestCreateDebt_DefaultsRemaining(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, store.NewMemory())

	d, err := l.CreateDebt(ctx, domain.Debt{Name: "KTA", TotalAmount: amount("3000000"), IsActive: true})
	if err != nil {
		t.Fatalf("CreateDebt() error = %v", err)
	}
	if !d.RemainingAmount.Equal(d.TotalAmount) {
		t.Errorf("RemainingAmount = %s, want %s", d.RemainingAmount, d.TotalAmount)
	}

	debts, _ := l.Debts(ctx, true)
	if len(debts) != 1 {
		t.Errorf("active debts = %d, want 1", len(debts))
	}
}

// gatedStore holds the first ListTransactions call until release is closed.
type gatedStore struct {
	*store.Memory

	mu      sync.Mutex
	gate    chan struct{}
	entered chan struct{}
}

func (s *gatedStore) ListTransactions(ctx context.Context, q store.TransactionQuery) ([]domain.Transaction, error) {
	s.mu.Lock()
	gate := s.gate
	s.gate = nil
	s.mu.Unlock()
	if gate != nil {
		close(s.entered)
		<-gate
	}
	return s.Memory.ListTransactions(ctx, q)
}

func TestDashboard_WriteDuringReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	c, err := cache.New()
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	defer c.Close()
	release := make(chan struct{})
	st := &gatedStore{Memory: store.NewMemory(), gate: release, entered: make(chan struct{})}
	l := newTestLedger(t, st, WithCache(c))

	done := make(chan error, 1)
	go func() {
		_, err := l.Dashboard(ctx)
		done <- err
	}()
	<-st.entered

	if _, err := l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("250000"), Type: "income", Category: "Salary", AccountID: "A",
	}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	d, err := l.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if !d.Totals.Total.Equal(amount("1750000")) {
		t.Errorf("total after income = %s, want 1750000", d.Totals.Total)
	}
	accounts, err := l.Accounts(ctx)
	if err != nil {
		t.Fatalf("Accounts() error = %v", err)
	}
	if !accounts[0].Balance.Equal(amount("1250000")) {
		t.Errorf("cached balance of A = %s, want 1250000", accounts[0].Balance)
	}
}

func TestUpdateTransaction_KeepsAttachedReceipt(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	l := newTestLedger(t, st)

	txn, err := l.CreateTransaction(ctx, domain.TransactionInput{
		Amount: amount("50000"), Type: "expense", Category: "Food", AccountID: "A",
	})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	const uri = "gs://receipts/receipts/r1/struk.jpg"
	if err := l.AttachReceipt(ctx, txn.ID, uri); err != nil {
		t.Fatalf("AttachReceipt() error = %v", err)
	}

	updated, err := l.UpdateTransaction(ctx, txn.ID, domain.TransactionInput{
		Description: "Lunch", Amount: amount("60000"), Type: "expense", Category: "Food", AccountID: "A",
	})
	if err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if updated.ReceiptURL != uri {
		t.Errorf("ReceiptURL = %q, want %q", updated.ReceiptURL, uri)
	}

	res, _ := l.Transfer(ctx, domain.TransferRequest{FromAccountID: "A", ToAccountID: "B", Amount: amount("1000")})
	leg := res.Transactions[0]
	if err := l.AttachReceipt(ctx, leg.ID, uri); err != nil {
		t.Fatalf("AttachReceipt() error = %v", err)
	}
	updated, err = l.UpdateTransaction(ctx, leg.ID, domain.TransactionInput{Description: "Top up"})
	if err != nil {
		t.Fatalf("UpdateTransaction(leg) error = %v", err)
	}
	if updated.ReceiptURL != uri {
		t.Errorf("leg ReceiptURL = %q, want %q", updated.ReceiptURL, uri)
	}
}
