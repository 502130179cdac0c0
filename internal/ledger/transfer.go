package ledger

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/domain"
)

// Policy holds the product rules the engine enforces.
type Policy struct {
	// AllowOverdraft lets transfers and expenses take an account below zero.
	AllowOverdraft bool
}

// Engine validates and computes ledger changes. It keeps no state between
// calls and never modifies the slices it is given.
type Engine struct {
	policy Policy
	now    func() time.Time
	newID  func() string
	log    zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithPolicy(p Policy) Option { return func(e *Engine) { e.policy = p } }

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

func WithIDGenerator(newID func() string) Option { return func(e *Engine) { e.newID = newID } }

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "ledger").Logger() }
}

// NewEngine returns an engine that refuses overdrafts unless configured otherwise.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:   time.Now,
		newID: uuid.NewString,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the rules this engine enforces.
func (e *Engine) Policy() Policy { return e.policy }

// Today is the engine clock's current date.
func (e *Engine) Today() civil.Date { return civil.DateOf(e.now()) }

// NewID returns a fresh record identifier.
func (e *Engine) NewID() string { return e.newID() }

// TransferResult is the outcome of ProcessTransfer. On success it holds the
// debit and credit legs, in that order, and the full updated account list.
type TransferResult struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	Kind            FailureKind          `json:"kind,omitempty"`
	Transactions    []domain.Transaction `json:"transactions,omitempty"`
	UpdatedAccounts []domain.Account     `json:"updatedAccounts,omitempty"`
}

// Err returns the refusal as an error, or nil on success.
func (r TransferResult) Err() error {
	if r.Success {
		return nil
	}
	return &TransferError{Kind: r.Kind, Message: r.Message}
}

// Failed builds a refused result from a TransferError.
func Failed(te *TransferError) TransferResult {
	return TransferResult{Success: false, Message: te.Message, Kind: te.Kind}
}

// ProcessTransfer moves req.Amount from one account to another.
//
// Checks run in order and the first failure is returned: both accounts
// exist, they differ, the amount is positive, the source can cover it, and
// the client reference has not been used. A refusal is reported in the
// result; the returned error is reserved for malformed snapshots.
func (e *Engine) ProcessTransfer(req domain.TransferRequest, accounts []domain.Account, transactions []domain.Transaction) (TransferResult, error) {
	if err := checkSnapshot(accounts); err != nil {
		return TransferResult{}, err
	}

	from := domain.FindAccount(accounts, req.FromAccountID)
	if from < 0 {
		return Failed(refuse(AccountNotFound, "source account %q not found", req.FromAccountID)), nil
	}
	to := domain.FindAccount(accounts, req.ToAccountID)
	if to < 0 {
		return Failed(refuse(AccountNotFound, "destination account %q not found", req.ToAccountID)), nil
	}
	if from == to {
		return Failed(refuse(SameAccount, "source and destination accounts must be different")), nil
	}
	if !req.Amount.IsPositive() {
		return Failed(refuse(InvalidAmount, "transfer amount must be greater than zero, got %s", req.Amount)), nil
	}
	if !e.policy.AllowOverdraft && accounts[from].Balance.LessThan(req.Amount) {
		return Failed(refuse(InsufficientFunds, "insufficient funds in %s: balance %s, requested %s",
			accounts[from].Name, accounts[from].Balance, req.Amount)), nil
	}
	if req.ClientRef != "" {
		for _, t := range transactions {
			if t.IsTransferLeg() && t.ClientRef == req.ClientRef {
				return Failed(refuse(DuplicateTransfer, "transfer %q was already recorded", req.ClientRef)), nil
			}
		}
	}

	date := e.Today()
	if req.Date != nil {
		date = *req.Date
	}
	now := e.now().UTC()
	group := e.newID()

	debit := domain.Transaction{
		ID:              e.newID(),
		Date:            date,
		Description:     req.Description,
		Amount:          req.Amount.Neg(),
		Type:            domain.TypeTransfer,
		Category:        domain.TransferCategory,
		Subcategory:     req.Subcategory,
		AccountID:       req.FromAccountID,
		ToAccountID:     req.ToAccountID,
		TransferGroupID: group,
		Leg:             domain.LegOut,
		ClientRef:       req.ClientRef,
		CreatedAt:       now,
	}
	credit := debit
	credit.ID = e.newID()
	credit.Amount = req.Amount
	credit.AccountID = req.ToAccountID
	credit.ToAccountID = ""
	credit.Leg = domain.LegIn

	updated := domain.CloneAccounts(accounts)
	updated[from].Balance = updated[from].Balance.Sub(req.Amount)
	updated[to].Balance = updated[to].Balance.Add(req.Amount)

	e.log.Debug().
		Str("transfer_group_id", group).
		Str("from", req.FromAccountID).
		Str("to", req.ToAccountID).
		Str("amount", req.Amount.String()).
		Msg("Transfer computed")

	return TransferResult{
		Success: true,
		Message: fmt.Sprintf("transferred %s from %s to %s",
			req.Amount, accounts[from].Name, accounts[to].Name),
		Transactions:    []domain.Transaction{debit, credit},
		UpdatedAccounts: updated,
	}, nil
}

func checkSnapshot(accounts []domain.Account) error {
	seen := make(map[string]struct{}, len(accounts))
	for i, a := range accounts {
		if a.ID == "" {
			return fmt.Errorf("%w: account at index %d has no id", ErrCorruptSnapshot, i)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: account id %q appears more than once", ErrCorruptSnapshot, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}
