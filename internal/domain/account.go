package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind is the kind of money holder an account represents.
type AccountKind string

const (
	KindBank    AccountKind = "bank"
	KindEWallet AccountKind = "ewallet"
)

// ParseAccountKind accepts "bank", "ewallet" and the older "e-wallet" spelling.
func ParseAccountKind(s string) (AccountKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bank":
		return KindBank, nil
	case "ewallet", "e-wallet":
		return KindEWallet, nil
	default:
		return "", fmt.Errorf("%w: unknown account type %q", ErrInvalid, s)
	}
}

// UnmarshalText normalizes the kind when decoding JSON or form input.
func (k *AccountKind) UnmarshalText(b []byte) error {
	kind, err := ParseAccountKind(string(b))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Account is a bank account or e-wallet with a running balance.
// Balance changes only through ledger entries.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      AccountKind     `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	IsSavings bool            `json:"isSavings"`
	Color     string          `json:"color"`
	CreatedAt time.Time       `json:"createdAt,omitzero"`
}

// Validate checks the user-editable fields of an account.
func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: account name is required", ErrInvalid)
	}
	if _, err := ParseAccountKind(string(a.Kind)); err != nil {
		return err
	}
	return nil
}

// CloneAccounts returns a copy of the slice so callers can modify balances
// without touching the caller's snapshot.
func CloneAccounts(accounts []Account) []Account {
	if accounts == nil {
		return nil
	}
	out := make([]Account, len(accounts))
	copy(out, accounts)
	return out
}

// TotalBalance sums the balances of all accounts.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// FindAccount returns the index of the account with the given id, or -1.
func FindAccount(accounts []Account, id string) int {
	for i := range accounts {
		if accounts[i].ID == id {
			return i
		}
	}
	return -1
}
