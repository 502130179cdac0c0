package ledger

import (
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/brankas/brankas/internal/domain"
)

// SortField orders a transaction listing.
type SortField string

const (
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
)

// Filter selects and orders transactions for history views.
type Filter struct {
	Search    string
	AccountID string
	Category  string
	Type      domain.TransactionType
	From      *civil.Date
	To        *civil.Date
	Sort      SortField
	Desc      bool
	Limit     int
	Offset    int
}

// Validate rejects sort fields and ranges that cannot be applied.
func (f Filter) Validate() error {
	switch f.Sort {
	case "", SortByDate, SortByAmount, SortByDescription:
	default:
		return fmt.Errorf("%w: unknown sort field %q", domain.ErrInvalid, f.Sort)
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("%w: date range ends before it starts", domain.ErrInvalid)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return fmt.Errorf("%w: limit and offset cannot be negative", domain.ErrInvalid)
	}
	return nil
}

// Match reports whether t passes every set criterion. The account criterion
// matches either side of the record.
func (f Filter) Match(t domain.Transaction) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Search)) {
		return false
	}
	if f.AccountID != "" && t.AccountID != f.AccountID && t.ToAccountID != f.AccountID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.From != nil && t.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Date.After(*f.To) {
		return false
	}
	return true
}

// Apply returns the requested page and the number of matching records
// before paging. The input slice is not reordered.
func (f Filter) Apply(transactions []domain.Transaction) ([]domain.Transaction, int) {
	matched := make([]domain.Transaction, 0, len(transactions))
	for _, t := range transactions {
		if f.Match(t) {
			matched = append(matched, t)
		}
	}

	less := f.less()
	sort.SliceStable(matched, func(i, j int) bool {
		if f.Desc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	total := len(matched)
	if f.Offset >= total {
		return []domain.Transaction{}, total
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, total
}

func (f Filter) less() func(a, b domain.Transaction) bool {
	switch f.Sort {
	case SortByAmount:
		return func(a, b domain.Transaction) bool { return a.Amount.Abs().LessThan(b.Amount.Abs()) }
	case SortByDescription:
		return func(a, b domain.Transaction) bool {
			return strings.ToLower(a.Description) < strings.ToLower(b.Description)
		}
	default:
		return func(a, b domain.Transaction) bool {
			if a.Date != b.Date {
				return a.Date.Before(b.Date)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
}
