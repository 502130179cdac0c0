package ledger

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/brankas/brankas/internal/domain"
)

func filterFixture() []domain.Transaction {
	return []domain.Transaction{
		{ID: "1", Date: date(2024, 3, 1), Description: "Gaji Maret", Amount: amount("5000000"), Type: domain.TypeIncome, Category: "Gaji", AccountID: "A"},
		{ID: "2", Date: date(2024, 3, 2), Description: "Makan siang", Amount: amount("-45000"), Type: domain.TypeExpense, Category: "Makan", AccountID: "B"},
		{ID: "3", Date: date(2024, 3, 3), Description: "Top up GoPay", Amount: amount("-200000"), Type: domain.TypeTransfer, Category: "Mutasi", AccountID: "A", ToAccountID: "B"},
		{ID: "4", Date: date(2024, 3, 3), Description: "Top up GoPay", Amount: amount("200000"), Type: domain.TypeTransfer, Category: "Mutasi", AccountID: "B"},
		{ID: "5", Date: date(2024, 3, 5), Description: "makan malam", Amount: amount("-80000"), Type: domain.TypeExpense, Category: "Makan", AccountID: "A"},
	}
}

func ids(txns []domain.Transaction) string {
	s := ""
	for _, t := range txns {
		s += t.ID
	}
	return s
}

func TestFilterApply(t *testing.T) {
	from := date(2024, 3, 2)
	to := date(2024, 3, 3)

	tests := []struct {
		name      string
		filter    Filter
		wantIDs   string
		wantTotal int
	}{
		{"all by date", Filter{}, "12345", 5},
		{"newest first", Filter{Desc: true}, "53421", 5},
		{"search is case-insensitive", Filter{Search: "MAKAN"}, "25", 2},
		{"account matches destination too", Filter{AccountID: "B"}, "234", 3},
		{"category", Filter{Category: "makan"}, "25", 2},
		{"type", Filter{Type: domain.TypeTransfer}, "34", 2},
		{"date range inclusive", Filter{From: &from, To: &to}, "234", 3},
		{"sort by absolute amount", Filter{Sort: SortByAmount}, "25341", 5},
		{"sort by description desc", Filter{Sort: SortByDescription, Desc: true}, "34251", 5},
		{"paged", Filter{Limit: 2, Offset: 1}, "23", 5},
		{"offset past end", Filter{Offset: 10}, "", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, total := tt.filter.Apply(filterFixture())
			if got := ids(page); got != tt.wantIDs {
				t.Errorf("ids = %q, want %q", got, tt.wantIDs)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	from := civil.Date{Year: 2024, Month: 3, Day: 5}
	to := civil.Date{Year: 2024, Month: 3, Day: 1}

	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"empty", Filter{}, false},
		{"bad sort", Filter{Sort: "category"}, true},
		{"reversed range", Filter{From: &from, To: &to}, true},
		{"negative limit", Filter{Limit: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.filter.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
