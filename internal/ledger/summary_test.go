package ledger

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/brankas/brankas/internal/domain"
)

func date(y int, m time.Month, d int) civil.Date { return civil.Date{Year: y, Month: m, Day: d} }

func TestDashboardTotals(t *testing.T) {
	accounts := []domain.Account{
		{ID: "A", Balance: amount("1000")},
		{ID: "S", Balance: amount("400"), IsSavings: true},
		{ID: "E", Balance: amount("-50")},
	}
	got := DashboardTotals(accounts)
	if !got.Total.Equal(amount("1350")) || !got.Savings.Equal(amount("400")) || !got.Daily.Equal(amount("950")) {
		t.Errorf("unexpected totals: %+v", got)
	}
}

func TestAccountStats_CountsTransferLegs(t *testing.T) {
	txns := []domain.Transaction{
		{AccountID: "A", Amount: amount("500"), Type: domain.TypeIncome},
		{AccountID: "A", Amount: amount("-120"), Type: domain.TypeExpense},
		{AccountID: "A", Amount: amount("-80"), Type: domain.TypeTransfer, ToAccountID: "B", Leg: domain.LegOut},
		{AccountID: "A", Amount: amount("30"), Type: domain.TypeTransfer, Leg: domain.LegIn},
		{AccountID: "B", Amount: amount("80"), Type: domain.TypeTransfer, Leg: domain.LegIn},
	}
	got := AccountStats("A", txns)
	if got.Count != 4 || !got.Income.Equal(amount("530")) || !got.Expense.Equal(amount("200")) {
		t.Errorf("unexpected stats: %+v", got)
	}
}

func TestPeriodWindow(t *testing.T) {
	tests := []struct {
		period    Period
		today     civil.Date
		start     civil.Date
		prevStart civil.Date
	}{
		{Daily, date(2024, 3, 1), date(2024, 3, 1), date(2024, 2, 29)},
		// 2024-03-13 is a Wednesday.
		{Weekly, date(2024, 3, 13), date(2024, 3, 10), date(2024, 3, 3)},
		{Monthly, date(2024, 1, 20), date(2024, 1, 1), date(2023, 12, 1)},
		{Yearly, date(2024, 6, 5), date(2024, 1, 1), date(2023, 1, 1)},
		{Payroll, date(2024, 3, 28), date(2024, 3, 28), date(2024, 2, 28)},
		{Payroll, date(2024, 3, 27), date(2024, 2, 28), date(2024, 1, 28)},
		{Payroll, date(2024, 1, 5), date(2023, 12, 28), date(2023, 11, 28)},
	}
	for _, tt := range tests {
		t.Run(string(tt.period)+" "+tt.today.String(), func(t *testing.T) {
			start, prev := tt.period.Window(tt.today)
			if start != tt.start || prev != tt.prevStart {
				t.Errorf("Window = %s, %s; want %s, %s", start, prev, tt.start, tt.prevStart)
			}
		})
	}
}

func TestPeriodSummary(t *testing.T) {
	today := date(2024, 3, 15)
	txns := []domain.Transaction{
		{Date: date(2024, 3, 1), Amount: amount("1000"), Type: domain.TypeIncome},
		{Date: date(2024, 3, 10), Amount: amount("-300"), Type: domain.TypeExpense},
		{Date: date(2024, 2, 5), Amount: amount("800"), Type: domain.TypeIncome},
		{Date: date(2024, 2, 20), Amount: amount("-600"), Type: domain.TypeExpense},
		{Date: date(2024, 3, 11), Amount: amount("-999"), Type: domain.TypeTransfer},
		{Date: date(2024, 3, 12), Amount: amount("5000"), Type: domain.TypeDebt},
		{Date: date(2024, 1, 31), Amount: amount("7777"), Type: domain.TypeIncome},
	}

	got := PeriodSummary(Monthly, today, txns)
	checks := map[string][2]string{
		"income":          {got.Income.String(), "1000"},
		"expense":         {got.Expense.String(), "300"},
		"net":             {got.Net.String(), "700"},
		"previousIncome":  {got.PreviousIncome.String(), "800"},
		"previousExpense": {got.PreviousExpense.String(), "600"},
		"incomeChange":    {got.IncomeChange.String(), "25"},
		"expenseChange":   {got.ExpenseChange.String(), "-50"},
	}
	for field, c := range checks {
		if !amount(c[0]).Equal(amount(c[1])) {
			t.Errorf("%s = %s, want %s", field, c[0], c[1])
		}
	}
}

func TestPeriodSummary_NoPreviousData(t *testing.T) {
	got := PeriodSummary(Daily, date(2024, 3, 15), []domain.Transaction{
		{Date: date(2024, 3, 15), Amount: amount("10"), Type: domain.TypeIncome},
	})
	if !got.IncomeChange.IsZero() {
		t.Errorf("IncomeChange = %s, want 0", got.IncomeChange)
	}
}

func TestParsePeriod(t *testing.T) {
	if p, err := ParsePeriod(""); err != nil || p != Monthly {
		t.Errorf("empty period = %s, %v", p, err)
	}
	if _, err := ParsePeriod("fortnightly"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestGoalProgress(t *testing.T) {
	goal := domain.SavingsGoal{ID: "g", TargetAmount: amount("1000")}
	tests := []struct {
		name          string
		savings       string
		wantPercent   string
		wantRemaining string
		wantReached   bool
	}{
		{"partial", "250", "25", "750", false},
		{"exact", "1000", "100", "0", true},
		{"over target is capped", "1500", "100", "0", true},
		{"negative savings", "-10", "0", "1010", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := []domain.Account{
				{ID: "S", Balance: amount(tt.savings), IsSavings: true},
				{ID: "D", Balance: amount("99999")},
			}
			got := GoalProgress(goal, accounts)
			if !got.Percent.Equal(amount(tt.wantPercent)) || !got.Remaining.Equal(amount(tt.wantRemaining)) || got.Reached != tt.wantReached {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txns := []domain.Transaction{
		{Type: domain.TypeExpense, Category: "Makan", Amount: amount("-50")},
		{Type: domain.TypeExpense, Category: "Transport", Amount: amount("-120")},
		{Type: domain.TypeExpense, Category: "Makan", Amount: amount("-100")},
		{Type: domain.TypeExpense, Amount: amount("-5")},
		{Type: domain.TypeIncome, Category: "Gaji", Amount: amount("1000")},
	}
	got := CategoryBreakdown(txns, domain.TypeExpense)
	if len(got) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(got))
	}
	if got[0].Category != "Makan" || !got[0].Total.Equal(amount("150")) || got[0].Count != 2 {
		t.Errorf("first = %+v", got[0])
	}
	if got[2].Category != "Uncategorized" {
		t.Errorf("last = %+v", got[2])
	}
}
