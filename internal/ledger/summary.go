package ledger

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Totals are the dashboard balance cards.
type Totals struct {
	Total   decimal.Decimal `json:"total"`
	Savings decimal.Decimal `json:"savings"`
	// Daily is what remains for everyday spending once savings are set aside.
	Daily decimal.Decimal `json:"daily"`
}

func DashboardTotals(accounts []domain.Account) Totals {
	var t Totals
	for _, a := range accounts {
		t.Total = t.Total.Add(a.Balance)
		if a.IsSavings {
			t.Savings = t.Savings.Add(a.Balance)
		}
	}
	t.Daily = t.Total.Sub(t.Savings)
	return t
}

// Stats summarises the records on one account. Incoming transfer legs count
// as income and outgoing legs as expense.
type Stats struct {
	AccountID string          `json:"accountId"`
	Income    decimal.Decimal `json:"income"`
	Expense   decimal.Decimal `json:"expense"`
	Count     int             `json:"count"`
}

func AccountStats(accountID string, transactions []domain.Transaction) Stats {
	s := Stats{AccountID: accountID}
	for _, t := range transactions {
		if t.AccountID != accountID {
			continue
		}
		s.Count++
		if t.Amount.IsPositive() {
			s.Income = s.Income.Add(t.Amount)
		} else {
			s.Expense = s.Expense.Add(t.Amount.Abs())
		}
	}
	return s
}

// Period selects the window for PeriodSummary.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
	Payroll Period = "payroll"
)

// PayrollDay is the day of month a payroll period starts.
const PayrollDay = 28

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly, Yearly, Payroll:
		return p, nil
	case "":
		return Monthly, nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", domain.ErrInvalid, s)
	}
}

// Window returns the start of the current period and of the one before it.
func (p Period) Window(today civil.Date) (start, prevStart civil.Date) {
	switch p {
	case Daily:
		return today, today.AddDays(-1)
	case Weekly:
		wd := int(today.In(time.UTC).Weekday())
		start = today.AddDays(-wd)
		return start, start.AddDays(-7)
	case Yearly:
		start = civil.Date{Year: today.Year, Month: time.January, Day: 1}
		return start, civil.Date{Year: today.Year - 1, Month: time.January, Day: 1}
	case Payroll:
		start = dayInMonth(today.Year, today.Month, PayrollDay)
		if today.Day < PayrollDay {
			start = dayInMonth(today.Year, today.Month-1, PayrollDay)
		}
		return start, dayInMonth(start.Year, start.Month-1, PayrollDay)
	default:
		start = civil.Date{Year: today.Year, Month: today.Month, Day: 1}
		return start, dayInMonth(today.Year, today.Month-1, 1)
	}
}

// dayInMonth normalises month underflow, e.g. month 0 is December of the
// previous year.
func dayInMonth(year int, month time.Month, day int) civil.Date {
	return civil.DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Summary compares income and expense between the current and previous period.
type Summary struct {
	Period          Period          `json:"period"`
	Start           civil.Date      `json:"start"`
	PreviousStart   civil.Date      `json:"previousStart"`
	Income          decimal.Decimal `json:"income"`
	Expense         decimal.Decimal `json:"expense"`
	Net             decimal.Decimal `json:"net"`
	PreviousIncome  decimal.Decimal `json:"previousIncome"`
	PreviousExpense decimal.Decimal `json:"previousExpense"`
	IncomeChange    decimal.Decimal `json:"incomeChange"`
	ExpenseChange   decimal.Decimal `json:"expenseChange"`
}

// PeriodSummary sums income and expense records. Transfers and debt records
// are not counted; they move money without earning or spending it.
func PeriodSummary(p Period, today civil.Date, transactions []domain.Transaction) Summary {
	start, prevStart := p.Window(today)
	s := Summary{Period: p, Start: start, PreviousStart: prevStart}

	for _, t := range transactions {
		if t.Type != domain.TypeIncome && t.Type != domain.TypeExpense {
			continue
		}
		current := !t.Date.Before(start)
		previous := !current && !t.Date.Before(prevStart)
		if !current && !previous {
			continue
		}
		switch {
		case t.Type == domain.TypeIncome && current:
			s.Income = s.Income.Add(t.Amount)
		case t.Type == domain.TypeIncome:
			s.PreviousIncome = s.PreviousIncome.Add(t.Amount)
		case current:
			s.Expense = s.Expense.Add(t.Amount)
		default:
			s.PreviousExpense = s.PreviousExpense.Add(t.Amount)
		}
	}
	s.Expense = s.Expense.Abs()
	s.PreviousExpense = s.PreviousExpense.Abs()
	s.Net = s.Income.Sub(s.Expense)
	s.IncomeChange = percentChange(s.PreviousIncome, s.Income)
	s.ExpenseChange = percentChange(s.PreviousExpense, s.Expense)
	return s
}

func percentChange(prev, cur decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(hundred).Round(2)
}

// Progress is how far the savings accounts are towards a goal.
type Progress struct {
	GoalID    string          `json:"goalId"`
	Saved     decimal.Decimal `json:"saved"`
	Percent   decimal.Decimal `json:"percent"`
	Remaining decimal.Decimal `json:"remaining"`
	Reached   bool            `json:"reached"`
}

func GoalProgress(goal domain.SavingsGoal, accounts []domain.Account) Progress {
	saved := DashboardTotals(accounts).Savings
	p := Progress{GoalID: goal.ID, Saved: saved}
	if goal.TargetAmount.IsPositive() {
		p.Percent = decimal.Min(saved.Div(goal.TargetAmount).Mul(hundred), hundred).Round(2)
		if p.Percent.IsNegative() {
			p.Percent = decimal.Zero
		}
	}
	p.Remaining = decimal.Max(goal.TargetAmount.Sub(saved), decimal.Zero)
	p.Reached = p.Remaining.IsZero()
	return p
}

// CategoryTotal is one slice of a spending or income breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// CategoryBreakdown totals records of one type per category, largest first.
func CategoryBreakdown(transactions []domain.Transaction, typ domain.TransactionType) []CategoryTotal {
	idx := make(map[string]int)
	var out []CategoryTotal
	for _, t := range transactions {
		if t.Type != typ {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		i, ok := idx[cat]
		if !ok {
			i = len(out)
			idx[cat] = i
			out = append(out, CategoryTotal{Category: cat})
		}
		out[i].Total = out[i].Total.Add(t.Amount.Abs())
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}
