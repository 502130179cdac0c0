package bigquery

import (
	"math/big"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/domain"
)

func TestFromRat_KeepsNumericScale(t *testing.T) {
	tests := []struct {
		in   *big.Rat
		want string
	}{
		{big.NewRat(-200000, 1), "-200000"},
		{big.NewRat(1, 3), "0.333333333"},
		{big.NewRat(125, 100), "1.25"},
		{nil, "0"},
	}
	for _, tt := range tests {
		got := fromRat(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("fromRat(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestTransactionRow_TransferLegMapping(t *testing.T) {
	leg := domain.Transaction{
		ID:              "t1",
		Date:            civil.Date{Year: 2024, Month: 3, Day: 28},
		Description:     "Top up",
		Amount:          decimal.RequireFromString("-200000.50"),
		Type:            domain.TypeTransfer,
		Category:        domain.TransferCategory,
		AccountID:       "A",
		ToAccountID:     "B",
		TransferGroupID: "g1",
		Leg:             domain.LegOut,
	}

	row := transactionToRow(leg)
	if !row.ToAccountID.Valid || row.ToAccountID.StringVal != "B" {
		t.Errorf("to_account_id = %+v", row.ToAccountID)
	}
	if row.SubcategoryName.Valid || row.ReceiptURL.Valid || row.ClientRef.Valid {
		t.Error("empty optional fields should map to NULL")
	}

	back := row.toDomain()
	if back.ID != leg.ID || back.ToAccountID != "B" || back.TransferGroupID != "g1" || back.Leg != domain.LegOut {
		t.Errorf("unexpected mapping: %+v", back)
	}
	if !back.Amount.Equal(leg.Amount) {
		t.Errorf("Amount = %s, want %s", back.Amount, leg.Amount)
	}
}

func TestAccountRow_LegacyKind(t *testing.T) {
	row := AccountRow{AccountID: "A", AccountName: "DANA", AccountType: "e-wallet", Balance: big.NewRat(5, 1)}
	a := row.toDomain()
	if a.Kind != domain.KindEWallet {
		t.Errorf("Kind = %q, want %q", a.Kind, domain.KindEWallet)
	}
}

func TestDebtRow_OptionalFields(t *testing.T) {
	rate := decimal.RequireFromString("1.75")
	due := civil.Date{Year: 2025, Month: 1, Day: 10}
	d := domain.Debt{ID: "d", Name: "KTA", TotalAmount: decimal.NewFromInt(100), RemainingAmount: decimal.NewFromInt(60), InterestRate: &rate, DueDate: &due}

	back := debtToRow(d).toDomain()
	if back.InterestRate == nil || !back.InterestRate.Equal(rate) {
		t.Errorf("InterestRate = %v", back.InterestRate)
	}
	if back.MinimumPayment != nil {
		t.Errorf("MinimumPayment = %v, want nil", back.MinimumPayment)
	}
	if back.DueDate == nil || *back.DueDate != due {
		t.Errorf("DueDate = %v", back.DueDate)
	}
}
