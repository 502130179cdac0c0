package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/service"
	"github.com/brankas/brankas/internal/store"
)

func newTestEnv(t *testing.T) (*env, *bytes.Buffer) {
	t.Helper()
	st := store.NewMemory()
	for _, a := range []domain.Account{
		{ID: "A", Name: "BCA", Kind: domain.KindBank, Balance: decimal.NewFromInt(100000)},
		{ID: "B", Name: "GoPay", Kind: domain.KindEWallet, Balance: decimal.Zero},
	} {
		if err := st.InsertAccount(context.Background(), a); err != nil {
			t.Fatal(err)
		}
	}
	var out bytes.Buffer
	return &env{
		store:  st,
		ledger: service.New(st, ledger.NewEngine()),
		log:    zerolog.Nop(),
		out:    &out,
	}, &out
}

func TestRunTransfer(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"booked", []string{"-from", "A", "-to", "B", "-amount", "25000", "-date", "2024-03-01"}, "Transferred 25000.00 from A to B on 2024-03-01"},
		{"refused", []string{"-from", "B", "-to", "A", "-amount", "1"}, "Transfer refused (InsufficientFunds)"},
		{"bad amount", []string{"-from", "A", "-to", "B", "-amount", "lots"}, "Transfer refused (InvalidAmount)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, out := newTestEnv(t)
			if err := runTransfer(context.Background(), e, tt.args); err != nil {
				t.Fatalf("runTransfer: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want it to contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestRunTransfer_MissingFlags(t *testing.T) {
	e, _ := newTestEnv(t)
	if err := runTransfer(context.Background(), e, []string{"-from", "A"}); err == nil {
		t.Error("expected usage error")
	}
}

func TestRunAccountsAndTransactions(t *testing.T) {
	e, out := newTestEnv(t)
	ctx := context.Background()
	if err := runTransfer(ctx, e, []string{"-from", "A", "-to", "B", "-amount", "1000", "-description", "Top up"}); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	if err := runAccounts(ctx, e, nil); err != nil {
		t.Fatal(err)
	}
	if s := out.String(); !strings.Contains(s, "99000.00") || !strings.Contains(s, "Total:   100000.00") {
		t.Errorf("accounts output = %q", s)
	}

	out.Reset()
	if err := runTransactions(ctx, e, []string{"-account", "B"}); err != nil {
		t.Fatal(err)
	}
	if s := out.String(); !strings.Contains(s, "Transactions (1 of 1)") || !strings.Contains(s, "Top up") {
		t.Errorf("transactions output = %q", s)
	}
}
