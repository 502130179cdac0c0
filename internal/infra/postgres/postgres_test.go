package postgres

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "-200000", "1250000.75", "0.001"} {
		d := decimal.RequireFromString(s)
		got := fromNumeric(toNumeric(d))
		if !got.Equal(d) {
			t.Errorf("round trip %s = %s", s, got)
		}
	}

	if got := fromNullNumeric(toNullNumeric(nil)); got != nil {
		t.Errorf("nil numeric round trip = %v, want nil", got)
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := civil.Date{Year: 2024, Month: 2, Day: 29}
	if got := fromDate(toDate(d)); got != d {
		t.Errorf("fromDate(toDate(%v)) = %v", d, got)
	}
	if got := fromNullDate(toNullDate(nil)); got != nil {
		t.Errorf("nil date round trip = %v, want nil", got)
	}
}

func TestToText_EmptyIsNull(t *testing.T) {
	if toText("").Valid {
		t.Error("empty string should map to NULL")
	}
	if v := toText("x"); !v.Valid || v.String != "x" {
		t.Errorf("toText(x) = %+v", v)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, store.ErrNotFound},
		{"foreign key", &pgconn.PgError{Code: codeForeignKeyViolation, Message: "fk"}, store.ErrConflict},
		{"unique", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: codeUniqueViolation}), store.ErrConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("mapError = %v, want %v", got, tt.want)
			}
		})
	}

	if mapError("op", nil) != nil {
		t.Error("mapError(nil) should be nil")
	}
	other := errors.New("boom")
	if got := mapError("op", other); !errors.Is(got, other) || errors.Is(got, store.ErrNotFound) {
		t.Errorf("mapError(other) = %v", got)
	}
}

func TestListTransactionsSQL(t *testing.T) {
	sql, args := listTransactionsSQL(store.TransactionQuery{})
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
	want := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY txn_date, created_at, id`
	if sql != want {
		t.Errorf("sql = %q", sql)
	}

	sql, args = listTransactionsSQL(store.TransactionQuery{AccountID: "A", ClientRef: "ref"})
	want = `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 AND client_ref = $2 ORDER BY txn_date, created_at, id`
	if sql != want {
		t.Errorf("sql = %q", sql)
	}
	if !reflect.DeepEqual(args, []any{"A", "ref"}) {
		t.Errorf("args = %v", args)
	}
}

func TestTransactionArgs_MatchColumns(t *testing.T) {
	args := transactionArgs(domain.Transaction{ID: "t1", Amount: decimal.NewFromInt(-5), Type: domain.TypeExpense})
	if len(args) != 15 {
		t.Fatalf("len(args) = %d, want 15", len(args))
	}
	if args[0] != "t1" {
		t.Errorf("args[0] = %v", args[0])
	}
}
