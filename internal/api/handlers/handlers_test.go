package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/jobs"
	"github.com/brankas/brankas/internal/ledger"
	"github.com/brankas/brankas/internal/store"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", fmt.Errorf("%w: name", domain.ErrInvalid), http.StatusBadRequest},
		{"not found", fmt.Errorf("Account: %w", store.ErrNotFound), http.StatusNotFound},
		{"job not found", jobs.ErrNotFound, http.StatusNotFound},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"refused", fmt.Errorf("wrapped: %w", &ledger.TransferError{Kind: ledger.InsufficientFunds}), http.StatusUnprocessableEntity},
		{"other", errors.New("bigquery down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeServiceError(rec, req, zerolog.Nop(), errors.New("dsn=postgres://secret"), "Failed to list accounts")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("body leaks error detail: %s", rec.Body.String())
	}
}

func TestWriteServiceError_CarriesKind(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	err := &ledger.TransferError{Kind: ledger.InsufficientFunds, Message: "balance too low"}
	writeServiceError(rec, req, zerolog.Nop(), fmt.Errorf("CreateTransaction: %w", err), "x")

	body := rec.Body.String()
	if !strings.Contains(body, `"kind":"InsufficientFunds"`) || !strings.Contains(body, "balance too low") {
		t.Errorf("body = %s", body)
	}
}

func TestParseFilter(t *testing.T) {
	march1 := civil.Date{Year: 2024, Month: 3, Day: 1}

	tests := []struct {
		name    string
		query   string
		check   func(t *testing.T, f ledger.Filter)
		wantErr bool
	}{
		{
			name:  "defaults to newest first",
			query: "",
			check: func(t *testing.T, f ledger.Filter) {
				if !f.Desc || f.Limit != 0 {
					t.Errorf("filter = %+v", f)
				}
			},
		},
		{
			name:  "amount sort ascends by default",
			query: "sort=amount",
			check: func(t *testing.T, f ledger.Filter) {
				if f.Desc || f.Sort != ledger.SortByAmount {
					t.Errorf("filter = %+v", f)
				}
			},
		},
		{
			name:  "all fields",
			query: "search=+kopi+&account=A&category=Food&type=EXPENSE&from=2024-03-01&to=2024-03-31&order=asc&limit=20&offset=40",
			check: func(t *testing.T, f ledger.Filter) {
				if f.Search != "kopi" || f.AccountID != "A" || f.Category != "Food" || f.Type != domain.TypeExpense {
					t.Errorf("filter = %+v", f)
				}
				if f.From == nil || *f.From != march1 || f.To == nil {
					t.Errorf("range = %v..%v", f.From, f.To)
				}
				if f.Desc || f.Limit != 20 || f.Offset != 40 {
					t.Errorf("paging = %+v", f)
				}
			},
		},
		{name: "bad type", query: "type=gift", wantErr: true},
		{name: "bad date", query: "to=31-03-2024", wantErr: true},
		{name: "reversed range", query: "from=2024-03-31&to=2024-03-01", wantErr: true},
		{name: "bad order", query: "order=up", wantErr: true},
		{name: "bad offset", query: "offset=x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}
			f, err := parseFilter(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}
