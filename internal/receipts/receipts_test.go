package receipts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/brankas/brankas/internal/domain"
	"github.com/brankas/brankas/internal/store"
)

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		object  string
		wantErr bool
	}{
		{"gs://finance-receipts/receipts/abc/struk.jpg", "finance-receipts", "receipts/abc/struk.jpg", false},
		{"https://storage.googleapis.com/b/o", "", "", true},
		{"gs://bucket-only", "", "", true},
		{"gs://bucket/", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGCSURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || object != tt.object {
				t.Errorf("ParseGCSURI() = %q, %q", bucket, object)
			}
		})
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"struk.jpg", "receipts/id/struk.jpg"},
		{"../../etc/passwd", "receipts/id/passwd"},
		{`C:\Users\me\nota.png`, "receipts/id/nota.png"},
		{"", "receipts/id/receipt"},
	}
	for _, tt := range tests {
		if got := ObjectName("id", tt.fileName); got != tt.want {
			t.Errorf("ObjectName(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
	}
}

func TestDecodeExtraction(t *testing.T) {
	raw := "```json\n{\"merchant\": \" Indomaret \", \"date\": \"2024-03-14\", \"total\": 57500, \"currency\": \"idr\", \"category\": \"Groceries\"}\n```"
	e, err := decodeExtraction(raw)
	if err != nil {
		t.Fatalf("decodeExtraction() error = %v", err)
	}
	if e.Merchant != "Indomaret" || e.Currency != "IDR" || e.Category != "Groceries" {
		t.Errorf("unexpected extraction: %+v", e)
	}
	if e.Total == nil || !e.Total.Equal(decimal.NewFromInt(57500)) {
		t.Errorf("Total = %v", e.Total)
	}
	if e.Date == nil || e.Date.String() != "2024-03-14" {
		t.Errorf("Date = %v", e.Date)
	}
}

func TestDecodeExtraction_Nulls(t *testing.T) {
	e, err := decodeExtraction(`Here you go: {"merchant": null, "date": null, "total": null, "currency": null, "category": null}`)
	if err != nil {
		t.Fatalf("decodeExtraction() error = %v", err)
	}
	if e.Total != nil || e.Date != nil || e.Merchant != "" {
		t.Errorf("expected empty extraction, got %+v", e)
	}

	if _, err := decodeExtraction(`{"date": "14/03/2024"}`); err == nil {
		t.Error("expected error for non-ISO date")
	}
	if _, err := decodeExtraction("not json"); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

type mockFiles struct {
	UploadFunc func(ctx context.Context, fileName, contentType string, r io.Reader) (string, error)
	FetchFunc  func(ctx context.Context, uri string) ([]byte, error)
}

func (m *mockFiles) Upload(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
	return m.UploadFunc(ctx, fileName, contentType, r)
}

func (m *mockFiles) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return m.FetchFunc(ctx, uri)
}

type mockScanner struct {
	ScanFunc func(ctx context.Context, data []byte, mimeType string) (Extraction, error)
}

func (m *mockScanner) Scan(ctx context.Context, data []byte, mimeType string) (Extraction, error) {
	return m.ScanFunc(ctx, data, mimeType)
}

type mockAttacher struct {
	calls map[string]string
}

func (m *mockAttacher) AttachReceipt(ctx context.Context, transactionID, receiptURL string) error {
	m.calls[transactionID] = receiptURL
	return nil
}

func newTestProcessor(files FileStore, scanner Scanner, st store.ReceiptStore, att Attacher) *Processor {
	return NewProcessor(files, scanner, st, att, func() string { return "r-1" }, zerolog.Nop())
}

func TestProcessor_RegisterAndScan(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	files := &mockFiles{
		UploadFunc: func(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
			return "gs://bucket/receipts/x/" + fileName, nil
		},
		FetchFunc: func(ctx context.Context, uri string) ([]byte, error) { return []byte("img"), nil },
	}
	total := decimal.NewFromInt(57500)
	scanner := &mockScanner{ScanFunc: func(ctx context.Context, data []byte, mimeType string) (Extraction, error) {
		if mimeType != "image/jpeg" {
			t.Errorf("mimeType = %q", mimeType)
		}
		return Extraction{Merchant: "Indomaret", Total: &total, Currency: "IDR"}, nil
	}}
	att := &mockAttacher{calls: map[string]string{}}
	p := newTestProcessor(files, scanner, st, att)

	rc, err := p.Register(ctx, "t-1", "struk.jpg", "image/jpeg; charset=binary", bytes.NewReader([]byte("img")))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if rc.Status != domain.ReceiptUploaded || rc.GCSURI != "gs://bucket/receipts/x/struk.jpg" {
		t.Errorf("unexpected receipt: %+v", rc)
	}

	scanned, err := p.Scan(ctx, rc.ID)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if scanned.Status != domain.ReceiptScanned || scanned.Merchant != "Indomaret" {
		t.Errorf("unexpected scan result: %+v", scanned)
	}
	if att.calls["t-1"] != rc.GCSURI {
		t.Errorf("attach calls = %v", att.calls)
	}
}

func TestProcessor_ScanFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	if err := st.InsertReceipt(ctx, domain.Receipt{ID: "r-9", GCSURI: "gs://b/o.png", MIMEType: "image/png", Status: domain.ReceiptUploaded}); err != nil {
		t.Fatal(err)
	}
	files := &mockFiles{FetchFunc: func(ctx context.Context, uri string) ([]byte, error) { return []byte("x"), nil }}
	scanner := &mockScanner{ScanFunc: func(ctx context.Context, data []byte, mimeType string) (Extraction, error) {
		return Extraction{}, errors.New("quota exceeded")
	}}
	p := newTestProcessor(files, scanner, st, nil)

	if _, err := p.Scan(ctx, "r-9"); err == nil {
		t.Fatal("Scan() error = nil, want failure")
	}
	got, _ := st.GetReceipt(ctx, "r-9")
	if got.Status != domain.ReceiptFailed || got.Error == "" {
		t.Errorf("receipt = %+v, want failed with error", got)
	}
}

func TestProcessor_RejectsUnsupportedType(t *testing.T) {
	p := newTestProcessor(&mockFiles{}, &mockScanner{}, store.NewMemory(), nil)
	_, err := p.Register(context.Background(), "", "notes.txt", "text/plain", bytes.NewReader(nil))
	if !errors.Is(err, domain.ErrInvalid) {
		t.Errorf("error = %v, want ErrInvalid", err)
	}
}
