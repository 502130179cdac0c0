package config

import "testing"

func TestFromEnv_Memory(t *testing.T) {
	t.Setenv("RECEIPTS_BUCKET", "")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ALLOW_OVERDRAFT", "false")
	t.Setenv("RECEIPT_WORKERS", "2")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.StoreBackend != BackendMemory || cfg.Port != "8080" || cfg.AllowOverdraft || cfg.ReceiptWorkers != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.ReceiptsEnabled() {
		t.Error("receipts should be disabled without a bucket")
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "sqlite"}},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"bigquery without project", map[string]string{"STORE_BACKEND": "bigquery", "GCP_PROJECT_ID": ""}},
		{"bad overdraft flag", map[string]string{"STORE_BACKEND": "memory", "ALLOW_OVERDRAFT": "maybe"}},
		{"zero workers", map[string]string{"STORE_BACKEND": "memory", "RECEIPT_WORKERS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ALLOW_OVERDRAFT", "false")
			t.Setenv("RECEIPT_WORKERS", "1")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("FromEnv() error = nil, want error")
			}
		})
	}
}

func TestFromEnv_Postgres(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/finance")
	t.Setenv("ALLOW_OVERDRAFT", "true")
	t.Setenv("RECEIPT_WORKERS", "4")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.StoreBackend != BackendPostgres || !cfg.AllowOverdraft || cfg.ReceiptWorkers != 4 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
