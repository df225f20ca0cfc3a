package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "DATA_SOURCE", "CSV_PATH", "LISTEN_ADDR", "MAX_CONCURRENCY", "LOG_DEBUG"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.Mode != "serve" || cfg.DataSource != "csv" {
		t.Errorf("mode/source: got %q/%q", cfg.Mode, cfg.DataSource)
	}
	if cfg.CSVPath != "vehicles_us.csv" {
		t.Errorf("CSVPath: got %q", cfg.CSVPath)
	}
	if cfg.MaxConcurrency != 3 || cfg.LogDebug {
		t.Errorf("concurrency/debug: got %d/%t", cfg.MaxConcurrency, cfg.LogDebug)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODE", "Report")
	t.Setenv("DATA_SOURCE", "POSTGRES")
	t.Setenv("MAX_CONCURRENCY", "8")
	t.Setenv("MAX_RETRIES", "not-a-number")
	t.Setenv("LOG_DEBUG", "true")
	cfg := Load()

	if cfg.Mode != "report" || cfg.DataSource != "postgres" {
		t.Errorf("mode/source: got %q/%q", cfg.Mode, cfg.DataSource)
	}
	if cfg.MaxConcurrency != 8 {
		t.Errorf("MaxConcurrency: got %d, want 8", cfg.MaxConcurrency)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries should fall back to 3, got %d", cfg.MaxRetries)
	}
	if !cfg.LogDebug {
		t.Error("LogDebug should be true")
	}
}

func TestDSN(t *testing.T) {
	c := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "vehicles_db", PostgresSSLMode: "disable",
	}
	want := "host=db port=5432 user=u password=p dbname=vehicles_db sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN: got %q, want %q", got, want)
	}
}
