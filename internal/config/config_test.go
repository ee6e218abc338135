package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dvloznov/statement-sync/internal/domain"
)

var envVars = []string{
	"STATEMENT_SYNC_CREDENTIALS_FILE", "STATEMENT_SYNC_TOKEN_FILE",
	"STATEMENT_SYNC_LOOKBACK_DAYS", "STATEMENT_SYNC_MAX_MESSAGES",
	"STATEMENT_SYNC_MAX_RESULTS", "STATEMENT_SYNC_FETCH_CONCURRENCY",
	"STATEMENT_SYNC_STORE_PATH", "STATEMENT_SYNC_PARSER_MODE",
	"STATEMENT_SYNC_CATEGORIES_FILE", "STATEMENT_SYNC_PASSWORD_SBI",
	"STATEMENT_SYNC_PASSWORD_HDFC", "STATEMENT_SYNC_PASSWORD_AXIS",
	"STATEMENT_SYNC_PASSWORD_SCB", "STATEMENT_SYNC_GEMINI_ENABLED",
	"STATEMENT_SYNC_GEMINI_MODEL", "GOOGLE_API_KEY", "GCS_BUCKET",
	"STATEMENT_SYNC_BQ_PROJECT", "STATEMENT_SYNC_BQ_DATASET",
	"STATEMENT_SYNC_SCHEDULE", "STATEMENT_SYNC_QUEUE_BUFFER",
	"STATEMENT_SYNC_RUN_ON_START", "STATEMENT_SYNC_LOG_LEVEL",
	"STATEMENT_SYNC_LOG_FORMAT",
}

// isolate clears the environment and moves into an empty directory so no
// .env file is picked up.
func isolate(t *testing.T) {
	t.Helper()
	for _, env := range envVars {
		t.Setenv(env, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_DefaultValues(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gmail.CredentialsFile != "credentials.json" || cfg.Gmail.TokenFile != "token.json" {
		t.Errorf("Gmail files: got %q/%q", cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile)
	}
	if cfg.Gmail.LookbackDays != 90 {
		t.Errorf("LookbackDays: got %d, want 90", cfg.Gmail.LookbackDays)
	}
	if cfg.Gmail.MaxMessages != 5 || cfg.Gmail.MaxResults != 10 {
		t.Errorf("limits: got %d/%d, want 5/10", cfg.Gmail.MaxMessages, cfg.Gmail.MaxResults)
	}
	if cfg.Store.Path != "transactions.json" {
		t.Errorf("Store.Path: got %q", cfg.Store.Path)
	}
	if cfg.Parser.Mode != "pdf" {
		t.Errorf("Parser.Mode: got %q, want pdf", cfg.Parser.Mode)
	}
	if cfg.ArchiveEnabled() || cfg.MirrorEnabled() {
		t.Error("archive and mirror should be disabled by default")
	}
	if !cfg.Worker.RunOnStart {
		t.Error("Worker.RunOnStart should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
gmail:
  lookback_days: 30
  max_messages: 20
store:
  path: /data/tx.json
parser:
  mode: sample
  passwords:
    SBI: "01011990"
bigquery:
  project_id: my-project
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("STATEMENT_SYNC_MAX_MESSAGES", "7")
	t.Setenv("STATEMENT_SYNC_PASSWORD_HDFC", "secret")
	t.Setenv("GCS_BUCKET", "statements-archive")
	t.Setenv("STATEMENT_SYNC_LOG_FORMAT", "JSON")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Gmail.LookbackDays != 30 {
		t.Errorf("LookbackDays: got %d, want 30", cfg.Gmail.LookbackDays)
	}
	if cfg.Gmail.MaxMessages != 7 {
		t.Errorf("MaxMessages: got %d, want env override 7", cfg.Gmail.MaxMessages)
	}
	if cfg.Store.Path != "/data/tx.json" || cfg.Parser.Mode != "sample" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.BigQuery.DatasetID != "finance" || !cfg.MirrorEnabled() {
		t.Errorf("BigQuery: got %+v", cfg.BigQuery)
	}
	if !cfg.ArchiveEnabled() || cfg.Archive.GCSBucket != "statements-archive" {
		t.Errorf("Archive: got %+v", cfg.Archive)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}

	pw := cfg.BankPasswords()
	if pw[domain.BankSBI] != "01011990" || pw[domain.BankHDFC] != "secret" {
		t.Errorf("BankPasswords: got %v", pw)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)

	if err := os.WriteFile(".env", []byte("STATEMENT_SYNC_STORE_PATH=from-dotenv.json\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv sets variables directly; make sure the test cleans up.
	t.Cleanup(func() { os.Unsetenv("STATEMENT_SYNC_STORE_PATH") })
	os.Unsetenv("STATEMENT_SYNC_STORE_PATH")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store.Path != "from-dotenv.json" {
		t.Errorf("Store.Path: got %q, want from-dotenv.json", cfg.Store.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.Parser.Mode = "ocr" }, "parser.mode"},
		{"zero messages", func(c *Config) { c.Gmail.MaxMessages = 0 }, "gmail.max_messages"},
		{"too many fetchers", func(c *Config) { c.Gmail.FetchConcurrency = 64 }, "gmail.fetch_concurrency"},
		{"unknown password bank", func(c *Config) { c.Parser.Passwords = map[string]string{"ICICI": "x"} }, "unknown bank"},
		{"gemini without key", func(c *Config) { c.Parser.Gemini.Enabled = true }, "api_key"},
		{"bad schedule", func(c *Config) { c.Worker.Schedule = "every tuesday" }, "worker.schedule"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"project without dataset", func(c *Config) {
			c.BigQuery.ProjectID = "p"
			c.BigQuery.DatasetID = ""
		}, "bigquery.dataset_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
