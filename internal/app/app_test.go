package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dvloznov/statement-sync/internal/config"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/mail"
)

func TestNew_LocalOnly(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Parser.Mode = "sample"
	cfg.Store.Path = filepath.Join(dir, "tx.json")
	cfg.Gmail.CredentialsFile = filepath.Join(dir, "missing-credentials.json")

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Archiver != nil || a.Mirror != nil {
		t.Error("cloud components should be disabled")
	}
	if a.Store.Path() != cfg.Store.Path {
		t.Errorf("store path = %q", a.Store.Path())
	}

	txs, err := a.Parser.Parse(context.Background(), nil, domain.BankHDFC, "hdfc.pdf")
	if err != nil || len(txs) != 3 {
		t.Fatalf("sample parser returned %d transactions, err %v", len(txs), err)
	}

	// Without credentials the run aborts instead of failing construction.
	result := a.Syncer.Run(context.Background())
	if result.Success || result.Error == "" {
		t.Errorf("expected aborted run, got %+v", result)
	}
}

func TestNew_BadCategoriesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - keywords: [X]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Parser.CategoriesFile = path

	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("expected error for unnamed category")
	}
}

func TestConnectGmail_MissingToken(t *testing.T) {
	cfg := config.Default()
	cfg.Gmail.CredentialsFile = filepath.Join(t.TempDir(), "nope.json")

	_, err := Connector(cfg)(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, mail.ErrNoValidToken) {
		t.Error("a missing credentials file should not be reported as an invalid token")
	}
}
