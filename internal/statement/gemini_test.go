package statement

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-sync/internal/category"
	"github.com/dvloznov/statement-sync/internal/domain"
)

// mockModel is a mock for testing the Gemini parser
type mockModel struct {
	GenerateFunc func(ctx context.Context, prompt string, pdf []byte) (string, error)
}

func (m *mockModel) Generate(ctx context.Context, prompt string, pdf []byte) (string, error) {
	return m.GenerateFunc(ctx, prompt, pdf)
}

func TestGeminiParser_Parse(t *testing.T) {
	var gotPrompt string
	model := &mockModel{
		GenerateFunc: func(ctx context.Context, prompt string, pdf []byte) (string, error) {
			gotPrompt = prompt
			return "```json\n[" +
				`{"date":"2024-01-15","description":"AMAZON PAY INDIA","amount":-1299.5,"category":"shopping"},` +
				`{"date":"2024-01-20","description":"PAYMENT THANK YOU","amount":"5,000.00","category":"Groceries"}` +
				"]\n```", nil
		},
	}

	p := NewGeminiParser(model, category.Default())
	txs, err := p.Parse(context.Background(), []byte("%PDF"), domain.BankSBI, "sbi.pdf")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}

	if !txs[0].Amount.Equal(decimal.RequireFromString("-1299.5")) || txs[0].Type != domain.TransactionDebit {
		t.Errorf("first tx = %+v", txs[0])
	}
	if txs[0].Category != category.Shopping {
		t.Errorf("Category = %q, want canonical Shopping", txs[0].Category)
	}
	if txs[1].Category != category.Uncategorized {
		t.Errorf("unknown category mapped to %q, want Uncategorized", txs[1].Category)
	}
	if !txs[1].Amount.Equal(decimal.NewFromInt(5000)) || txs[1].Type != domain.TransactionCredit {
		t.Errorf("second tx = %+v", txs[1])
	}

	if !strings.Contains(gotPrompt, "SBI Card") || !strings.Contains(gotPrompt, "Food & Dining") {
		t.Errorf("prompt missing issuer or taxonomy:\n%s", gotPrompt)
	}
}

func TestGeminiParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "model error", err: errors.New("quota exceeded")},
		{name: "empty response", response: "  "},
		{name: "not json", response: "I could not read this statement."},
		{name: "bad date", response: `[{"date":"15/01/2024","description":"X","amount":-1}]`},
		{name: "missing amount", response: `[{"date":"2024-01-15","description":"X"}]`},
		{name: "empty array", response: `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &mockModel{
				GenerateFunc: func(ctx context.Context, prompt string, pdf []byte) (string, error) {
					return tt.response, tt.err
				},
			}
			txs, err := NewGeminiParser(model, nil).Parse(context.Background(), nil, domain.BankHDFC, "h.pdf")
			if len(txs) != 0 {
				t.Errorf("expected no transactions, got %d", len(txs))
			}
			var pe *domain.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[{"a":1}]`, `[{"a":1}]`},
		{"fenced json", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"fenced bare", "```\n[1]\n```", `[1]`},
		{"surrounding text", "Here you go:\n[1, 2]\nThanks", `[1, 2]`},
		{"single line fence", "```", "```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanModelJSON(tt.in); got != tt.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
