package category

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCategorize(t *testing.T) {
	c := Default()

	tests := []struct {
		description string
		credit      bool
		want        string
	}{
		{"AMAZON PAY INDIA", false, Shopping},
		{"swiggy bangalore", false, FoodAndDining},
		{"UBER TRIP", false, Transportation},
		{"PAYMENT THANK YOU", true, Payment},
		{"SALARY CREDIT", true, Income},
		{"ZOMATO LTD", false, FoodAndDining},
		{"UNKNOWN MERCHANT 123", false, Uncategorized},
		{"UNKNOWN TRANSFER", true, Payment},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			if got := c.Categorize(tt.description, tt.credit); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.description, got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	content := `categories:
  - name: Groceries
    keywords: [bigbasket, "blinkit"]
  - name: Shopping
    keywords: [croma]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// File rules take precedence over built-in ones.
	if got := c.Categorize("BIGBASKET ORDER", false); got != "Groceries" {
		t.Errorf("BIGBASKET = %q, want Groceries", got)
	}
	if got := c.Categorize("CROMA RETAIL", false); got != Shopping {
		t.Errorf("CROMA = %q, want Shopping", got)
	}
	// Built-ins still apply.
	if got := c.Categorize("SWIGGY", false); got != FoodAndDining {
		t.Errorf("SWIGGY = %q, want Food & Dining", got)
	}

	names := c.Names()
	if names[0] != "Groceries" || names[len(names)-1] != Uncategorized {
		t.Errorf("unexpected names order: %v", names)
	}
	count := 0
	for _, n := range names {
		if n == Shopping {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Shopping listed %d times", count)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("categories:\n  - keywords: [x]\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for unnamed category")
	}
}
