package category

import "testing"

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(Default().Names())

	tests := []struct {
		name     string
		category string
		want     string
		wantErr  bool
	}{
		{name: "exact", category: "Shopping", want: Shopping},
		{name: "different case", category: "food & dining", want: FoodAndDining},
		{name: "extra spaces", category: "  Transportation  ", want: Transportation},
		{name: "uncategorized", category: "UNCATEGORIZED", want: Uncategorized},
		{name: "invalid", category: "Groceries", wantErr: true},
		{name: "empty", category: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Validate(tt.category)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Validate() = %q, want %q", got, tt.want)
			}
		})
	}

	if got := v.Canonicalize("Groceries"); got != Uncategorized {
		t.Errorf("Canonicalize(Groceries) = %q, want Uncategorized", got)
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Shopping", "SHOPPING"},
		{"  Food & Dining  ", "FOOD & DINING"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeCategory(tt.input); got != tt.want {
				t.Errorf("normalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
