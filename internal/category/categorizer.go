// Package category assigns spending categories to statement lines by
// keyword and validates category names against the taxonomy.
package category

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy names.
const (
	Shopping       = "Shopping"
	FoodAndDining  = "Food & Dining"
	Transportation = "Transportation"
	Payment        = "Payment"
	Income         = "Income"
	Bills          = "Bills & Utilities"
	Travel         = "Travel"
	Fuel           = "Fuel"
	Entertainment  = "Entertainment"
	Health         = "Health"
	Uncategorized  = "Uncategorized"
)

// Rule maps a category to the description keywords that select it.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// File is the on-disk shape of a categories YAML file.
type File struct {
	Categories []Rule `yaml:"categories"`
}

// DefaultRules is the built-in keyword table. Rules are evaluated in order.
var DefaultRules = []Rule{
	{Name: Payment, Keywords: []string{"PAYMENT THANK YOU", "AUTO PAYMENT", "AUTOPAY", "PAYMENT RECEIVED", "BBPS PAYMENT"}},
	{Name: Income, Keywords: []string{"SALARY", "CASHBACK", "REFUND", "REVERSAL", "INTEREST CREDIT"}},
	{Name: FoodAndDining, Keywords: []string{"SWIGGY", "ZOMATO", "RESTAURANT", "CAFE", "DOMINOS", "STARBUCKS", "EATCLUB"}},
	{Name: Transportation, Keywords: []string{"UBER", "OLA CABS", "RAPIDO", "METRO", "IRCTC", "FASTAG"}},
	{Name: Travel, Keywords: []string{"MAKEMYTRIP", "INDIGO", "AIR INDIA", "VISTARA", "GOIBIBO", "CLEARTRIP", "HOTEL"}},
	{Name: Fuel, Keywords: []string{"FUEL", "PETROL", "HPCL", "BPCL", "INDIAN OIL", "IOCL"}},
	{Name: Bills, Keywords: []string{"ELECTRICITY", "AIRTEL", "JIO", "VODAFONE", "BESCOM", "BROADBAND", "RECHARGE"}},
	{Name: Entertainment, Keywords: []string{"NETFLIX", "SPOTIFY", "HOTSTAR", "BOOKMYSHOW", "PRIME VIDEO"}},
	{Name: Health, Keywords: []string{"PHARMACY", "APOLLO", "HOSPITAL", "MEDPLUS", "1MG", "PHARMEASY"}},
	{Name: Shopping, Keywords: []string{"AMAZON", "FLIPKART", "MYNTRA", "AJIO", "NYKAA", "BIGBASKET", "DMART", "RELIANCE"}},
}

// Categorizer assigns categories by upper-case substring match.
type Categorizer struct {
	rules []Rule
}

// New creates a categorizer from rules. Keywords are normalized to upper case.
func New(rules []Rule) *Categorizer {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kw := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = normalizeCategory(k); k != "" {
				kw = append(kw, k)
			}
		}
		normalized = append(normalized, Rule{Name: strings.TrimSpace(r.Name), Keywords: kw})
	}
	return &Categorizer{rules: normalized}
}

// Default returns a categorizer over DefaultRules.
func Default() *Categorizer {
	return New(DefaultRules)
}

// LoadFile reads a categories YAML file. Rules from the file are evaluated
// before the built-in rules.
func LoadFile(path string) (*Categorizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadFile: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("LoadFile: parse %s: %w", path, err)
	}

	for i, r := range f.Categories {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("LoadFile: category %d has no name", i)
		}
	}

	rules := make([]Rule, 0, len(f.Categories)+len(DefaultRules))
	rules = append(rules, f.Categories...)
	rules = append(rules, DefaultRules...)
	return New(rules), nil
}

// Categorize returns the first category whose keyword occurs in the
// description. Credits that match nothing are Payment; debits are
// Uncategorized.
func (c *Categorizer) Categorize(description string, credit bool) string {
	upper := normalizeCategory(description)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(upper, k) {
				return r.Name
			}
		}
	}
	if credit {
		return Payment
	}
	return Uncategorized
}

// Names returns the category names known to the categorizer, deduplicated
// in rule order, with Uncategorized last.
func (c *Categorizer) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range c.rules {
		key := normalizeCategory(r.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, r.Name)
	}
	if !seen[normalizeCategory(Uncategorized)] {
		names = append(names, Uncategorized)
	}
	return names
}
