package statement

import (
	"context"

	"github.com/dvloznov/statement-sync/internal/category"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// LayoutParser reads statement text with the PDF library and matches each
// line against the issuer's transaction layout.
type LayoutParser struct {
	categorizer *category.Categorizer
	passwords   map[domain.BankID]string
}

// NewLayoutParser creates a LayoutParser. passwords holds the statement
// password per bank for encrypted PDFs and may be nil.
func NewLayoutParser(categorizer *category.Categorizer, passwords map[domain.BankID]string) *LayoutParser {
	if categorizer == nil {
		categorizer = category.Default()
	}
	return &LayoutParser{categorizer: categorizer, passwords: passwords}
}

// Parse extracts text from pdf and returns the matched transactions.
func (p *LayoutParser) Parse(ctx context.Context, pdf []byte, bank domain.BankID, filename string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)

	lines, err := ExtractLines(pdf, p.passwords[bank])
	if err != nil {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: err}
	}

	txs := p.ParseLines(lines, bank, filename)
	log.Info().
		Str("bank", string(bank)).
		Str("filename", filename).
		Int("lines", len(lines)).
		Int("transactions", len(txs)).
		Msg("Parsed statement text")

	if len(txs) == 0 {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: domain.ErrNoTransactions}
	}
	return txs, nil
}

// ParseLines matches already-extracted text lines. Lines that match no
// layout are skipped.
func (p *LayoutParser) ParseLines(lines []string, bank domain.BankID, filename string) []domain.Transaction {
	candidates := layoutsFor(bank)

	var txs []domain.Transaction
	for _, text := range lines {
		for _, l := range candidates {
			ln, ok := l.match(text)
			if !ok {
				continue
			}
			amount, err := ParseAmount(ln.amount)
			if err != nil {
				continue
			}
			if !ln.credit {
				amount = amount.Neg()
			}
			cat := p.categorizer.Categorize(ln.description, ln.credit)
			txs = append(txs, domain.NewTransaction(ln.date, ln.description, amount, cat, bank, filename))
			break
		}
	}
	return txs
}
