// Package statement turns credit-card statement PDFs into transactions.
package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-sync/internal/category"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// Parser extracts transactions from one statement PDF. On failure it returns
// no transactions and a *domain.ParseError.
type Parser interface {
	Parse(ctx context.Context, pdf []byte, bank domain.BankID, filename string) ([]domain.Transaction, error)
}

// Parser modes.
const (
	ModePDF    = "pdf"
	ModeSample = "sample"
)

// Options selects and configures a parser.
type Options struct {
	Mode        string
	Categorizer *category.Categorizer
	Passwords   map[domain.BankID]string

	// Fallback, when set, is tried after the layout parser fails.
	Fallback Parser
}

// New builds the parser for opts.Mode, wrapped with Safe.
func New(opts Options) (Parser, error) {
	switch opts.Mode {
	case ModePDF, "":
		layout := NewLayoutParser(opts.Categorizer, opts.Passwords)
		if opts.Fallback != nil {
			return Safe(Chain{layout, opts.Fallback}), nil
		}
		return Safe(layout), nil
	case ModeSample:
		return Safe(&SampleParser{}), nil
	default:
		return nil, fmt.Errorf("statement.New: unknown parser mode %q", opts.Mode)
	}
}

// safeParser enforces the parser boundary contract around another parser.
type safeParser struct {
	inner Parser
}

// Safe wraps p so that panics are recovered, every error is a
// *domain.ParseError, and an empty extraction is reported as
// domain.ErrNoTransactions.
func Safe(p Parser) Parser {
	if s, ok := p.(*safeParser); ok {
		return s
	}
	return &safeParser{inner: p}
}

func (s *safeParser) Parse(ctx context.Context, pdf []byte, bank domain.BankID, filename string) (txs []domain.Transaction, err error) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.FromContext(ctx)
			log.Error().
				Interface("panic", r).
				Str("bank", string(bank)).
				Str("filename", filename).
				Msg("Parser panicked")
			txs = nil
			err = &domain.ParseError{Bank: bank, Filename: filename, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	txs, err = s.inner.Parse(ctx, pdf, bank, filename)
	if err != nil {
		return nil, asParseError(bank, filename, err)
	}
	if len(txs) == 0 {
		return nil, &domain.ParseError{Bank: bank, Filename: filename, Err: domain.ErrNoTransactions}
	}
	return txs, nil
}

// Chain tries parsers in order and returns the first non-empty result.
// When all fail, the last error is returned.
type Chain []Parser

func (c Chain) Parse(ctx context.Context, pdf []byte, bank domain.BankID, filename string) ([]domain.Transaction, error) {
	log := logger.FromContext(ctx)
	lastErr := error(&domain.ParseError{Bank: bank, Filename: filename, Err: domain.ErrNoTransactions})

	for i, p := range c {
		txs, err := Safe(p).Parse(ctx, pdf, bank, filename)
		if err == nil {
			return txs, nil
		}
		log.Warn().Err(err).Int("parser", i).Str("filename", filename).Msg("Parser failed, trying next")
		lastErr = err
	}
	return nil, lastErr
}

func asParseError(bank domain.BankID, filename string, err error) error {
	var pe *domain.ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return &domain.ParseError{Bank: bank, Filename: filename, Err: err}
}
