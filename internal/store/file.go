// Package store persists transactions as a JSON array file.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
)

// DefaultPath is the store file used when none is configured.
const DefaultPath = "transactions.json"

// record is the on-disk shape of one transaction.
type record struct {
	Date            civil.Date             `json:"date"`
	Description     string                 `json:"description"`
	Amount          json.Number            `json:"amount"`
	Category        string                 `json:"category"`
	Bank            domain.BankID          `json:"bank"`
	Filename        string                 `json:"filename"`
	TransactionType domain.TransactionType `json:"transaction_type"`
}

func toRecord(t domain.Transaction) record {
	return record{
		Date:            t.Date,
		Description:     t.Description,
		Amount:          json.Number(t.Amount.String()),
		Category:        t.Category,
		Bank:            t.Bank,
		Filename:        t.Filename,
		TransactionType: t.Type,
	}
}

// toTransaction rebuilds a transaction. Type is re-derived from the amount,
// so records with an inconsistent transaction_type are normalized.
func (r record) toTransaction() (domain.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount.String())
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	bank := r.Bank
	if bank == "" {
		bank = domain.BankUnknown
	}
	return domain.NewTransaction(r.Date, r.Description, amount, r.Category, bank, r.Filename), nil
}

// FileStore reads and writes the transaction file. A single FileStore
// serializes its own reads and writes.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns all stored transactions. A missing or unreadable file yields
// an empty list; the failure is logged.
func (s *FileStore) Load(ctx context.Context) []domain.Transaction {
	txs, err := s.Read(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Str("path", s.path).Msg("Error loading transactions")
		}
		return []domain.Transaction{}
	}
	return txs
}

// Read is the strict variant of Load.
func (s *FileStore) Read(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &domain.StoreError{Op: "load", Err: err}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.Transaction{}, nil
	}

	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &domain.StoreError{Op: "load", Err: fmt.Errorf("decode %s: %w", s.path, err)}
	}

	txs := make([]domain.Transaction, 0, len(records))
	for i, r := range records {
		tx, err := r.toTransaction()
		if err != nil {
			return nil, &domain.StoreError{Op: "load", Err: fmt.Errorf("record %d: %w", i, err)}
		}
		if tx.Type != r.TransactionType {
			log := logger.FromContext(ctx)
			log.Warn().
				Int("record", i).
				Str("stored_type", string(r.TransactionType)).
				Str("amount", tx.Amount.String()).
				Msg("Normalized transaction type")
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Save replaces the file contents with txs. The file is written to a
// temporary sibling and renamed into place.
func (s *FileStore) Save(ctx context.Context, txs []domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]record, 0, len(txs))
	for _, t := range txs {
		records = append(records, toRecord(t))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &domain.StoreError{Op: "save", Err: fmt.Errorf("encode: %w", err)}
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &domain.StoreError{Op: "save", Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.StoreError{Op: "save", Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.StoreError{Op: "save", Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &domain.StoreError{Op: "save", Err: err}
	}

	log := logger.FromContext(ctx)
	log.Info().Int("count", len(txs)).Str("path", s.path).Msg("Saved transactions")
	return nil
}

// ReadSaver is the part of a store that Upsert needs.
type ReadSaver interface {
	Read(ctx context.Context) ([]domain.Transaction, error)
	Save(ctx context.Context, txs []domain.Transaction) error
}

// Upsert merges incoming into the stored transactions and saves the result,
// returning the records that were added. A missing store starts empty. Any
// other read failure is returned and the store is left untouched.
func Upsert(ctx context.Context, st ReadSaver, incoming []domain.Transaction) ([]domain.Transaction, error) {
	existing, err := st.Read(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, asStoreError("load", err)
		}
		existing = nil
	}

	merged, _ := Merge(existing, incoming)
	if err := st.Save(ctx, merged); err != nil {
		return nil, asStoreError("save", err)
	}
	return merged[len(existing):], nil
}

func asStoreError(op string, err error) error {
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}

// Merge upserts incoming into existing by transaction key. Existing order
// is kept, new records are appended in arrival order and duplicates inside
// incoming collapse. It returns the merged list and the number added.
func Merge(existing, incoming []domain.Transaction) ([]domain.Transaction, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]domain.Transaction, 0, len(existing)+len(incoming))

	for _, t := range existing {
		seen[t.Key()] = struct{}{}
		merged = append(merged, t)
	}

	added := 0
	for _, t := range incoming {
		k := t.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		merged = append(merged, t)
		added++
	}
	return merged, added
}
