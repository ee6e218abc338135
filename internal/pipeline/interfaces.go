package pipeline

import (
	"context"

	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/mail"
)

// Connector opens an authenticated mail service. It is called once at the
// start of every run; an error aborts the run.
type Connector func(ctx context.Context) (mail.Service, error)

// TransactionStore is the persistence the syncer merges into.
type TransactionStore interface {
	// Load returns the stored transactions, or an empty list when nothing
	// readable is stored.
	Load(ctx context.Context) []domain.Transaction

	// Read is the strict load used before a merge. A missing store reports
	// an error matching os.ErrNotExist.
	Read(ctx context.Context) ([]domain.Transaction, error)

	// Save replaces the stored transactions.
	Save(ctx context.Context, txs []domain.Transaction) error
}

// Mirror receives a copy of each run's new transactions and the run summary.
type Mirror interface {
	InsertTransactions(ctx context.Context, runID string, txs []domain.Transaction) error
	RecordSyncRun(ctx context.Context, result domain.SyncResult) error
}
