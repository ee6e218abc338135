// Package bigquery mirrors synced transactions and sync run summaries into
// BigQuery.
package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// DefaultDatasetID is used when no dataset is configured.
const DefaultDatasetID = "finance"

// Repository holds a shared BigQuery client for one dataset.
type Repository struct {
	client    *bigquery.Client
	datasetID string
	now       func() time.Time
}

// NewRepository creates a client for projectID.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, datasetID string) *Repository {
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	return &Repository{client: client, datasetID: datasetID, now: time.Now}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// EnsureTables creates missing tables.
func (r *Repository) EnsureTables(ctx context.Context) error {
	return EnsureTablesWithClient(ctx, r.client, r.datasetID)
}

// InsertTransactions mirrors txs as produced by sync run runID.
func (r *Repository) InsertTransactions(ctx context.Context, runID string, txs []domain.Transaction) error {
	created := r.now()
	rows := make([]*TransactionRow, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, NewTransactionRow(t, runID, created))
	}
	return InsertTransactionsWithClient(ctx, r.client, r.datasetID, rows)
}

// RecordSyncRun stores the run summary.
func (r *Repository) RecordSyncRun(ctx context.Context, result domain.SyncResult) error {
	return InsertSyncRunWithClient(ctx, r.client, r.datasetID, NewSyncRunRow(result))
}

// QueryTransactionsByDateRange returns mirrored transactions in the range.
func (r *Repository) QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	return QueryTransactionsByDateRangeWithClient(ctx, r.client, r.datasetID, startDate, endDate)
}

// ListRecentSyncRuns returns the latest recorded runs.
func (r *Repository) ListRecentSyncRuns(ctx context.Context, limit int) ([]*SyncRunRow, error) {
	return ListRecentSyncRunsWithClient(ctx, r.client, r.datasetID, limit)
}
