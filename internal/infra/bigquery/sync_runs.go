package bigquery

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/statement-sync/internal/domain"
)

// Sync run statuses.
const (
	SyncRunSucceeded = "SUCCESS"
	SyncRunFailed    = "FAILED"
)

type SyncRunRow struct {
	SyncRunID string `bigquery:"sync_run_id"` // REQUIRED

	StartedTS  time.Time              `bigquery:"started_ts"`  // REQUIRED
	FinishedTS bigquery.NullTimestamp `bigquery:"finished_ts"` // NULLABLE

	Status       string `bigquery:"status"`        // REQUIRED
	ErrorMessage string `bigquery:"error_message"` // NULLABLE

	EmailsFound        int64 `bigquery:"emails_found"`
	PDFsDownloaded     int64 `bigquery:"pdfs_downloaded"`
	TransactionsParsed int64 `bigquery:"transactions_parsed"`
	NewTransactions    int64 `bigquery:"new_transactions"`

	BanksProcessed []string `bigquery:"banks_processed"` // REPEATED STRING
	Errors         []string `bigquery:"errors"`          // REPEATED STRING
}

// NewSyncRunRow converts a run summary for insertion.
func NewSyncRunRow(r domain.SyncResult) *SyncRunRow {
	status := SyncRunSucceeded
	if !r.Success {
		status = SyncRunFailed
	}

	errMsg := r.Error
	if errMsg == "" && len(r.Errors) > 0 {
		errMsg = strings.Join(r.Errors, "; ")
	}
	const maxLen = 2000
	if len(errMsg) > maxLen {
		errMsg = errMsg[:maxLen]
	}

	banks := make([]string, 0, len(r.BanksProcessed))
	for _, b := range r.BanksProcessed {
		banks = append(banks, string(b))
	}

	return &SyncRunRow{
		SyncRunID:          r.RunID,
		StartedTS:          r.StartedAt,
		FinishedTS:         bigquery.NullTimestamp{Timestamp: r.FinishedAt, Valid: !r.FinishedAt.IsZero()},
		Status:             status,
		ErrorMessage:       errMsg,
		EmailsFound:        int64(r.EmailsFound),
		PDFsDownloaded:     int64(r.PDFsDownloaded),
		TransactionsParsed: int64(r.TransactionsParsed),
		NewTransactions:    int64(r.NewTransactions),
		BanksProcessed:     banks,
		Errors:             append([]string(nil), r.Errors...),
	}
}

// Save implements bigquery.ValueSaver, keyed by the run id.
func (r *SyncRunRow) Save() (map[string]bigquery.Value, string, error) {
	schema, err := syncRunSchema()
	if err != nil {
		return nil, "", fmt.Errorf("SyncRunRow: infer schema: %w", err)
	}
	return (&bigquery.StructSaver{Struct: r, Schema: schema, InsertID: r.SyncRunID}).Save()
}
