package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

const syncRunsTable = "sync_runs"

// InsertSyncRunWithClient records one finished sync run.
func InsertSyncRunWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *SyncRunRow) error {
	inserter := client.Dataset(datasetID).Table(syncRunsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertSyncRun: inserting row: %w", err)
	}
	return nil
}

// ListRecentSyncRunsWithClient returns the most recent runs, newest first.
func ListRecentSyncRunsWithClient(ctx context.Context, client *bigquery.Client, datasetID string, limit int) ([]*SyncRunRow, error) {
	if limit <= 0 {
		limit = 10
	}

	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		ORDER BY started_ts DESC
		LIMIT @limit
	`, datasetID, syncRunsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "limit", Value: limit},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListRecentSyncRuns: query read: %w", err)
	}

	var rows []*SyncRunRow
	for {
		var r SyncRunRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentSyncRuns: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
