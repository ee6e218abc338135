package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"

	"github.com/dvloznov/statement-sync/internal/logger"
)

// Row schemas are inferred once from the row structs. StructSaver only
// emits the columns named by its schema.
var (
	transactionSchema = sync.OnceValues(func() (bigquery.Schema, error) {
		return bigquery.InferSchema(TransactionRow{})
	})
	syncRunSchema = sync.OnceValues(func() (bigquery.Schema, error) {
		return bigquery.InferSchema(SyncRunRow{})
	})
)

// EnsureTablesWithClient creates the transactions and sync_runs tables when
// they do not exist. The dataset itself must already exist.
func EnsureTablesWithClient(ctx context.Context, client *bigquery.Client, datasetID string) error {
	txSchema, err := transactionSchema()
	if err != nil {
		return fmt.Errorf("EnsureTables: infer transactions schema: %w", err)
	}
	runSchema, err := syncRunSchema()
	if err != nil {
		return fmt.Errorf("EnsureTables: infer sync_runs schema: %w", err)
	}

	tables := []struct {
		name string
		meta *bigquery.TableMetadata
	}{
		{
			name: transactionsTable,
			meta: &bigquery.TableMetadata{
				Schema:           txSchema,
				TimePartitioning: &bigquery.TimePartitioning{Field: "transaction_date"},
			},
		},
		{
			name: syncRunsTable,
			meta: &bigquery.TableMetadata{
				Schema:           runSchema,
				TimePartitioning: &bigquery.TimePartitioning{Field: "started_ts"},
			},
		},
	}

	log := logger.FromContext(ctx)
	ds := client.Dataset(datasetID)
	for _, t := range tables {
		table := ds.Table(t.name)
		if _, err := table.Metadata(ctx); err == nil {
			continue
		} else if !isNotFound(err) {
			return fmt.Errorf("EnsureTables: read %s metadata: %w", t.name, err)
		}

		if err := table.Create(ctx, t.meta); err != nil {
			return fmt.Errorf("EnsureTables: create %s: %w", t.name, err)
		}
		log.Info().Str("dataset", datasetID).Str("table", t.name).Msg("Created table")
	}
	return nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
