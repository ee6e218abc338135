// Package pipeline runs statement sync: search the mailbox, fetch
// statement attachments, parse them and merge the transactions into the
// store.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-sync/internal/archive"
	"github.com/dvloznov/statement-sync/internal/bank"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
	"github.com/dvloznov/statement-sync/internal/mail"
	"github.com/dvloznov/statement-sync/internal/statement"
)

const (
	// DefaultMaxMessages bounds how many messages one run processes.
	DefaultMaxMessages = 5
	// DefaultMaxResults is the per-query search limit.
	DefaultMaxResults = 10
	// DefaultFetchConcurrency bounds parallel attachment downloads per message.
	DefaultFetchConcurrency = 2
)

// Options configures a Syncer. Connect, Parser and Store are required.
type Options struct {
	Connect Connector
	Queries []string // defaults to mail.DefaultQueries()
	Catalog []bank.Issuer

	MaxMessages      int
	MaxResults       int64
	FetchConcurrency int

	Parser statement.Parser
	Store  TransactionStore

	Archiver archive.Archiver // optional
	Mirror   Mirror           // optional

	Now func() time.Time
}

// Syncer runs sync passes over the mailbox.
type Syncer struct {
	connect          Connector
	queries          []string
	catalog          []bank.Issuer
	maxMessages      int
	maxResults       int64
	fetchConcurrency int
	parser           statement.Parser
	store            TransactionStore
	archiver         archive.Archiver
	mirror           Mirror
	now              func() time.Time
}

// NewSyncer validates opts and fills in defaults.
func NewSyncer(opts Options) (*Syncer, error) {
	if opts.Connect == nil {
		return nil, errors.New("NewSyncer: connector is required")
	}
	if opts.Parser == nil {
		return nil, errors.New("NewSyncer: parser is required")
	}
	if opts.Store == nil {
		return nil, errors.New("NewSyncer: store is required")
	}

	s := &Syncer{
		connect:          opts.Connect,
		queries:          opts.Queries,
		catalog:          opts.Catalog,
		maxMessages:      opts.MaxMessages,
		maxResults:       opts.MaxResults,
		fetchConcurrency: opts.FetchConcurrency,
		parser:           statement.Safe(opts.Parser),
		store:            opts.Store,
		archiver:         opts.Archiver,
		mirror:           opts.Mirror,
		now:              opts.Now,
	}
	if s.queries == nil {
		s.queries = mail.DefaultQueries()
	}
	if s.catalog == nil {
		s.catalog = bank.Catalog
	}
	if s.maxMessages <= 0 {
		s.maxMessages = DefaultMaxMessages
	}
	if s.maxResults <= 0 {
		s.maxResults = DefaultMaxResults
	}
	if s.fetchConcurrency <= 0 {
		s.fetchConcurrency = DefaultFetchConcurrency
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// newPipeline wires the sync steps in run order.
func (s *Syncer) newPipeline() *Pipeline {
	return NewPipeline(
		&ConnectStep{Connect: s.connect},
		&SearchStep{Queries: s.queries, MaxResults: s.maxResults},
		&ExtractStep{MaxMessages: s.maxMessages, Catalog: s.catalog},
		&ParseStep{Syncer: s},
		&PersistStep{Syncer: s},
		&DoneStep{Syncer: s},
	)
}

// Run performs one sync pass. Per-item failures are collected in the
// result's error list; only a failure to connect, or cancellation before
// parsing has finished, aborts the run with zeroed counters.
func (s *Syncer) Run(ctx context.Context) domain.SyncResult {
	result := domain.SyncResult{
		RunID:          uuid.NewString(),
		StartedAt:      s.now(),
		BanksProcessed: []domain.BankID{},
		Errors:         []string{},
	}
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{"run_id": result.RunID})
	ctx = logger.WithContext(ctx, log)
	log.Info().Int("queries", len(s.queries)).Msg("Starting statement sync")

	state := &PipelineState{Result: &result}
	if err := s.newPipeline().Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Sync aborted")
		result.Abort(err)
		result.FinishedAt = s.now()
		if s.mirror != nil {
			if mErr := s.mirror.RecordSyncRun(ctx, result); mErr != nil {
				log.Error().Err(mErr).Msg("Failed to record sync run")
			}
		}
		return result
	}

	log.Info().
		Int("emails_found", result.EmailsFound).
		Int("pdfs_downloaded", result.PDFsDownloaded).
		Int("transactions_parsed", result.TransactionsParsed).
		Int("new_transactions", result.NewTransactions).
		Int("errors", len(result.Errors)).
		Msg("Statement sync finished")
	return result
}

// LoadTransactions returns everything currently in the store.
func (s *Syncer) LoadTransactions(ctx context.Context) []domain.Transaction {
	return s.store.Load(ctx)
}
