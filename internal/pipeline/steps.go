package pipeline

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/statement-sync/internal/bank"
	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/logger"
	"github.com/dvloznov/statement-sync/internal/mail"
	"github.com/dvloznov/statement-sync/internal/store"
)

// PipelineStep represents a single step of a sync run.
// A returned error aborts the run; recoverable failures are recorded on
// the run result instead.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Result *domain.SyncResult

	Fetcher      *mail.Fetcher
	MessageIDs   []string
	Messages     []StatementMessage
	Transactions []domain.Transaction

	// Added holds the records the persist step appended to the store.
	Added []domain.Transaction

	// Interrupted is the cancellation that arrived after parsing, if any.
	Interrupted error
}

// committer is implemented by steps that still run when the context is
// cancelled after parsing, so parsed transactions are not lost. They run on
// a context that can no longer be cancelled.
type committer interface {
	commitsParsedResults()
}

// StatementMessage is a fetched message with its classified bank and PDF
// attachments.
type StatementMessage struct {
	ID          string
	Bank        domain.BankID
	Attachments []domain.AttachmentRef
}

// Step 0: ConnectStep opens the mail service.
type ConnectStep struct {
	Connect Connector
}

func (s *ConnectStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Connect == nil {
		return errors.New("connect: no mail connector configured")
	}
	svc, err := s.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if svc == nil {
		return errors.New("connect: mail connector returned no service")
	}
	state.Fetcher = mail.NewFetcher(svc)
	return nil
}

// Step 1: SearchStep runs every query and collects the distinct message ids.
type SearchStep struct {
	Queries    []string
	MaxResults int64
}

func (s *SearchStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	var ids []string
	for _, q := range s.Queries {
		found, err := state.Fetcher.Search(ctx, q, s.MaxResults)
		if err != nil {
			state.Result.AddError(err)
			continue
		}
		ids = append(ids, found...)
	}

	state.MessageIDs = mail.Dedup(ids)
	state.Result.EmailsFound = len(state.MessageIDs)
	log.Info().Int("emails_found", state.Result.EmailsFound).Msg("Collected statement emails")
	return nil
}

// Step 2: ExtractStep fetches the first MaxMessages messages, classifies
// their sender and lists their PDF attachments.
type ExtractStep struct {
	MaxMessages int
	Catalog     []bank.Issuer
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	ids := state.MessageIDs
	if s.MaxMessages > 0 && len(ids) > s.MaxMessages {
		ids = ids[:s.MaxMessages]
	}

	catalog := s.Catalog
	if catalog == nil {
		catalog = bank.Catalog
	}

	for _, id := range ids {
		msg, err := state.Fetcher.Get(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("message_id", id).Msg("Failed to fetch message")
			state.Result.AddError(err)
			continue
		}

		bankID := bank.ClassifyWith(catalog, msg.From)
		state.Result.AddBank(bankID)

		refs := mail.ExtractPDFAttachments(msg.Payload)
		log.Debug().
			Str("message_id", id).
			Str("bank", string(bankID)).
			Int("attachments", len(refs)).
			Msg("Extracted attachments")

		state.Messages = append(state.Messages, StatementMessage{
			ID:          msg.ID,
			Bank:        bankID,
			Attachments: refs,
		})
	}
	return nil
}

// Step 3: ParseStep downloads, archives and parses every attachment.
type ParseStep struct {
	Syncer *Syncer
}

type download struct {
	data []byte
	err  error
}

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	for _, msg := range state.Messages {
		downloads := s.download(ctx, state.Fetcher, msg)

		for i, ref := range msg.Attachments {
			d := downloads[i]
			if d.err != nil {
				log.Error().Err(d.err).Str("message_id", msg.ID).Str("filename", ref.Filename).Msg("Failed to download attachment")
				state.Result.AddError(d.err)
				continue
			}
			state.Result.PDFsDownloaded++

			if s.Syncer.archiver != nil {
				uri, err := s.Syncer.archiver.Archive(ctx, msg.Bank, msg.ID, ref.Filename, d.data)
				if err != nil {
					log.Error().Err(err).Str("filename", ref.Filename).Msg("Failed to archive statement")
					state.Result.AddError(err)
				} else {
					log.Debug().Str("gcs_uri", uri).Msg("Archived statement")
				}
			}

			txs, err := s.Syncer.parser.Parse(ctx, d.data, msg.Bank, ref.Filename)
			if err != nil {
				log.Error().Err(err).Str("filename", ref.Filename).Str("bank", string(msg.Bank)).Msg("Failed to parse statement")
				state.Result.AddError(err)
				continue
			}

			state.Transactions = append(state.Transactions, txs...)
			state.Result.TransactionsParsed += len(txs)
			log.Info().Str("filename", ref.Filename).Int("transactions", len(txs)).Msg("Parsed statement")
		}
	}
	return nil
}

// download fetches a message's attachments with bounded concurrency.
// Results are indexed by attachment position.
func (s *ParseStep) download(ctx context.Context, fetcher *mail.Fetcher, msg StatementMessage) []download {
	results := make([]download, len(msg.Attachments))

	var g errgroup.Group
	g.SetLimit(s.Syncer.fetchConcurrency)
	for i, ref := range msg.Attachments {
		g.Go(func() error {
			data, err := fetcher.GetAttachment(ctx, msg.ID, ref.AttachmentID)
			results[i] = download{data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Step 4: PersistStep merges the run's transactions into the store and
// mirrors the new ones.
type PersistStep struct {
	Syncer *Syncer
}

func (s *PersistStep) commitsParsedResults() {}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	if len(state.Transactions) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	added, err := store.Upsert(ctx, s.Syncer.store, state.Transactions)
	if err != nil {
		log.Error().Err(err).Msg("Failed to persist transactions")
		state.Result.AddError(err)
		return nil
	}
	state.Result.NewTransactions = len(added)
	state.Added = added

	if s.Syncer.mirror != nil && len(added) > 0 {
		if err := s.Syncer.mirror.InsertTransactions(ctx, state.Result.RunID, state.Added); err != nil {
			log.Error().Err(err).Msg("Failed to mirror transactions")
			state.Result.AddError(err)
		}
	}
	return nil
}

// Step 5: DoneStep marks the run successful and records it in the mirror.
type DoneStep struct {
	Syncer *Syncer
}

func (s *DoneStep) commitsParsedResults() {}

func (s *DoneStep) Execute(ctx context.Context, state *PipelineState) error {
	if state.Interrupted != nil {
		state.Result.AddError(fmt.Errorf("sync interrupted after parsing: %w", state.Interrupted))
	}
	state.Result.Success = true
	state.Result.FinishedAt = s.Syncer.now()

	if s.Syncer.mirror != nil {
		if err := s.Syncer.mirror.RecordSyncRun(ctx, *state.Result); err != nil {
			log := logger.FromContext(ctx)
			log.Error().Err(err).Msg("Failed to record sync run")
			state.Result.AddError(err)
		}
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially and stops at the
// first step error. Cancellation stops the pipeline before the next step
// unless that step is a committer.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		stepCtx := ctx
		if err := ctx.Err(); err != nil {
			if _, ok := step.(committer); !ok {
				return fmt.Errorf("pipeline step %d: %w", i, err)
			}
			if state.Interrupted == nil {
				state.Interrupted = err
				log := logger.FromContext(ctx)
				log.Warn().Err(err).Msg("Sync cancelled after parsing, saving parsed transactions")
			}
			stepCtx = context.WithoutCancel(ctx)
		}
		if err := step.Execute(stepCtx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i, err)
		}
	}
	return nil
}
