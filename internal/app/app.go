// Package app wires configuration into a ready-to-run Syncer for the
// command-line entry points.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-sync/internal/archive"
	"github.com/dvloznov/statement-sync/internal/bank"
	"github.com/dvloznov/statement-sync/internal/category"
	"github.com/dvloznov/statement-sync/internal/config"
	infraBQ "github.com/dvloznov/statement-sync/internal/infra/bigquery"
	"github.com/dvloznov/statement-sync/internal/logger"
	"github.com/dvloznov/statement-sync/internal/mail"
	"github.com/dvloznov/statement-sync/internal/pipeline"
	"github.com/dvloznov/statement-sync/internal/statement"
	"github.com/dvloznov/statement-sync/internal/store"
)

// App holds the components built from a Config.
type App struct {
	Config   *config.Config
	Store    *store.FileStore
	Parser   statement.Parser
	Syncer   *pipeline.Syncer

	// Archiver and Mirror are nil unless configured.
	Archiver *archive.GCSArchiver
	Mirror   *infraBQ.Repository

	closers []func() error
}

// New builds every component cfg enables. Optional cloud components are
// created eagerly so misconfiguration surfaces before the first run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg, Store: store.NewFileStore(cfg.Store.Path)}

	parser, err := NewParser(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Parser = parser

	if cfg.ArchiveEnabled() {
		archiver, err := archive.NewGCSArchiver(ctx, cfg.Archive.GCSBucket)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: archive: %w", err)
		}
		a.Archiver = archiver
		a.closers = append(a.closers, archiver.Close)
		log.Info().Str("bucket", cfg.Archive.GCSBucket).Msg("Archiving statements to GCS")
	}

	if cfg.MirrorEnabled() {
		repo, err := infraBQ.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: bigquery: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		if err := repo.EnsureTables(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("app: bigquery tables: %w", err)
		}
		a.Mirror = repo
		log.Info().Str("project", cfg.BigQuery.ProjectID).Str("dataset", cfg.BigQuery.DatasetID).Msg("Mirroring to BigQuery")
	}

	opts := pipeline.Options{
		Connect:          Connector(cfg),
		Queries:          mail.Queries(bank.Catalog, cfg.Gmail.LookbackDays),
		MaxMessages:      cfg.Gmail.MaxMessages,
		MaxResults:       cfg.Gmail.MaxResults,
		FetchConcurrency: cfg.Gmail.FetchConcurrency,
		Parser:           parser,
		Store:            a.Store,
	}
	// Interface fields stay nil rather than holding typed nil pointers.
	if a.Archiver != nil {
		opts.Archiver = a.Archiver
	}
	if a.Mirror != nil {
		opts.Mirror = a.Mirror
	}

	syncer, err := pipeline.NewSyncer(opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Syncer = syncer
	return a, nil
}

// Close releases cloud clients.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// Connector returns a mail connector that reads the OAuth client and token
// files named in cfg.
func Connector(cfg *config.Config) pipeline.Connector {
	return func(ctx context.Context) (mail.Service, error) {
		svc, err := ConnectGmail(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}

// ConnectGmail opens the Gmail service described by cfg.
func ConnectGmail(ctx context.Context, cfg *config.Config) (*mail.GmailService, error) {
	ts, err := mail.LoadTokenSource(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile)
	if err != nil {
		return nil, err
	}
	return mail.NewGmailService(ctx, ts)
}

// NewParser builds the statement parser selected by cfg.
func NewParser(ctx context.Context, cfg *config.Config) (statement.Parser, error) {
	categorizer := category.Default()
	if cfg.Parser.CategoriesFile != "" {
		c, err := category.LoadFile(cfg.Parser.CategoriesFile)
		if err != nil {
			return nil, fmt.Errorf("app: categories: %w", err)
		}
		categorizer = c
	}

	opts := statement.Options{
		Mode:        cfg.Parser.Mode,
		Categorizer: categorizer,
		Passwords:   cfg.BankPasswords(),
	}
	if cfg.Parser.Gemini.Enabled {
		model, err := statement.NewGenAIModel(ctx, cfg.Parser.Gemini.APIKey, cfg.Parser.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("app: gemini: %w", err)
		}
		opts.Fallback = statement.NewGeminiParser(model, categorizer)
	}
	return statement.New(opts)
}
