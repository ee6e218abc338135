package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-sync/internal/app"
	"github.com/dvloznov/statement-sync/internal/archive"
	"github.com/dvloznov/statement-sync/internal/bank"
	"github.com/dvloznov/statement-sync/internal/config"
	"github.com/dvloznov/statement-sync/internal/domain"
	infraBQ "github.com/dvloznov/statement-sync/internal/infra/bigquery"
	"github.com/dvloznov/statement-sync/internal/logger"
	"github.com/dvloznov/statement-sync/internal/mail"
	"github.com/dvloznov/statement-sync/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		runSync()
	case "transactions":
		runTransactions()
	case "queries":
		runQueries()
	case "parse":
		runParse()
	case "status":
		runStatus()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Sync CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  sync          Search Gmail for card statements and import their transactions")
	fmt.Println("  transactions  List stored transactions")
	fmt.Println("  queries       Print the Gmail search queries")
	fmt.Println("  parse         Parse a single statement PDF (local path or gs:// URI)")
	fmt.Println("  status        Check the Gmail connection and the last sync runs")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nEvery command accepts -config FILE, -store PATH and -log-level LEVEL.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// commonFlags are shared by every command.
type commonFlags struct {
	configPath string
	storePath  string
	logLevel   string
}

func newFlagSet(name string) (*flag.FlagSet, *commonFlags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cf := &commonFlags{}
	fs.StringVar(&cf.configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	fs.StringVar(&cf.storePath, "store", "", "Transaction file (overrides config)")
	fs.StringVar(&cf.logLevel, "log-level", "", "Log level (overrides config)")
	return fs, cf
}

// setup loads and validates configuration, applies flag overrides and
// returns a context carrying the configured logger.
func setup(cf *commonFlags, timeout time.Duration) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger) {
	cfg, err := config.Load(cf.configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cf.storePath != "" {
		cfg.Store.Path = cf.storePath
	}
	if cf.logLevel != "" {
		cfg.Logging.Level = cf.logLevel
	}

	log := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, log), cancel, cfg, log
}

func runSync() {
	fs, cf := newFlagSet("sync")
	mode := fs.String("mode", "", "Parser mode: pdf or sample (overrides config)")
	maxMessages := fs.Int("max-messages", 0, "Messages to process per run (overrides config)")
	asJSON := fs.Bool("json", false, "Print the run result as JSON")
	fs.Parse(os.Args[2:])

	ctx, cancel, cfg, log := setup(cf, 10*time.Minute)
	defer cancel()
	if *mode != "" {
		cfg.Parser.Mode = *mode
	}
	if *maxMessages > 0 {
		cfg.Gmail.MaxMessages = *maxMessages
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	result := a.Syncer.Run(ctx)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode result")
		}
	} else {
		printResult(result)
	}

	if !result.Success {
		os.Exit(1)
	}
}

func printResult(r domain.SyncResult) {
	if !r.Success {
		fmt.Printf("Sync failed: %s\n", r.Error)
		return
	}
	banks := make([]string, 0, len(r.BanksProcessed))
	for _, b := range r.BanksProcessed {
		banks = append(banks, string(b))
	}

	fmt.Println("\n=== Sync Result ===")
	fmt.Printf("Run ID:               %s\n", r.RunID)
	fmt.Printf("Emails found:         %d\n", r.EmailsFound)
	fmt.Printf("PDFs downloaded:      %d\n", r.PDFsDownloaded)
	fmt.Printf("Transactions parsed:  %d\n", r.TransactionsParsed)
	fmt.Printf("New transactions:     %d\n", r.NewTransactions)
	fmt.Printf("Banks:                %s\n", strings.Join(banks, ", "))
	fmt.Printf("Duration:             %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	if len(r.Errors) > 0 {
		fmt.Printf("\n=== Errors (%d) ===\n", len(r.Errors))
		for i, e := range r.Errors {
			fmt.Printf("%d. %s\n", i+1, e)
		}
	}
	fmt.Println()
}

func runTransactions() {
	fs, cf := newFlagSet("transactions")
	bankFlag := fs.String("bank", "", "Only show transactions from this bank")
	limit := fs.Int("limit", 0, "Show at most this many transactions (most recent first)")
	source := fs.String("source", "file", "Where to read from: file or bigquery")
	days := fs.Int("days", 90, "Lookback window in days for -source bigquery")
	fs.Parse(os.Args[2:])

	ctx, cancel, cfg, log := setup(cf, time.Minute)
	defer cancel()

	var txs []domain.Transaction
	switch *source {
	case "file":
		txs = store.NewFileStore(cfg.Store.Path).Load(ctx)
	case "bigquery":
		if !cfg.MirrorEnabled() {
			log.Fatal().Msg("BigQuery is not configured (set STATEMENT_SYNC_BQ_PROJECT)")
		}
		mirrored, err := readMirror(ctx, cfg, *days)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to query BigQuery")
		}
		txs = mirrored
	default:
		log.Fatal().Str("source", *source).Msg("Unknown source, use file or bigquery")
	}

	txs = filterTransactions(txs, *bankFlag, *limit)
	printTransactions(txs)
}

// readMirror loads the last days of mirrored transactions.
func readMirror(ctx context.Context, cfg *config.Config, days int) ([]domain.Transaction, error) {
	repo, err := infraBQ.NewRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.DatasetID)
	if err != nil {
		return nil, err
	}
	defer repo.Close()

	end := time.Now()
	rows, err := repo.QueryTransactionsByDateRange(ctx, end.AddDate(0, 0, -days), end)
	if err != nil {
		return nil, err
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txs = append(txs, r.ToTransaction())
	}
	return txs, nil
}

// filterTransactions keeps the given bank (when set), orders by date
// descending and applies limit.
func filterTransactions(txs []domain.Transaction, bankFilter string, limit int) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	want := domain.ParseBankID(bankFilter)
	for _, t := range txs {
		if bankFilter != "" && t.Bank != want {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func printTransactions(txs []domain.Transaction) {
	fmt.Printf("\n=== Transactions (%d) ===\n", len(txs))
	for i, t := range txs {
		fmt.Printf("\n%d. %s\n", i+1, t.Description)
		fmt.Printf("   Date:     %s\n", t.Date)
		fmt.Printf("   Amount:   %s INR (%s)\n", t.Amount.StringFixed(2), t.Type)
		fmt.Printf("   Category: %s\n", t.Category)
		fmt.Printf("   Bank:     %s\n", t.Bank)
		fmt.Printf("   File:     %s\n", t.Filename)
	}
	fmt.Println()
}

func runQueries() {
	fs, cf := newFlagSet("queries")
	fs.Parse(os.Args[2:])

	_, cancel, cfg, _ := setup(cf, time.Minute)
	defer cancel()

	for _, q := range mail.Queries(bank.Catalog, cfg.Gmail.LookbackDays) {
		fmt.Println(q)
	}
}

func runParse() {
	fs, cf := newFlagSet("parse")
	file := fs.String("file", "", "Statement PDF: local path or gs://bucket/object")
	bankFlag := fs.String("bank", "", "Issuing bank: SBI, HDFC, AXIS or SCB")
	mode := fs.String("mode", "", "Parser mode: pdf or sample (overrides config)")
	save := fs.Bool("save", false, "Merge the parsed transactions into the store")
	fs.Parse(os.Args[2:])

	if *file == "" {
		fmt.Fprintln(os.Stderr, "Usage: cli parse -file PATH|gs://URI -bank BANK")
		os.Exit(1)
	}

	ctx, cancel, cfg, log := setup(cf, 5*time.Minute)
	defer cancel()
	if *mode != "" {
		cfg.Parser.Mode = *mode
	}

	data, filename, err := readStatement(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("Failed to read statement")
	}

	bankID := domain.ParseBankID(*bankFlag)
	if bankID == domain.BankUnknown && *bankFlag != "" {
		log.Warn().Str("bank", *bankFlag).Msg("Unknown bank, trying every layout")
	}

	parser, err := app.NewParser(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build parser")
	}

	txs, err := parser.Parse(ctx, data, bankID, filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Parse failed")
	}
	printTransactions(txs)

	if *save {
		st := store.NewFileStore(cfg.Store.Path)
		added, err := store.Upsert(ctx, st, txs)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to save transactions")
		}
		fmt.Printf("Saved %d new transactions to %s\n", len(added), st.Path())
	}
}

// readStatement loads a PDF from disk or GCS.
func readStatement(ctx context.Context, location string) ([]byte, string, error) {
	if !strings.HasPrefix(location, "gs://") {
		data, err := os.ReadFile(location)
		return data, filepath.Base(location), err
	}

	bucket, _, err := archive.ParseGCSURI(location)
	if err != nil {
		return nil, "", err
	}
	a, err := archive.NewGCSArchiver(ctx, bucket)
	if err != nil {
		return nil, "", err
	}
	defer a.Close()

	data, err := a.FetchFromGCS(ctx, location)
	return data, archive.ExtractFilenameFromGCSURI(location), err
}

func runStatus() {
	fs, cf := newFlagSet("status")
	runs := fs.Int("runs", 5, "Recent sync runs to show when BigQuery is configured")
	fs.Parse(os.Args[2:])

	ctx, cancel, cfg, log := setup(cf, time.Minute)
	defer cancel()

	fmt.Println("\n=== Gmail ===")
	svc, err := app.ConnectGmail(ctx, cfg)
	if err != nil {
		fmt.Printf("Connected: no (%v)\n", err)
	} else if profile, err := svc.Profile(ctx); err != nil {
		fmt.Printf("Connected: no (%v)\n", err)
	} else {
		fmt.Println("Connected: yes")
		fmt.Printf("Account:   %s\n", profile.EmailAddress)
		fmt.Printf("Messages:  %d\n", profile.MessagesTotal)
	}

	fmt.Println("\n=== Store ===")
	fmt.Printf("Path:         %s\n", cfg.Store.Path)
	fmt.Printf("Transactions: %d\n", len(store.NewFileStore(cfg.Store.Path).Load(ctx)))

	if !cfg.MirrorEnabled() {
		fmt.Println()
		return
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer a.Close()

	rows, err := a.Mirror.ListRecentSyncRuns(ctx, *runs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list sync runs")
	}
	fmt.Printf("\n=== Recent Sync Runs (%d) ===\n", len(rows))
	for _, r := range rows {
		fmt.Printf("%s  %-7s  emails=%d pdfs=%d parsed=%d new=%d\n",
			r.StartedTS.Format(time.RFC3339), r.Status,
			r.EmailsFound, r.PDFsDownloaded, r.TransactionsParsed, r.NewTransactions)
		if r.ErrorMessage != "" {
			fmt.Printf("    %s\n", r.ErrorMessage)
		}
	}
	fmt.Println()
}
