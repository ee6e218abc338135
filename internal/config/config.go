// Package config loads statement-sync configuration from defaults, an
// optional YAML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/dvloznov/statement-sync/internal/domain"
	"github.com/dvloznov/statement-sync/internal/infra/bigquery"
	"github.com/dvloznov/statement-sync/internal/mail"
	"github.com/dvloznov/statement-sync/internal/pipeline"
	"github.com/dvloznov/statement-sync/internal/statement"
	"github.com/dvloznov/statement-sync/internal/store"
)

// EnvPrefix prefixes every statement-sync environment variable.
const EnvPrefix = "STATEMENT_SYNC_"

const maxFetchConcurrency = 16

// Config holds the complete application configuration.
type Config struct {
	Gmail    GmailConfig    `yaml:"gmail"`
	Store    StoreConfig    `yaml:"store"`
	Parser   ParserConfig   `yaml:"parser"`
	Archive  ArchiveConfig  `yaml:"archive"`
	BigQuery BigQueryConfig `yaml:"bigquery"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GmailConfig holds mailbox access and search limits.
type GmailConfig struct {
	CredentialsFile  string `yaml:"credentials_file"`
	TokenFile        string `yaml:"token_file"`
	LookbackDays     int    `yaml:"lookback_days"`
	MaxMessages      int    `yaml:"max_messages"`
	MaxResults       int64  `yaml:"max_results"`
	FetchConcurrency int    `yaml:"fetch_concurrency"`
}

// StoreConfig holds the transaction file location.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ParserConfig selects and tunes the statement parser.
type ParserConfig struct {
	Mode           string            `yaml:"mode"`
	CategoriesFile string            `yaml:"categories_file"`
	Passwords      map[string]string `yaml:"passwords"` // keyed by bank id
	Gemini         GeminiConfig      `yaml:"gemini"`
}

// GeminiConfig enables the model fallback parser.
type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// ArchiveConfig enables archiving of downloaded statements to GCS.
type ArchiveConfig struct {
	GCSBucket string `yaml:"gcs_bucket"`
}

// BigQueryConfig enables the warehouse mirror.
type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`
}

// WorkerConfig controls the scheduled worker.
type WorkerConfig struct {
	Schedule    string `yaml:"schedule"`
	QueueBuffer int    `yaml:"queue_buffer"` // bounds blocking publishes; ticks never queue behind a run
	RunOnStart  bool   `yaml:"run_on_start"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load builds the configuration. path names an optional YAML file; a
// missing .env file is ignored. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// godotenv never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnvVars()
	return cfg, nil
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Gmail.CredentialsFile = "credentials.json"
	c.Gmail.TokenFile = "token.json"
	c.Gmail.LookbackDays = mail.DefaultLookbackDays
	c.Gmail.MaxMessages = pipeline.DefaultMaxMessages
	c.Gmail.MaxResults = pipeline.DefaultMaxResults
	c.Gmail.FetchConcurrency = pipeline.DefaultFetchConcurrency

	c.Store.Path = store.DefaultPath
	c.Parser.Mode = statement.ModePDF
	c.Parser.Gemini.Model = statement.DefaultModelName
	c.BigQuery.DatasetID = bigquery.DefaultDatasetID

	c.Worker.Schedule = "0 */6 * * *"
	c.Worker.QueueBuffer = 10
	c.Worker.RunOnStart = true

	c.Logging.Level = "info"
	c.Logging.Format = "console"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	setString(&c.Gmail.CredentialsFile, "CREDENTIALS_FILE")
	setString(&c.Gmail.TokenFile, "TOKEN_FILE")
	setInt(&c.Gmail.LookbackDays, "LOOKBACK_DAYS")
	setInt(&c.Gmail.MaxMessages, "MAX_MESSAGES")
	if v := os.Getenv(EnvPrefix + "MAX_RESULTS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Gmail.MaxResults = n
		}
	}
	setInt(&c.Gmail.FetchConcurrency, "FETCH_CONCURRENCY")

	setString(&c.Store.Path, "STORE_PATH")

	setString(&c.Parser.Mode, "PARSER_MODE")
	setString(&c.Parser.CategoriesFile, "CATEGORIES_FILE")
	for _, id := range []domain.BankID{domain.BankSBI, domain.BankHDFC, domain.BankAxis, domain.BankSCB} {
		if v := os.Getenv(EnvPrefix + "PASSWORD_" + string(id)); v != "" {
			if c.Parser.Passwords == nil {
				c.Parser.Passwords = make(map[string]string)
			}
			c.Parser.Passwords[string(id)] = v
		}
	}
	if v := os.Getenv(EnvPrefix + "GEMINI_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Parser.Gemini.Enabled = b
		}
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.Parser.Gemini.APIKey = v
	}
	setString(&c.Parser.Gemini.Model, "GEMINI_MODEL")

	if v := os.Getenv("GCS_BUCKET"); v != "" {
		c.Archive.GCSBucket = v
	}

	setString(&c.BigQuery.ProjectID, "BQ_PROJECT")
	setString(&c.BigQuery.DatasetID, "BQ_DATASET")

	setString(&c.Worker.Schedule, "SCHEDULE")
	setInt(&c.Worker.QueueBuffer, "QUEUE_BUFFER")
	if v := os.Getenv(EnvPrefix + "RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Worker.RunOnStart = b
		}
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}

func setString(dst *string, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) {
	if v := os.Getenv(EnvPrefix + name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Gmail.LookbackDays <= 0 {
		errs = append(errs, fmt.Errorf("gmail.lookback_days must be positive, got %d", c.Gmail.LookbackDays))
	}
	if c.Gmail.MaxMessages <= 0 {
		errs = append(errs, fmt.Errorf("gmail.max_messages must be positive, got %d", c.Gmail.MaxMessages))
	}
	if c.Gmail.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("gmail.max_results must be positive, got %d", c.Gmail.MaxResults))
	}
	if c.Gmail.FetchConcurrency < 1 || c.Gmail.FetchConcurrency > maxFetchConcurrency {
		errs = append(errs, fmt.Errorf("gmail.fetch_concurrency must be between 1 and %d, got %d", maxFetchConcurrency, c.Gmail.FetchConcurrency))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}

	switch c.Parser.Mode {
	case statement.ModePDF, statement.ModeSample:
	default:
		errs = append(errs, fmt.Errorf("parser.mode must be %q or %q, got %q", statement.ModePDF, statement.ModeSample, c.Parser.Mode))
	}
	for id := range c.Parser.Passwords {
		if domain.ParseBankID(id) == domain.BankUnknown {
			errs = append(errs, fmt.Errorf("parser.passwords: unknown bank %q", id))
		}
	}
	if c.Parser.Gemini.Enabled && c.Parser.Gemini.APIKey == "" {
		errs = append(errs, errors.New("parser.gemini.api_key (GOOGLE_API_KEY) is required when gemini is enabled"))
	}

	if c.BigQuery.ProjectID != "" && c.BigQuery.DatasetID == "" {
		errs = append(errs, errors.New("bigquery.dataset_id is required when bigquery.project_id is set"))
	}

	if _, err := cron.ParseStandard(c.Worker.Schedule); err != nil {
		errs = append(errs, fmt.Errorf("worker.schedule: %w", err))
	}
	if c.Worker.QueueBuffer < 1 {
		errs = append(errs, fmt.Errorf("worker.queue_buffer must be positive, got %d", c.Worker.QueueBuffer))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// BankPasswords returns the statement passwords keyed by bank.
func (c *Config) BankPasswords() map[domain.BankID]string {
	out := make(map[domain.BankID]string, len(c.Parser.Passwords))
	for id, pw := range c.Parser.Passwords {
		if bankID := domain.ParseBankID(id); bankID != domain.BankUnknown {
			out[bankID] = pw
		}
	}
	return out
}

// ArchiveEnabled reports whether statements are archived to GCS.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.GCSBucket != ""
}

// MirrorEnabled reports whether runs are mirrored to BigQuery.
func (c *Config) MirrorEnabled() bool {
	return c.BigQuery.ProjectID != ""
}
