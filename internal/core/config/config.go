// Package config handles configuration loading and validation for todosync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Outbound send backends.
const (
	OutboundLog  = "log"
	OutboundSMTP = "smtp"
)

// Config holds the application configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Sync       SyncConfig       `yaml:"sync"`
	Issues     IssuesConfig     `yaml:"issues"`
	Outbound   OutboundConfig   `yaml:"outbound"`
	Backup     BackupConfig     `yaml:"backup"`
	Digest     DigestConfig     `yaml:"digest"`
	Inbound    InboundConfig    `yaml:"inbound"`
	DataDir    string           `yaml:"-"` // set by caller, not from config file
}

// StorageConfig selects and tunes the durable store.
type StorageConfig struct {
	Backend      string `yaml:"backend"`        // file, sqlite, or postgres
	PostgresDSN  string `yaml:"postgres_dsn"`   // required for postgres
	MaxOpenConns int    `yaml:"max_open_conns"` // sql backends
	BusyTimeout  int    `yaml:"busy_timeout"`   // sqlite, milliseconds
}

// ClassifierConfig tunes the intent classifier.
type ClassifierConfig struct {
	// MinLength is the rune count unmatched text must exceed to become an add.
	MinLength int `yaml:"min_length"`
}

// ChannelsConfig holds per-channel options.
type ChannelsConfig struct {
	Chat  ChatConfig  `yaml:"chat"`
	Email EmailConfig `yaml:"email"`
	Sheet SheetConfig `yaml:"sheet"`
}

// ChatConfig holds chat channel options.
type ChatConfig struct {
	DefaultCountryCode string `yaml:"default_country_code"`
	ListLimit          int    `yaml:"list_limit"`
}

// EmailConfig holds email channel options.
type EmailConfig struct {
	ExtractItems     *bool `yaml:"extract_items"`
	NotifyOnComplete *bool `yaml:"notify_on_complete"`
	// ShortBodyLimit is the body length under which the subject is used when
	// the body alone is not actionable.
	ShortBodyLimit int `yaml:"short_body_limit"`
}

// SheetConfig holds sheet channel options.
type SheetConfig struct {
	DefaultPriority string `yaml:"default_priority"`
}

// SyncConfig holds synchronization windows and scheduling.
type SyncConfig struct {
	FanoutWindow int           `yaml:"fanout_window"`
	IssueWindow  int           `yaml:"issue_window"`
	ReportWindow int           `yaml:"report_window"`
	LogRetention int           `yaml:"log_retention"`
	Interval     time.Duration `yaml:"interval"`
}

// IssuesConfig configures the external issue tracker (GitHub via gh).
type IssuesConfig struct {
	Enabled *bool         `yaml:"enabled"` // nil = auto-detect gh on PATH
	Repo    string        `yaml:"repo"`
	GhPath  string        `yaml:"gh_path"`
	Timeout time.Duration `yaml:"timeout"`
	OnAdd   *bool         `yaml:"on_add"`
}

// OutboundConfig configures the outbound send capability.
type OutboundConfig struct {
	Backend string        `yaml:"backend"` // log or smtp
	Timeout time.Duration `yaml:"timeout"`
	LogFile string        `yaml:"log_file"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// SMTPConfig holds SMTP relay settings. The password is read from the
// environment variable named by PasswordEnv.
type SMTPConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`
	From        string `yaml:"from"`
}

// BackupConfig holds snapshot retention.
type BackupConfig struct {
	Retention int   `yaml:"retention"`
	OnSync    *bool `yaml:"on_sync"` // snapshot after each scheduled sync; default true
}

// DigestConfig configures the daily digest.
type DigestConfig struct {
	Recipient string `yaml:"recipient"`
	Recent    int    `yaml:"recent"`
	Template  string `yaml:"template"` // optional body template override
	SendAt    string `yaml:"send_at"`  // HH:MM local time for the scheduled digest; empty disables
}

// InboundConfig configures the spool directory watched by `todosync watch`.
type InboundConfig struct {
	SpoolDir string        `yaml:"spool_dir"`
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend:      BackendFile,
			MaxOpenConns: 2,
			BusyTimeout:  5000,
		},
		Classifier: ClassifierConfig{MinLength: 3},
		Channels: ChannelsConfig{
			Chat:  ChatConfig{DefaultCountryCode: "91", ListLimit: 5},
			Email: EmailConfig{ShortBodyLimit: 100},
			Sheet: SheetConfig{DefaultPriority: "Medium"},
		},
		Sync: SyncConfig{
			FanoutWindow: 5,
			IssueWindow:  3,
			ReportWindow: 10,
			LogRetention: 10,
			Interval:     15 * time.Minute,
		},
		Issues: IssuesConfig{
			GhPath:  "gh",
			Timeout: 10 * time.Second,
		},
		Outbound: OutboundConfig{
			Backend: OutboundLog,
			Timeout: 10 * time.Second,
			SMTP:    SMTPConfig{Port: 587},
		},
		Backup:  BackupConfig{Retention: 20},
		Digest:  DigestConfig{Recent: 3},
		Inbound: InboundConfig{Debounce: 500 * time.Millisecond},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.MaxOpenConns == 0 {
		c.Storage.MaxOpenConns = d.Storage.MaxOpenConns
	}
	if c.Storage.BusyTimeout == 0 {
		c.Storage.BusyTimeout = d.Storage.BusyTimeout
	}
	if c.Classifier.MinLength == 0 {
		c.Classifier.MinLength = d.Classifier.MinLength
	}
	if c.Channels.Chat.ListLimit == 0 {
		c.Channels.Chat.ListLimit = d.Channels.Chat.ListLimit
	}
	if c.Channels.Email.ShortBodyLimit == 0 {
		c.Channels.Email.ShortBodyLimit = d.Channels.Email.ShortBodyLimit
	}
	if c.Channels.Sheet.DefaultPriority == "" {
		c.Channels.Sheet.DefaultPriority = d.Channels.Sheet.DefaultPriority
	}
	if c.Sync.FanoutWindow == 0 {
		c.Sync.FanoutWindow = d.Sync.FanoutWindow
	}
	if c.Sync.IssueWindow == 0 {
		c.Sync.IssueWindow = d.Sync.IssueWindow
	}
	if c.Sync.ReportWindow == 0 {
		c.Sync.ReportWindow = d.Sync.ReportWindow
	}
	if c.Sync.LogRetention == 0 {
		c.Sync.LogRetention = d.Sync.LogRetention
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = d.Sync.Interval
	}
	if c.Issues.GhPath == "" {
		c.Issues.GhPath = d.Issues.GhPath
	}
	if c.Issues.Timeout == 0 {
		c.Issues.Timeout = d.Issues.Timeout
	}
	if c.Outbound.Backend == "" {
		c.Outbound.Backend = d.Outbound.Backend
	}
	if c.Outbound.Timeout == 0 {
		c.Outbound.Timeout = d.Outbound.Timeout
	}
	if c.Outbound.SMTP.Port == 0 {
		c.Outbound.SMTP.Port = d.Outbound.SMTP.Port
	}
	if c.Backup.Retention == 0 {
		c.Backup.Retention = d.Backup.Retention
	}
	if c.Digest.Recent == 0 {
		c.Digest.Recent = d.Digest.Recent
	}
	if c.Inbound.Debounce == 0 {
		c.Inbound.Debounce = d.Inbound.Debounce
	}
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend %q must be one of file, sqlite, postgres", c.Storage.Backend)
	}

	switch c.Outbound.Backend {
	case OutboundLog, OutboundSMTP:
	default:
		return fmt.Errorf("outbound.backend %q must be one of log, smtp", c.Outbound.Backend)
	}

	for name, v := range map[string]int{
		"classifier.min_length":    c.Classifier.MinLength,
		"channels.chat.list_limit": c.Channels.Chat.ListLimit,
		"sync.fanout_window":       c.Sync.FanoutWindow,
		"sync.issue_window":        c.Sync.IssueWindow,
		"sync.report_window":       c.Sync.ReportWindow,
		"sync.log_retention":       c.Sync.LogRetention,
		"backup.retention":         c.Backup.Retention,
		"digest.recent":            c.Digest.Recent,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be at least 1", name)
		}
	}

	if c.Digest.SendAt != "" {
		if _, err := time.Parse("15:04", c.Digest.SendAt); err != nil {
			return fmt.Errorf("digest.send_at %q must be HH:MM", c.Digest.SendAt)
		}
	}

	if c.Storage.MaxOpenConns < 1 {
		return fmt.Errorf("storage.max_open_conns must be at least 1")
	}

	return nil
}

// IssuesOnAdd reports whether Add should create a tracking issue.
func (c *Config) IssuesOnAdd() bool {
	return c.Issues.OnAdd == nil || *c.Issues.OnAdd
}

// EmailExtractItems reports whether email bodies are scanned for list items.
func (c *Config) EmailExtractItems() bool {
	return c.Channels.Email.ExtractItems == nil || *c.Channels.Email.ExtractItems
}

// EmailNotifyOnComplete reports whether email senders are notified on completion.
func (c *Config) EmailNotifyOnComplete() bool {
	return c.Channels.Email.NotifyOnComplete == nil || *c.Channels.Email.NotifyOnComplete
}

// BackupOnSync reports whether the scheduler snapshots after each sync.
func (c *Config) BackupOnSync() bool {
	return c.Backup.OnSync == nil || *c.Backup.OnSync
}

// StoreDir returns the directory holding the file backend's partitions.
func (c *Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}

// ReportsDir returns the directory unified reports are written to.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.DataDir, "reports")
}

// BackupsDir returns the directory snapshots are written to.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// SpoolDir returns the inbound spool directory.
func (c *Config) SpoolDir() string {
	if c.Inbound.SpoolDir != "" {
		return c.Inbound.SpoolDir
	}
	return filepath.Join(c.DataDir, "inbox")
}

// OutboxFile returns the file the log sender appends outbound messages to.
func (c *Config) OutboxFile() string {
	if c.Outbound.LogFile != "" {
		return c.Outbound.LogFile
	}
	return filepath.Join(c.DataDir, "outbox.log")
}
