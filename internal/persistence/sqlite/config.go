package sqlite

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const memoryDSN = ":memory:"

// Config holds SQLite connection settings.
type Config struct {
	// DSN is the database file path, or ":memory:".
	DSN string

	// BusyTimeout sets how long to wait for database locks.
	BusyTimeout time.Duration

	// EnableForeignKeys enables foreign key constraint checking.
	EnableForeignKeys bool

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.).
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF).
	Synchronous string

	// CacheSize sets the page cache size in KB (negative for pages).
	CacheSize int

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsTable names the goose version table.
	MigrationsTable string
}

// DefaultConfig returns settings suited to the single-process service.
func DefaultConfig(path string) Config {
	return Config{
		DSN:               path,
		BusyTimeout:       30 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		CacheSize:         -2000,
		MaxOpenConns:      8,
		MaxIdleConns:      4,
		ConnMaxLifetime:   5 * time.Minute,
		MigrationsTable:   "schema_migrations",
	}
}

// TempFileTestConfig returns settings for a throwaway database file.
func TempFileTestConfig(path string) Config {
	return Config{
		DSN:               path,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		CacheSize:         -1000,
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   time.Minute,
		MigrationsTable:   "schema_migrations",
	}
}

var (
	validJournalModes = map[string]bool{
		"DELETE": true, "TRUNCATE": true, "PERSIST": true,
		"MEMORY": true, "WAL": true, "OFF": true,
	}
	validSyncModes = map[string]bool{
		"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true,
	}
)

// Validate checks the configuration for values SQLite would reject.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}
	if c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("connection limits cannot be negative")
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

// connectionString renders the DSN with one _pragma parameter per setting so
// that every pooled connection is configured identically.
func (c Config) connectionString() string {
	pragmas := url.Values{}
	add := func(name string, value any) {
		pragmas.Add("_pragma", fmt.Sprintf("%s(%v)", name, value))
	}

	add("busy_timeout", c.BusyTimeout.Milliseconds())
	if c.JournalMode != "" {
		add("journal_mode", strings.ToUpper(c.JournalMode))
	}
	if c.Synchronous != "" {
		add("synchronous", strings.ToUpper(c.Synchronous))
	}
	if c.EnableForeignKeys {
		add("foreign_keys", 1)
	}
	if c.CacheSize != 0 {
		add("cache_size", c.CacheSize)
	}

	separator := "?"
	if strings.Contains(c.DSN, "?") {
		separator = "&"
	}
	return c.DSN + separator + pragmas.Encode()
}

// ensureDirectory creates the parent directory of a file-backed database.
func (c Config) ensureDirectory() error {
	if c.DSN == memoryDSN || strings.HasPrefix(c.DSN, "file:") {
		return nil
	}
	dir := filepath.Dir(c.DSN)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}
	return nil
}
