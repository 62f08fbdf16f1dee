package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/promptlens/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

// DBName is the database file name inside the data directory.
const DBName = "formats.db"

// Store is a SQLite-based store for reformat results.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.promptlens/data/formats.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".promptlens", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBName)

	// WAL lets the TUI and an MCP server share the file.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// FormatStore returns a FormatResultStore backed by this store.
func (s *Store) FormatStore() *FormatStore {
	return &FormatStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_format_results.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// schemaVersion returns the highest applied migration.
func (s *Store) schemaVersion() (int, error) {
	var version int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

// ==================== Format Store ====================

// FormatStore implements driven.FormatResultStore.
type FormatStore struct {
	store *Store
}

var _ driven.FormatResultStore = (*FormatStore)(nil)

// GetFormat returns the stored result for a fingerprint, or domain.ErrNotFound.
func (s *FormatStore) GetFormat(ctx context.Context, fp domain.Fingerprint) (string, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT formatted FROM format_results WHERE fingerprint = ?
	`, fp.String())

	var formatted string
	if err := row.Scan(&formatted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("scanning format result: %w", err)
	}
	return formatted, nil
}

// SaveFormat stores or replaces the result for a fingerprint.
func (s *FormatStore) SaveFormat(ctx context.Context, fp domain.Fingerprint, formatted, model string) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO format_results (fingerprint, formatted, model, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			formatted = excluded.formatted,
			model = excluded.model,
			created_at = excluded.created_at
	`, fp.String(), formatted, nullString(model), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving format result: %w", err)
	}
	return nil
}

// DeleteFormat removes the result for a fingerprint.
func (s *FormatStore) DeleteFormat(ctx context.Context, fp domain.Fingerprint) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM format_results WHERE fingerprint = ?", fp.String())
	if err != nil {
		return fmt.Errorf("deleting format result: %w", err)
	}
	return nil
}

// Count returns the number of stored results.
func (s *FormatStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM format_results").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting format results: %w", err)
	}
	return n, nil
}

// Purge removes results stored before cutoff and returns how many went.
func (s *FormatStore) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM format_results WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging format results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purging format results: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
