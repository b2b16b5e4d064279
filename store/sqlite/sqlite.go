/*
Package sqlite provides the durable on-device report store.

PURPOSE:
  Implements report.Store and syncer.Journal on SQLite. The report list is
  kept exactly as the dashboard persisted it: one key holding a
  JSON-encoded, most-recent-first array of at most report.MaxRecords
  records. The sync journal is a separate append-only table.

KEY TABLES:
  kv:           key/value pairs (reports live under ReportsKey)
  sync_journal: one row per remote interaction (push, pull, delete)

FAILURE SEMANTICS:
  - List() never fails: a missing key, unreadable row or corrupt JSON
    reads as an empty store and is logged.
  - Upsert()/Remove() return write errors (disk full, read-only file).

CONCURRENCY:
  Read-modify-write cycles run under a mutex, so concurrent HTTP handlers
  cannot tear the list. SQLite runs in WAL mode.

USAGE:
  store, err := sqlite.New("./opsreport.db", nil)
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - report/store.go: Interface definition
  - report/list.go: Upsert/Remove list rules shared with the memory store
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/opsreport/report"
	"github.com/warp/opsreport/syncer"
)

// ReportsKey is the kv key holding the report list.
const ReportsKey = "sysadmin_reports"

// journalTimeLayout is fixed-width so journal rows sort by text.
const journalTimeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements report.Store and syncer.Journal using SQLite.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *log.Logger
	now    func() time.Time
}

// New opens (or creates) the database at dbPath.
// Use ":memory:" for an in-memory database.
// If logger is nil, a default logger writing to stderr is used.
func New(dbPath string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, logger: logger, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Append-only log of remote interactions
	CREATE TABLE IF NOT EXISTS sync_journal (
		id TEXT PRIMARY KEY,
		at TEXT NOT NULL,
		op TEXT NOT NULL,
		report_date TEXT,
		outcome TEXT NOT NULL,
		reason TEXT,
		records INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sync_journal_at
		ON sync_journal(at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// REPORT STORE
// =============================================================================

// List returns the persisted records. Read problems yield an empty list.
func (s *Store) List(ctx context.Context) []report.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx)
}

func (s *Store) listLocked(ctx context.Context) []report.Record {
	raw, err := s.get(ctx, ReportsKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Printf("WARNING: reading reports failed, treating store as empty: %v", err)
		}
		return []report.Record{}
	}
	records, err := report.DecodeList(raw)
	if err != nil {
		s.logger.Printf("WARNING: stored reports are corrupt, treating store as empty: %v", err)
		return []report.Record{}
	}
	return records
}

// Upsert replaces or inserts rec and persists the truncated list.
func (s *Store) Upsert(ctx context.Context, rec report.Record) ([]report.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := report.Upsert(s.listLocked(ctx), rec, report.MaxRecords)
	if err := s.putList(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// Remove deletes the record for date. Unknown dates are a no-op.
func (s *Store) Remove(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, removed := report.Remove(s.listLocked(ctx), date)
	if !removed {
		return nil
	}
	return s.putList(ctx, records)
}

func (s *Store) putList(ctx context.Context, records []report.Record) error {
	data, err := report.EncodeList(records)
	if err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	if err := s.put(ctx, ReportsKey, data); err != nil {
		return fmt.Errorf("failed to persist reports: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (s *Store) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(value), s.now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// SYNC JOURNAL
// =============================================================================

// Record appends a journal entry. Missing IDs and timestamps are filled in.
func (s *Store) Record(ctx context.Context, e syncer.Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_journal (id, at, op, report_date, outcome, reason, records)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.At.UTC().Format(journalTimeLayout), string(e.Op), e.Date, e.Outcome, e.Reason, e.Records)
	if err != nil {
		return fmt.Errorf("failed to record sync entry: %w", err)
	}
	return nil
}

// Recent returns up to limit journal entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]syncer.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, op, COALESCE(report_date, ''), outcome, COALESCE(reason, ''), records
		FROM sync_journal
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync journal: %w", err)
	}
	defer rows.Close()

	entries := []syncer.Entry{}
	for rows.Next() {
		var e syncer.Entry
		var at, op string
		if err := rows.Scan(&e.ID, &at, &op, &e.Date, &e.Outcome, &e.Reason, &e.Records); err != nil {
			return nil, err
		}
		e.Op = syncer.Op(op)
		e.At, _ = time.Parse(journalTimeLayout, at)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
