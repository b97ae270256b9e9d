// Package journal provides SQLite persistence for applied board events.
package journal

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/roomboard/internal/otel"
	"github.com/abelbrown/roomboard/internal/tree"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Journal records every event the board applied.
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Journal struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Entry is one stored event.
type Entry struct {
	ID        string
	Kind      tree.EventKind
	Category  string
	FromPath  string
	FromIndex int
	ToPath    string
	ToIndex   int
	NodeID    string
	NodeName  string
	AppliedAt time.Time
}

// Open opens (or creates) the journal at dbPath and applies pending
// migrations. ":memory:" gives a private in-memory journal.
func Open(dbPath string) (*Journal, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Shared cache so every pooled connection sees the same database.
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return err
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return err
	}
	// m.Close would also close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

// Append stores ev and returns the stored entry.
func (j *Journal) Append(ev tree.Event) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		Kind:      ev.Kind,
		Category:  ev.Category,
		FromIndex: ev.FromIndex,
		ToIndex:   ev.ToIndex,
		AppliedAt: j.now(),
	}
	switch ev.Kind {
	case tree.Reordered:
		e.FromPath, e.ToPath = ev.From.String(), ev.From.String()
	case tree.Removed:
		e.FromPath = ev.From.String()
	case tree.Added:
		e.ToPath = ev.To.String()
	case tree.Moved:
		e.FromPath, e.ToPath = ev.From.String(), ev.To.String()
	}
	if ev.Node != nil {
		e.NodeID, e.NodeName = ev.Node.ID, ev.Node.Label()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.Exec(`
		INSERT INTO events (
			id, kind, category, from_path, from_index, to_path, to_index,
			node_id, node_name, applied_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, string(e.Kind), e.Category, e.FromPath, e.FromIndex, e.ToPath, e.ToIndex,
		e.NodeID, e.NodeName, e.AppliedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("append %s: %w", ev.Kind, err)
	}
	return e, nil
}

// Sink adapts Append to a board sink. Failures are reported to logger.
func (j *Journal) Sink(logger *otel.Logger) func(tree.Event) {
	return func(ev tree.Event) {
		if _, err := j.Append(ev); err != nil {
			logger.Error(otel.KindJournalError, "journal", err)
		}
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query(`
		SELECT id, kind, category, from_path, from_index, to_path, to_index,
			node_id, node_name, applied_at
		FROM events
		ORDER BY applied_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Category, &e.FromPath, &e.FromIndex,
			&e.ToPath, &e.ToIndex, &e.NodeID, &e.NodeName, &e.AppliedAt); err != nil {
			return nil, err
		}
		e.Kind = tree.EventKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns the number of stored entries.
func (j *Journal) Count() (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var n int
	err := j.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&n)
	return n, err
}

// CountByKind returns entry counts keyed by event kind.
func (j *Journal) CountByKind() (map[tree.EventKind]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	rows, err := j.db.Query("SELECT kind, COUNT(*) FROM events GROUP BY kind")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[tree.EventKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[tree.EventKind(kind)] = n
	}
	return out, rows.Err()
}
