package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/sheetsh/internal/domain"
	"github.com/doeshing/sheetsh/internal/ports"
)

// SQLiteStore persists input lines in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS lines (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		line TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);`)
	return err
}

// Append inserts a line. The insert is committed before Append returns.
func (s *SQLiteStore) Append(line string) (domain.HistoryEntry, error) {
	if strings.ContainsAny(line, "\r\n") {
		return domain.HistoryEntry{}, errors.New("history lines must not contain line breaks")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	defer tx.Rollback()
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM lines`).Scan(&count); err != nil {
		return domain.HistoryEntry{}, err
	}
	if _, err := tx.Exec(`INSERT INTO lines (line, recorded_at) VALUES (?, ?)`,
		line, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return domain.HistoryEntry{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.HistoryEntry{}, err
	}
	return domain.HistoryEntry{Line: line, Index: count}, nil
}

// Load returns every line in insertion order.
func (s *SQLiteStore) Load() ([]domain.HistoryEntry, error) {
	rows, err := s.db.Query(`SELECT line FROM lines ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []domain.HistoryEntry
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		entries = append(entries, domain.HistoryEntry{Line: line, Index: len(entries)})
	}
	return entries, rows.Err()
}

// Clear deletes all lines.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM lines")
	return err
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ports.HistoryStore = (*SQLiteStore)(nil)
