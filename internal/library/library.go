// Package library maintains a catalog of previously opened documents in a
// SQLite database. The catalog backs the `bionic library` commands and the
// preview server's recent-documents listing.
package library

import (
	"database/sql"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/core/sqlite"
	"github.com/machenxing/bionic/internal/sources"
)

// Entry is one cataloged document.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Path        string    `json:"path"`
	Format      string    `json:"format"`
	ContentHash string    `json:"content_hash"`
	SizeBytes   int64     `json:"size_bytes"`
	AddedAt     time.Time `json:"added_at"`
	LastOpened  time.Time `json:"last_opened"`
}

// Store is a catalog backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	path         TEXT NOT NULL UNIQUE,
	format       TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	size_bytes   INTEGER NOT NULL,
	added_at     INTEGER NOT NULL,
	last_opened  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_last_opened ON documents(last_opened DESC);
`

// DefaultPath returns the per-user catalog location,
// e.g. ~/.config/bionic/library.db on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving user config directory")
	}
	return filepath.Join(dir, "bionic", "library.db"), nil
}

// Open opens (creating if necessary) the catalog at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewIO("create directory", dir, err)
		}
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open catalog", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing catalog schema")
	}
	return &Store{db: db}, nil
}

// OpenReadOnly opens an existing catalog without taking a write lock, for
// commands that only read it. A catalog that was never created is reported
// as a not-found error rather than silently materialized.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewNotFound("catalog", path)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open catalog", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ContentHash returns the hex BLAKE3 hash of text. The same hash keys the
// render cache, so catalog entries and cached renders agree on identity.
func ContentHash(text string) string {
	h := blake3.New()
	io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// Add records a document, or refreshes its hash, size and last-opened time
// when the path is already cataloged. It returns the entry's ID.
func (s *Store) Add(doc *sources.Document) (string, error) {
	if doc == nil || doc.Path == "" {
		return "", errors.NewValidation("path", "document has no path")
	}
	abs, err := filepath.Abs(doc.Path)
	if err != nil {
		abs = doc.Path
	}

	id := uuid.NewString()
	now := time.Now().UTC().Unix()
	_, err = s.db.Exec(`
		INSERT INTO documents (id, title, path, format, content_hash, size_bytes, added_at, last_opened)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title        = excluded.title,
			format       = excluded.format,
			content_hash = excluded.content_hash,
			size_bytes   = excluded.size_bytes,
			last_opened  = excluded.last_opened`,
		id, doc.Title, abs, doc.Format, ContentHash(doc.Text), int64(len(doc.Text)), now, now)
	if err != nil {
		return "", errors.Wrap(err, "cataloging document")
	}

	// On conflict the original row keeps its ID; read it back.
	var storedID string
	if err := s.db.QueryRow("SELECT id FROM documents WHERE path = ?", abs).Scan(&storedID); err != nil {
		return "", errors.Wrap(err, "reading catalog entry")
	}
	return storedID, nil
}

// Get returns the entry for an ID or path.
func (s *Store) Get(idOrPath string) (*Entry, error) {
	key := idOrPath
	if abs, err := filepath.Abs(idOrPath); err == nil {
		key = abs
	}
	row := s.db.QueryRow(`
		SELECT id, title, path, format, content_hash, size_bytes, added_at, last_opened
		FROM documents WHERE id = ? OR path = ? OR path = ?`,
		idOrPath, idOrPath, key)
	return scanEntry(row)
}

// Recent returns up to limit entries, most recently opened first. A limit
// of zero or less returns every entry.
func (s *Store) Recent(limit int) ([]Entry, error) {
	q := "SELECT id, title, path, format, content_hash, size_bytes, added_at, last_opened FROM documents ORDER BY last_opened DESC, title"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "listing catalog")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var added, opened int64
		if err := rows.Scan(&e.ID, &e.Title, &e.Path, &e.Format, &e.ContentHash, &e.SizeBytes, &added, &opened); err != nil {
			return nil, errors.Wrap(err, "scanning catalog entry")
		}
		e.AddedAt = time.Unix(added, 0).UTC()
		e.LastOpened = time.Unix(opened, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Touch updates an entry's last-opened time.
func (s *Store) Touch(idOrPath string) error {
	key := idOrPath
	if abs, err := filepath.Abs(idOrPath); err == nil {
		key = abs
	}
	res, err := s.db.Exec(
		"UPDATE documents SET last_opened = ? WHERE id = ? OR path = ? OR path = ?",
		time.Now().UTC().Unix(), idOrPath, idOrPath, key)
	if err != nil {
		return errors.Wrap(err, "updating catalog entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("document", idOrPath)
	}
	return nil
}

// Remove deletes an entry by ID or path.
func (s *Store) Remove(idOrPath string) error {
	key := idOrPath
	if abs, err := filepath.Abs(idOrPath); err == nil {
		key = abs
	}
	res, err := s.db.Exec(
		"DELETE FROM documents WHERE id = ? OR path = ? OR path = ?",
		idOrPath, idOrPath, key)
	if err != nil {
		return errors.Wrap(err, "removing catalog entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewNotFound("document", idOrPath)
	}
	return nil
}

// Clear empties the catalog and returns the number of removed entries.
func (s *Store) Clear() (int64, error) {
	res, err := s.db.Exec("DELETE FROM documents")
	if err != nil {
		return 0, errors.Wrap(err, "clearing catalog")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanEntry(row *sql.Row) (*Entry, error) {
	var e Entry
	var added, opened int64
	err := row.Scan(&e.ID, &e.Title, &e.Path, &e.Format, &e.ContentHash, &e.SizeBytes, &added, &opened)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document", "")
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog entry")
	}
	e.AddedAt = time.Unix(added, 0).UTC()
	e.LastOpened = time.Unix(opened, 0).UTC()
	return &e, nil
}
