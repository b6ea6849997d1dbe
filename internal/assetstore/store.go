// Package assetstore tracks ingested documents, their extracted binary
// assets (table crops, page images) and ingestion failures in a SQLite
// database, with asset payloads stored as files alongside it.
package assetstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  path TEXT NOT NULL,
  pages INTEGER NOT NULL DEFAULT 0,
  chunks INTEGER NOT NULL DEFAULT 0,
  ingested_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  doc_id TEXT NOT NULL,
  page INTEGER NOT NULL,
  kind TEXT NOT NULL,
  path TEXT NOT NULL,
  bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assets_doc_page ON assets(doc_id, page);

CREATE TABLE IF NOT EXISTS failures (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  doc_id TEXT,
  path TEXT,
  stage TEXT NOT NULL,
  message TEXT NOT NULL,
  occurred_at TEXT NOT NULL
);
`

// Document is one ingested document's bookkeeping row.
type Document struct {
	ID         string
	Path       string
	Pages      int
	Chunks     int
	IngestedAt time.Time
}

// Asset is one extracted binary artifact.
type Asset struct {
	ID    int64
	DocID string
	Page  int
	Kind  string // "table" or "image"
	Path  string // absolute path of the stored file
	Bytes int64
}

// Failure records a document that could not be ingested, with the pipeline
// stage where it failed.
type Failure struct {
	ID         int64
	DocID      string
	Path       string
	Stage      string
	Message    string
	OccurredAt time.Time
}

// Store is the SQLite-backed asset catalog.
type Store struct {
	db         *sql.DB
	assetsRoot string
}

// Open opens (creating if needed) the catalog at dbPath, storing asset files
// under assetsRoot.
func Open(dbPath, assetsRoot string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	if err := os.MkdirAll(assetsRoot, 0755); err != nil {
		return nil, fmt.Errorf("creating assets directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, assetsRoot: assetsRoot}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordDocument upserts a document's bookkeeping row.
func (s *Store) RecordDocument(docID, path string, pages, chunks int) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO documents (id, path, pages, chunks, ingested_at) VALUES (?, ?, ?, ?, ?)`,
		docID, path, pages, chunks, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording document: %w", err)
	}
	return nil
}

// Document returns the bookkeeping row for docID, or nil if never ingested.
func (s *Store) Document(docID string) (*Document, error) {
	row := s.db.QueryRow(`SELECT id, path, pages, chunks, ingested_at FROM documents WHERE id = ?`, docID)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return doc, nil
}

// Documents returns all ingested documents ordered by ID.
func (s *Store) Documents() ([]Document, error) {
	rows, err := s.db.Query(`SELECT id, path, pages, chunks, ingested_at FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var ingestedAt string
	if err := row.Scan(&doc.ID, &doc.Path, &doc.Pages, &doc.Chunks, &ingestedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, ingestedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing ingested_at: %w", err)
	}
	doc.IngestedAt = t
	return &doc, nil
}

// AssetPath returns the file path for a named asset of a document page:
// <assetsRoot>/<doc>/page-NNNN/<name>.
func (s *Store) AssetPath(docID string, page int, name string) string {
	return filepath.Join(s.assetsRoot, docID, fmt.Sprintf("page-%04d", page), name)
}

// SaveAsset writes data to the asset's canonical path and records it.
// Returns the stored file path.
func (s *Store) SaveAsset(docID string, page int, kind, name string, data []byte) (string, error) {
	path := s.AssetPath(docID, page, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating asset directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing asset file: %w", err)
	}

	_, err := s.db.Exec(
		`INSERT INTO assets (doc_id, page, kind, path, bytes) VALUES (?, ?, ?, ?, ?)`,
		docID, page, kind, path, int64(len(data)),
	)
	if err != nil {
		return "", fmt.Errorf("recording asset: %w", err)
	}
	return path, nil
}

// AssetsForDoc returns all assets of a document ordered by page.
func (s *Store) AssetsForDoc(docID string) ([]Asset, error) {
	return s.queryAssets(`SELECT id, doc_id, page, kind, path, bytes FROM assets WHERE doc_id = ? ORDER BY page, id`, docID)
}

// AssetsForPage returns the assets recorded for one page of a document.
func (s *Store) AssetsForPage(docID string, page int) ([]Asset, error) {
	return s.queryAssets(`SELECT id, doc_id, page, kind, path, bytes FROM assets WHERE doc_id = ? AND page = ? ORDER BY id`, docID, page)
}

func (s *Store) queryAssets(query string, args ...any) ([]Asset, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.DocID, &a.Page, &a.Kind, &a.Path, &a.Bytes); err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ClearDocument removes a document's rows and asset files ahead of
// re-ingestion.
func (s *Store) ClearDocument(docID string) error {
	if _, err := s.db.Exec(`DELETE FROM assets WHERE doc_id = ?`, docID); err != nil {
		return fmt.Errorf("clearing assets: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, docID); err != nil {
		return fmt.Errorf("clearing document: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.assetsRoot, docID)); err != nil {
		return fmt.Errorf("removing asset files: %w", err)
	}
	return nil
}

// RecordFailure logs a document that failed at the given pipeline stage.
func (s *Store) RecordFailure(docID, path, stage, message string) error {
	_, err := s.db.Exec(
		`INSERT INTO failures (doc_id, path, stage, message, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		docID, path, stage, message, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording failure: %w", err)
	}
	return nil
}

// Failures returns all recorded failures, newest first.
func (s *Store) Failures() ([]Failure, error) {
	rows, err := s.db.Query(`SELECT id, doc_id, path, stage, message, occurred_at FROM failures ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		var occurredAt string
		if err := rows.Scan(&f.ID, &f.DocID, &f.Path, &f.Stage, &f.Message, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, occurredAt); err == nil {
			f.OccurredAt = t
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// Stats summarizes the catalog for status reporting.
type Stats struct {
	Documents int `json:"documents"`
	Assets    int `json:"assets"`
	Failures  int `json:"failures"`
}

// Stats counts the catalog's rows.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	for _, q := range []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM documents`, &st.Documents},
		{`SELECT COUNT(*) FROM assets`, &st.Assets},
		{`SELECT COUNT(*) FROM failures`, &st.Failures},
	} {
		if err := s.db.QueryRow(q.query).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("counting rows: %w", err)
		}
	}
	return st, nil
}
