// Package store archives submitted text alongside analysis verdicts.
//
// Archival is strictly secondary: the engine calls it best-effort and an
// archive failure never aborts an analysis. Storage keys are BLAKE2b
// content hashes, so re-submitting identical text is idempotent.
package store

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
)

// Schema for the submission archive.
const schema = `
CREATE TABLE IF NOT EXISTS submissions (
    storage_key    TEXT PRIMARY KEY,
    submission_id  TEXT,
    content        TEXT NOT NULL,
    content_len    INTEGER NOT NULL,
    created_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_submissions_submission ON submissions(submission_id);

CREATE TABLE IF NOT EXISTS verdicts (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    storage_key    TEXT REFERENCES submissions(storage_key),
    submission_id  TEXT,
    is_human       INTEGER NOT NULL,
    confidence     REAL NOT NULL,
    risk_level     TEXT NOT NULL,
    flag_count     INTEGER NOT NULL,
    created_at     INTEGER NOT NULL
);
`

// Store is the SQLite-backed submission archive.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the archive.
func (s *Store) Close() error {
	return s.db.Close()
}

// StorageKey returns the BLAKE2b-256 content hash used as the archive key.
func StorageKey(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ArchiveText stores the submitted text and returns its storage key.
// Identical content maps to the same key.
func (s *Store) ArchiveText(submissionID, text string) (string, error) {
	key := StorageKey(text)
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO submissions (storage_key, submission_id, content, content_len, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, submissionID, text, len(text), time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("archive text: %w", err)
	}
	return key, nil
}

// RecordVerdict stores the headline verdict for later review queries.
func (s *Store) RecordVerdict(storageKey, submissionID string, isHuman bool, confidence float64, riskLevel string, flagCount int) error {
	human := 0
	if isHuman {
		human = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO verdicts (storage_key, submission_id, is_human, confidence, risk_level, flag_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullable(storageKey), submissionID, human, confidence, riskLevel, flagCount, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

// LoadText retrieves archived text by storage key.
func (s *Store) LoadText(key string) (string, error) {
	var content string
	err := s.db.QueryRow(`SELECT content FROM submissions WHERE storage_key = ?`, key).Scan(&content)
	if err != nil {
		return "", fmt.Errorf("load text: %w", err)
	}
	return content, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
