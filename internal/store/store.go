// Package store persists feature envelopes and the commit frontier they
// were indexed up to, in an embedded SQLite database living alongside the
// repository.
package store

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

const schema = `
CREATE TABLE IF NOT EXISTS commits (
	commit_id BLOB NOT NULL PRIMARY KEY
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS feature_envelopes (
	blob_id  BLOB NOT NULL PRIMARY KEY,
	envelope BLOB NOT NULL
) WITHOUT ROWID;
`

// Store wraps the envelope index database.
type Store struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// Open connects to (creating if necessary) the SQLite database at path,
// enabling WAL mode for concurrent readers while a single writer indexes.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("connect to index database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the commits and feature_envelopes tables if they do
// not already exist.
func (s *Store) EnsureSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DropTables removes both tables, used when a run is asked to reindex from
// scratch.
func (s *Store) DropTables() error {
	if _, err := s.db.Exec(`DROP TABLE IF EXISTS commits; DROP TABLE IF EXISTS feature_envelopes;`); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

// EnvelopeByteLen returns the byte length of a previously stored envelope,
// or 0 if the table is empty (a freshly created index). The orchestrator
// uses this to re-open an existing index at whatever bit width it was
// originally written with, instead of assuming the current default.
func (s *Store) EnvelopeByteLen() (int, error) {
	var length *int
	err := s.db.Get(&length, `SELECT (SELECT length(envelope) FROM feature_envelopes LIMIT 1);`)
	if err != nil {
		return 0, fmt.Errorf("inspect envelope width: %w", err)
	}
	if length == nil {
		return 0, nil
	}
	return *length, nil
}

// Frontier returns the commit IDs recorded as fully indexed.
func (s *Store) Frontier() ([]string, error) {
	var rows [][]byte
	if err := s.db.Select(&rows, `SELECT commit_id FROM commits;`); err != nil {
		return nil, fmt.Errorf("read commit frontier: %w", err)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = hex.EncodeToString(r)
	}
	return out, nil
}

// Tx is a single write transaction covering one indexing run. All envelope
// upserts and the final frontier replacement happen inside one Tx so a run
// that's interrupted partway through leaves the index exactly as it was
// before the run started, rather than half-updated.
type Tx struct {
	tx *sqlx.Tx
}

// Begin starts a write transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit finalizes the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback discards the transaction. Safe to call after Commit; the
// underlying driver reports (and this ignores) "transaction has already
// been committed or rolled back".
func (t *Tx) Rollback() { t.tx.Rollback() }

// UpsertEnvelope writes or replaces the encoded envelope for a feature
// blob.
func (t *Tx) UpsertEnvelope(blobID string, encoded []byte) error {
	raw, err := hex.DecodeString(blobID)
	if err != nil {
		return fmt.Errorf("decode blob id %s: %w", blobID, err)
	}
	_, err = t.tx.Exec(
		`INSERT OR REPLACE INTO feature_envelopes (blob_id, envelope) VALUES (?, ?);`,
		raw, encoded,
	)
	return err
}

// ReplaceFrontier atomically replaces the set of indexed commit IDs.
func (t *Tx) ReplaceFrontier(commitIDs []string) error {
	if _, err := t.tx.Exec(`DELETE FROM commits;`); err != nil {
		return fmt.Errorf("clear commit frontier: %w", err)
	}
	for _, id := range commitIDs {
		raw, err := hex.DecodeString(id)
		if err != nil {
			return fmt.Errorf("decode commit id %s: %w", id, err)
		}
		if _, err := t.tx.Exec(`INSERT INTO commits (commit_id) VALUES (?);`, raw); err != nil {
			return fmt.Errorf("record commit %s: %w", id, err)
		}
	}
	return nil
}
