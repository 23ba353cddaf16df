// Package artifact implements the content-addressed table store every
// stage reads from and writes to. Tables are immutable once written:
// a table is named by the sha256 of its serialized contents, so a rerun
// with identical inputs produces the identical hash. The manifest records
// each write under (stage, table, input hash) for Lookup; internal/pipeline
// uses Lookup only to fetch the hash a stage just wrote and does not skip
// recomputation on a hit.
//
// The manifest is a SQLite database opened with WAL journaling and a busy
// timeout tuned for a single writer; the table bodies themselves are CSV
// files on disk, written atomically via a temp file, fsync, and rename so a
// crash mid-write never leaves a partial object visible under its final
// hash.
package artifact

import (
	"crypto/sha256"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the root of one run's content-addressed artifact tree.
type Store struct {
	root string
	db   *sql.DB
}

// Open creates root/objects and root/manifest.sqlite if they don't exist
// and returns a Store bound to them.
func Open(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "objects"), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}

	dbPath := filepath.Join(root, "manifest.sqlite")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect manifest: %w", err)
	}

	s := &Store{root: root, db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init manifest schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS manifest (
		run_id      TEXT NOT NULL,
		stage       TEXT NOT NULL,
		table_name  TEXT NOT NULL,
		input_hash  TEXT NOT NULL,
		output_hash TEXT NOT NULL,
		seed        INTEGER NOT NULL,
		row_count   INTEGER NOT NULL,
		written_at  DATETIME NOT NULL,
		PRIMARY KEY (stage, table_name, input_hash)
	);
	`)
	return err
}

// Close closes the manifest database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Table is the in-memory form of a content-addressed CSV table: a header
// row plus string-encoded data rows, the same column-oriented shape every
// stage reads and writes.
type Table struct {
	Headers []string
	Rows    [][]string
}

func hashTable(t Table) string {
	h := sha256.New()
	w := csv.NewWriter(h)
	_ = w.Write(t.Headers)
	for _, r := range t.Rows {
		_ = w.Write(r)
	}
	w.Flush()
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Store) objectPath(hash string) string {
	return filepath.Join(s.root, "objects", hash[:2], hash+".csv")
}

// Lookup returns the output hash already recorded for this
// (stage, tableName, inputHash) triple, if the run has produced it before.
func (s *Store) Lookup(stage, tableName, inputHash string) (outputHash string, found bool, err error) {
	row := s.db.QueryRow(
		`SELECT output_hash FROM manifest WHERE stage = ? AND table_name = ? AND input_hash = ?`,
		stage, tableName, inputHash,
	)
	err = row.Scan(&outputHash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return outputHash, true, nil
}

// Write content-addresses t, writes it to disk atomically if the object
// doesn't already exist, and records it in the manifest under
// (runID, stage, tableName, inputHash). It returns t's hash, the table's
// new identity.
func (s *Store) Write(runID, stage, tableName, inputHash string, seed int64, t Table) (string, error) {
	hash := hashTable(t)
	path := s.objectPath(hash)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeAtomic(path, t); err != nil {
			return "", fmt.Errorf("write table %s: %w", tableName, err)
		}
	} else if err != nil {
		return "", fmt.Errorf("stat table %s: %w", tableName, err)
	}

	_, err := s.db.Exec(`
		INSERT INTO manifest (run_id, stage, table_name, input_hash, output_hash, seed, row_count, written_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(stage, table_name, input_hash) DO UPDATE SET
			run_id = excluded.run_id, output_hash = excluded.output_hash,
			seed = excluded.seed, row_count = excluded.row_count, written_at = excluded.written_at
	`, runID, stage, tableName, inputHash, hash, seed, len(t.Rows), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("record manifest for %s: %w", tableName, err)
	}
	return hash, nil
}

func writeAtomic(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Headers); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	for _, r := range t.Rows {
		if err := w.Write(r); err != nil {
			f.Close()
			os.Remove(tmp)
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Read loads a table by its content hash.
func (s *Store) Read(hash string) (Table, error) {
	f, err := os.Open(s.objectPath(hash))
	if err != nil {
		return Table{}, fmt.Errorf("open table %s: %w", hash, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read table %s: %w", hash, err)
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	return Table{Headers: records[0], Rows: records[1:]}, nil
}

// HashInputs computes a deterministic hash over an ordered set of upstream
// table hashes plus a config fingerprint, used as the input_hash key for
// idempotency lookups.
func HashInputs(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}
