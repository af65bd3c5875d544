// manifest.go - transactional store of FileRecords keyed by (dir, name) (§4.3)
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package manifest persists the mirror engine's reference state: one row
// per filesystem entry, keyed by (dir, file), backed by a single sqlite
// file. A Manifest is opened once per tool invocation and mutated, if at
// all, inside one surrounding transaction.
package manifest

import (
	"database/sql"
	"errors"
	"os"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/opencoff/go-mirror"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	file          TEXT NOT NULL,
	dir           TEXT NOT NULL,
	type          INTEGER NOT NULL,
	size          INTEGER NULL,
	last_modified INTEGER NULL,
	digest        BLOB NULL,
	PRIMARY KEY (file, dir)
);
CREATE INDEX IF NOT EXISTS dir_idx ON files(dir);
`

// Manifest is the on-disk relational store described in §4.3. It is not
// safe for concurrent use: one Manifest is owned by one tool invocation.
type Manifest struct {
	db   *sql.DB
	tx   *sql.Tx
	path string
}

// Open opens the sqlite-backed store at path. When create is false the
// file must already exist; when create is true a missing file is created.
// Either way the schema is created if it is absent. It fails with
// ManifestOpenError on any I/O or schema error.
func Open(path string, create bool) (*Manifest, error) {
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, &mirror.ManifestOpenError{Path: path, Err: err}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &mirror.ManifestOpenError{Path: path, Err: err}
	}
	db.SetMaxOpenConns(1) // one logical connection: §3's "no sharing contract"

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, &mirror.ManifestOpenError{Path: path, Err: err}
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, &mirror.ManifestOpenError{Path: path, Err: err}
	}

	return &Manifest{db: db, path: path}, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

func (m *Manifest) execer() execer {
	if m.tx != nil {
		return m.tx
	}
	return m.db
}

// Begin opens the single transaction scope within which PopulateVisitor or
// MergeVisitor perform their mutations. Nesting is not supported.
func (m *Manifest) Begin() error {
	if m.tx != nil {
		return &mirror.ManifestWriteError{Op: "begin", Err: errors.New("transaction already open")}
	}
	tx, err := m.db.Begin()
	if err != nil {
		return &mirror.ManifestWriteError{Op: "begin", Err: err}
	}
	m.tx = tx
	return nil
}

// Commit finalizes the open transaction.
func (m *Manifest) Commit() error {
	if m.tx == nil {
		return &mirror.ManifestWriteError{Op: "commit", Err: errors.New("no open transaction")}
	}
	err := m.tx.Commit()
	m.tx = nil
	if err != nil {
		return &mirror.ManifestWriteError{Op: "commit", Err: err}
	}
	return nil
}

// Rollback discards the open transaction, leaving the manifest file at its
// prior state (§4.3's atomicity requirement).
func (m *Manifest) Rollback() error {
	if m.tx == nil {
		return nil
	}
	err := m.tx.Rollback()
	m.tx = nil
	if err != nil {
		return &mirror.ManifestWriteError{Op: "rollback", Err: err}
	}
	return nil
}

// Put inserts or replaces the record for (dir, file). DIR records bind the
// three value columns as NULL; FILE records bind all four.
func (m *Manifest) Put(dir, file string, rec mirror.FileRecord) error {
	var size, mtime any
	var digest any
	if rec.Type == mirror.FILE {
		size = rec.Size
		mtime = rec.MTime.Truncate(time.Second).Unix()
		d := rec.Digest
		digest = d[:]
	}

	_, err := m.execer().Exec(
		`INSERT INTO files(file, dir, type, size, last_modified, digest)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file, dir) DO UPDATE SET
		    type=excluded.type, size=excluded.size,
		    last_modified=excluded.last_modified, digest=excluded.digest`,
		file, dir, int(rec.Type), size, mtime, digest,
	)
	if err != nil {
		return &mirror.ManifestWriteError{Op: "put " + dir + "/" + file, Err: err}
	}
	return nil
}

// List returns the children of dir as a flat mapping of filename to record.
// Subdirectories appear as DIR rows. An empty result is valid.
func (m *Manifest) List(dir string) (map[string]mirror.FileRecord, error) {
	rows, err := m.execer().Query(
		`SELECT file, type, size, last_modified, digest FROM files WHERE dir = ?`, dir)
	if err != nil {
		return nil, &mirror.ManifestReadError{Op: "list " + dir, Err: err}
	}
	defer rows.Close()

	out := make(map[string]mirror.FileRecord)
	for rows.Next() {
		var file string
		var typ int
		var size sql.NullInt64
		var mtime sql.NullInt64
		var digest []byte
		if err := rows.Scan(&file, &typ, &size, &mtime, &digest); err != nil {
			return nil, &mirror.ManifestReadError{Op: "list " + dir, Err: err}
		}
		out[file] = rowToRecord(typ, size, mtime, digest)
	}
	if err := rows.Err(); err != nil {
		return nil, &mirror.ManifestReadError{Op: "list " + dir, Err: err}
	}
	return out, nil
}

// Dirs returns the distinct set of directory values across all rows,
// including "" for the manifest root.
func (m *Manifest) Dirs() (map[string]struct{}, error) {
	rows, err := m.execer().Query(`SELECT DISTINCT dir FROM files`)
	if err != nil {
		return nil, &mirror.ManifestReadError{Op: "dirs", Err: err}
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var dir string
		if err := rows.Scan(&dir); err != nil {
			return nil, &mirror.ManifestReadError{Op: "dirs", Err: err}
		}
		out[dir] = struct{}{}
	}
	return out, rows.Err()
}

// Close finalizes all prepared statements and releases the connection. It
// is idempotent after success.
func (m *Manifest) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	if err != nil {
		return &mirror.ManifestOpenError{Path: m.path, Err: err}
	}
	return nil
}

func rowToRecord(typ int, size, mtime sql.NullInt64, digest []byte) mirror.FileRecord {
	if mirror.EntryType(typ) == mirror.DIR {
		return mirror.NewDirRecord()
	}
	var d mirror.Digest
	copy(d[:], digest)
	return mirror.NewFileRecord(size.Int64, time.Unix(mtime.Int64, 0), d)
}
