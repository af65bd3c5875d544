// manifest_test.go

package manifest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencoff/go-mirror"
)

func tempManifest(t *testing.T) *Manifest {
	t.Helper()
	dir := t.TempDir()
	m, err := Open(filepath.Join(dir, "m.db"), true)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestPutAndListFile(t *testing.T) {
	m := tempManifest(t)

	d := mirror.Digest{1, 2, 3, 4, 5, 6, 7, 8}
	rec := mirror.NewFileRecord(3, time.Unix(1700000000, 0), d)

	if err := m.Put("", "a.txt", rec); err != nil {
		t.Fatalf("put: %s", err)
	}

	children, err := m.List("")
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	got, ok := children["a.txt"]
	if !ok {
		t.Fatalf("a.txt missing from list")
	}
	if !got.Equal(rec) {
		t.Fatalf("round-tripped record mismatch: got %+v want %+v", got, rec)
	}
}

func TestPutDirRecordNullsValueColumns(t *testing.T) {
	m := tempManifest(t)

	if err := m.Put("", "sub", mirror.NewDirRecord()); err != nil {
		t.Fatalf("put: %s", err)
	}

	children, err := m.List("")
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	got, ok := children["sub"]
	if !ok {
		t.Fatalf("sub missing from list")
	}
	if got.Type != mirror.DIR {
		t.Fatalf("expected DIR record, got %v", got.Type)
	}

	var size, mtime sql.NullInt64
	var digest []byte
	row := m.db.QueryRow(`SELECT size, last_modified, digest FROM files WHERE dir = ? AND file = ?`, "", "sub")
	if err := row.Scan(&size, &mtime, &digest); err != nil {
		t.Fatalf("query: %s", err)
	}
	if size.Valid || mtime.Valid || digest != nil {
		t.Fatalf("expected NULL size/last_modified/digest for a DIR row, got %v %v %x", size, mtime, digest)
	}
}

func TestPutIsInsertOrReplace(t *testing.T) {
	m := tempManifest(t)

	d1 := mirror.Digest{1}
	d2 := mirror.Digest{2}
	r1 := mirror.NewFileRecord(3, time.Unix(1700000000, 0), d1)
	r2 := mirror.NewFileRecord(4, time.Unix(1700000500, 0), d2)

	if err := m.Put("", "a.txt", r1); err != nil {
		t.Fatalf("put 1: %s", err)
	}
	if err := m.Put("", "a.txt", r2); err != nil {
		t.Fatalf("put 2: %s", err)
	}

	children, err := m.List("")
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if len(children) != 1 {
		t.Fatalf("expected a single row after replace, got %d", len(children))
	}
	if !children["a.txt"].Equal(r2) {
		t.Fatalf("expected the second put to win")
	}
}

func TestDirs(t *testing.T) {
	m := tempManifest(t)

	if err := m.Put("", "a.txt", mirror.NewFileRecord(3, time.Unix(1700000000, 0), mirror.Digest{})); err != nil {
		t.Fatalf("put: %s", err)
	}
	if err := m.Put("", "sub", mirror.NewDirRecord()); err != nil {
		t.Fatalf("put: %s", err)
	}
	if err := m.Put("sub", "b.txt", mirror.NewFileRecord(0, time.Unix(1700000100, 0), mirror.Digest{})); err != nil {
		t.Fatalf("put: %s", err)
	}

	dirs, err := m.Dirs()
	if err != nil {
		t.Fatalf("dirs: %s", err)
	}
	want := map[string]struct{}{"": {}, "sub": {}}
	if len(dirs) != len(want) {
		t.Fatalf("dirs = %v, want %v", dirs, want)
	}
	for k := range want {
		if _, ok := dirs[k]; !ok {
			t.Fatalf("dirs missing %q: got %v", k, dirs)
		}
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	m := tempManifest(t)

	if err := m.Begin(); err != nil {
		t.Fatalf("begin: %s", err)
	}
	if err := m.Put("", "a.txt", mirror.NewFileRecord(3, time.Unix(1700000000, 0), mirror.Digest{})); err != nil {
		t.Fatalf("put: %s", err)
	}
	if err := m.Rollback(); err != nil {
		t.Fatalf("rollback: %s", err)
	}

	children, err := m.List("")
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if len(children) != 0 {
		t.Fatalf("expected rollback to discard the put, got %d rows", len(children))
	}
}

func TestCommitPersistsWrites(t *testing.T) {
	m := tempManifest(t)

	if err := m.Begin(); err != nil {
		t.Fatalf("begin: %s", err)
	}
	if err := m.Put("", "a.txt", mirror.NewFileRecord(3, time.Unix(1700000000, 0), mirror.Digest{})); err != nil {
		t.Fatalf("put: %s", err)
	}
	if err := m.Commit(); err != nil {
		t.Fatalf("commit: %s", err)
	}

	children, err := m.List("")
	if err != nil {
		t.Fatalf("list: %s", err)
	}
	if len(children) != 1 {
		t.Fatalf("expected commit to persist the put, got %d rows", len(children))
	}
}

func TestOpenWithoutCreateFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "missing.db"), false)
	if err == nil {
		t.Fatalf("expected error opening a non-existent manifest without create")
	}
}
