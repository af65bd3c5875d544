// reporter_test.go

package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opencoff/go-mirror"
	"github.com/opencoff/go-mirror/copyengine"
)

func TestCheckMismatchEqualRecordsReportsNothing(t *testing.T) {
	var buf bytes.Buffer
	r := &VerifyReporter{Out: &buf}

	rec := mirror.NewFileRecord(3, time.Unix(1700000000, 0), mirror.Digest{1})
	if !r.CheckMismatch("a.txt", rec, rec) {
		t.Fatalf("expected equal records to report no mismatch")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output for equal records, got %q", buf.String())
	}
	if r.Mismatches != 0 {
		t.Fatalf("expected zero mismatch count, got %d", r.Mismatches)
	}
}

func TestCheckMismatchListsEveryDifferingField(t *testing.T) {
	var buf bytes.Buffer
	r := &VerifyReporter{Out: &buf}

	expected := mirror.NewFileRecord(3, time.Unix(1700000000, 0), mirror.Digest{1})
	actual := mirror.NewFileRecord(0, time.Unix(1700000500, 0), mirror.Digest{2})

	if r.CheckMismatch("a.txt", expected, actual) {
		t.Fatalf("expected a mismatch to be reported")
	}
	out := buf.String()
	for _, want := range []string{"size", "mtime", "digest"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Fatalf("expected output to mention %q, got %q", want, out)
		}
	}
	if r.Mismatches != 1 {
		t.Fatalf("expected mismatch count 1, got %d", r.Mismatches)
	}
}

func TestFileNotFoundAndNewFileTally(t *testing.T) {
	var buf bytes.Buffer
	r := &VerifyReporter{Out: &buf}

	r.FileNotFound(mirror.FILE, "sub/b.txt")
	r.NewFile(mirror.FILE, "new.dat")

	if r.Missing != 1 || r.New != 1 {
		t.Fatalf("expected one missing and one new, got missing=%d new=%d", r.Missing, r.New)
	}
}

func TestMergeReporterFileNotFoundCopiesFile(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("setup: %s", err)
	}

	eng := copyengine.New(src, dest, nil)
	r := NewMergeReporter(eng)
	r.FileNotFound(mirror.FILE, "a.txt")

	if _, err := os.Stat(filepath.Join(dest, "a.txt")); err != nil {
		t.Fatalf("expected merge to copy a.txt into dest: %s", err)
	}
}

func TestMergeReporterNewFileDoesNotDelete(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	target := filepath.Join(dest, "extra.dat")
	if err := os.WriteFile(target, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("setup: %s", err)
	}

	eng := copyengine.New(src, dest, nil)
	r := NewMergeReporter(eng)
	r.NewFile(mirror.FILE, "extra.dat")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected merge to leave dest-only files alone, got: %s", err)
	}
}
