// digest_test.go

package mirror

import (
	"bytes"
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func mustTime(sec int64) time.Time {
	return time.Unix(sec, 0)
}

func TestDigestReaderEmpty(t *testing.T) {
	d, err := DigestReader(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("digest empty: %s", err)
	}
	d2, err := DigestReader(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("digest empty (2nd): %s", err)
	}
	if d != d2 {
		t.Fatalf("digest of empty input not stable: %x != %x", d, d2)
	}
}

func TestDigestReaderStable(t *testing.T) {
	buf := bytes.Repeat([]byte("foo"), 10000)

	d1, err := DigestReader(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("digest: %s", err)
	}

	d2, err := DigestReader(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("digest: %s", err)
	}

	if d1 != d2 {
		t.Fatalf("digest not stable across runs: %x != %x", d1, d2)
	}
}

func TestDigestReaderDiffers(t *testing.T) {
	a, _ := DigestReader(bytes.NewReader([]byte("foo")))
	b, _ := DigestReader(bytes.NewReader([]byte("bar")))
	if a == b {
		t.Fatalf("distinct content produced identical digest")
	}
}

func TestDigestFdMatchesDigestReader(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "digest")
	if err != nil {
		t.Fatalf("create temp: %s", err)
	}
	buf := bytes.Repeat([]byte("foo"), 10000)
	if _, err := f.Write(buf); err != nil {
		t.Fatalf("write: %s", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}

	want, err := DigestReader(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("digest reader: %s", err)
	}

	fd, err := unix.Open(name, unix.O_RDONLY, 0)
	if err != nil {
		t.Fatalf("open: %s", err)
	}
	defer unix.Close(fd)

	got, err := DigestFd(fd)
	if err != nil {
		t.Fatalf("digest fd: %s", err)
	}
	if got != want {
		t.Fatalf("DigestFd disagreed with DigestReader: %x != %x", got, want)
	}
}

func TestFileRecordEqual(t *testing.T) {
	d := Digest{1, 2, 3, 4, 5, 6, 7, 8}
	a := NewFileRecord(3, mustTime(1700000000), d)
	b := NewFileRecord(3, mustTime(1700000000), d)
	if !a.Equal(b) {
		t.Fatalf("expected equal records")
	}

	c := NewFileRecord(4, mustTime(1700000000), d)
	if a.Equal(c) {
		t.Fatalf("expected size mismatch to be unequal")
	}
}

func TestDirRecordEqualIgnoresFields(t *testing.T) {
	a := NewDirRecord()
	b := FileRecord{Type: DIR, Size: 5, MTime: mustTime(1700000000), Digest: Digest{1}}
	if !a.Equal(b) {
		t.Fatalf("expected dir records to compare equal")
	}
}
