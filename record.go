// record.go - the manifest's unit of record: one filesystem entry
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

// Package mirror holds the shared vocabulary of the mirror engine: the
// record stored per filesystem entry, the key it is stored under, and the
// 8-octet content digest used to fingerprint file bytes. Everything else
// (the manifest store, the walker, the visitors, the copy engine) lives in
// sub-packages and is wired together by cmd/mirror.
package mirror

import (
	"fmt"
	"time"
)

// EntryType is the kind of filesystem entry a FileRecord describes.
type EntryType int

const (
	// FILE is a regular file.
	FILE EntryType = iota
	// DIR is a directory.
	DIR
)

func (t EntryType) String() string {
	if t == DIR {
		return "dir"
	}
	return "file"
}

// DigestSize is the fixed width (in octets) of a content fingerprint.
const DigestSize = 8

// Digest is a fixed-width content fingerprint.
type Digest [DigestSize]byte

func (d Digest) String() string {
	return fmt.Sprintf("%x", [DigestSize]byte(d))
}

// FileRecord is the value stored per filesystem entry (§3).
//
// For type DIR, Size, MTime and Digest are zero-valued and never
// compared. For type FILE all four fields are meaningful.
type FileRecord struct {
	Type   EntryType
	Size   int64
	MTime  time.Time // second precision; sub-second components are always zero
	Digest Digest
}

// NewDirRecord builds the record for a directory entry.
func NewDirRecord() FileRecord {
	return FileRecord{Type: DIR}
}

// NewFileRecord builds the record for a regular file entry. mtime is
// truncated to second precision, matching what the manifest persists.
func NewFileRecord(size int64, mtime time.Time, digest Digest) FileRecord {
	return FileRecord{
		Type:   FILE,
		Size:   size,
		MTime:  mtime.Truncate(time.Second),
		Digest: digest,
	}
}

// Equal implements the comparison rule of §4.5: for a DIR record only Type
// is compared; for a FILE record, Type, Size, MTime (second precision) and
// Digest must all agree.
func (r FileRecord) Equal(o FileRecord) bool {
	if r.Type != o.Type {
		return false
	}
	if r.Type == DIR {
		return true
	}
	return r.Size == o.Size &&
		r.MTime.Truncate(time.Second).Equal(o.MTime.Truncate(time.Second)) &&
		r.Digest == o.Digest
}

// PathKey is the pair (dir, name) a FileRecord is stored under (§3).
//
// Dir is the forward-slash-joined path from the manifest root, without a
// leading or trailing slash; the manifest root itself is the empty string.
// Name never contains "/" and is never "." or "..". Both are UTF-8 octet
// sequences; equality is octet-wise, with no Unicode normalization.
type PathKey struct {
	Dir  string
	Name string
}

// RelPath joins Dir and Name into the single forward-slash path used in
// diagnostics and mismatch events.
func (k PathKey) RelPath() string {
	if k.Dir == "" {
		return k.Name
	}
	return k.Dir + "/" + k.Name
}
