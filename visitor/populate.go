// populate.go - fills the Manifest from a filesystem walk (§4.5)
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

// Package visitor implements the three walk.Visitor drivers of §4.5:
// PopulateVisitor fills a Manifest from a walk, VerifyVisitor compares a
// walk against a Manifest, and MergeVisitor reuses VerifyVisitor's
// comparison logic with a reporter that repairs the destination tree.
package visitor

import (
	"github.com/opencoff/go-mirror"
	"github.com/opencoff/go-mirror/manifest"
	"github.com/opencoff/go-mirror/pathenc"
	"github.com/opencoff/go-mirror/walk"
)

// PopulateVisitor records every entry it sees into a Manifest.
type PopulateVisitor struct {
	m *manifest.Manifest
}

// NewPopulate returns a PopulateVisitor writing into m.
func NewPopulate(m *manifest.Manifest) *PopulateVisitor {
	return &PopulateVisitor{m: m}
}

// DirEnter is a no-op: PopulateVisitor carries no state beyond the path
// buffer the walker already owns.
func (p *PopulateVisitor) DirEnter(path []byte, relOffset int) error { return nil }

// DirLeave is a no-op for the same reason.
func (p *PopulateVisitor) DirLeave(path []byte, relOffset int) error { return nil }

// File computes the entry's FileRecord and stores it. It always returns
// true: create-db descends into every directory it finds.
func (p *PopulateVisitor) File(e *walk.Entry) (bool, error) {
	dir, name := splitDirName(e)

	dirUTF8, err := pathenc.ToUTF8(dir)
	if err != nil {
		return false, err
	}
	nameUTF8, err := pathenc.ToUTF8(name)
	if err != nil {
		return false, err
	}

	var rec mirror.FileRecord
	if e.Kind == walk.EntryDir {
		rec = mirror.NewDirRecord()
	} else {
		// e.Fd is owned by the walker, which closes it unconditionally once
		// File returns; DigestFd reads it without wrapping it in an
		// *os.File, whose finalizer would otherwise race that close.
		digest, err := mirror.DigestFd(e.Fd)
		if err != nil {
			return false, err
		}
		rec = mirror.NewFileRecord(e.Size, e.MTime, digest)
	}

	if err := p.m.Put(string(dirUTF8), string(nameUTF8), rec); err != nil {
		return false, err
	}
	return true, nil
}

// splitDirName splits an entry's path[rel_offset..] at the trailing '/'
// into (dir, name), per §4.5's literal instruction.
func splitDirName(e *walk.Entry) (dir, name []byte) {
	name = e.Path[e.NameOffset:]
	if e.NameOffset > e.RelOffset {
		dir = e.Path[e.RelOffset : e.NameOffset-1]
	}
	return dir, name
}
