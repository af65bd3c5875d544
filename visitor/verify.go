// verify.go - compares a filesystem walk against a Manifest (§4.5)
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

package visitor

import (
	"strings"

	"github.com/opencoff/go-mirror"
	"github.com/opencoff/go-mirror/manifest"
	"github.com/opencoff/go-mirror/pathenc"
	"github.com/opencoff/go-mirror/report"
	"github.com/opencoff/go-mirror/walk"
)

// VerifyVisitor compares every entry it sees against a Manifest and
// reports mismatches, new entries and missing entries through a
// report.MismatchReporter.
type VerifyVisitor struct {
	m        *manifest.Manifest
	reporter report.MismatchReporter

	// expectedStack[i] holds the not-yet-matched manifest rows for the
	// directory dirStack[i], popped in DirLeave.
	expectedStack []map[string]mirror.FileRecord
	dirStack      []string

	// remainingDirs starts as every directory the manifest knows about
	// and shrinks as dir_enter visits them; anything left over after the
	// walk finishes was never reached.
	remainingDirs map[string]struct{}
}

// NewVerify returns a VerifyVisitor reporting through reporter.
func NewVerify(m *manifest.Manifest, reporter report.MismatchReporter) (*VerifyVisitor, error) {
	dirs, err := m.Dirs()
	if err != nil {
		return nil, err
	}
	remaining := make(map[string]struct{}, len(dirs))
	for d := range dirs {
		remaining[d] = struct{}{}
	}
	return &VerifyVisitor{m: m, reporter: reporter, remainingDirs: remaining}, nil
}

// DirEnter loads the manifest's expectations for the directory being
// entered and pushes them onto the stack.
func (v *VerifyVisitor) DirEnter(path []byte, relOffset int) error {
	dirRaw, err := pathenc.ToUTF8(path[relOffset:])
	if err != nil {
		return err
	}
	dir := string(dirRaw)

	delete(v.remainingDirs, dir)

	list, err := v.m.List(dir)
	if err != nil {
		return err
	}
	v.expectedStack = append(v.expectedStack, list)
	v.dirStack = append(v.dirStack, dir)
	return nil
}

// File compares a single entry against the manifest's expectation for it.
func (v *VerifyVisitor) File(e *walk.Entry) (bool, error) {
	nameRaw, err := pathenc.ToUTF8(e.Path[e.NameOffset:])
	if err != nil {
		return false, err
	}
	name := string(nameRaw)

	dir := v.dirStack[len(v.dirStack)-1]
	top := v.expectedStack[len(v.expectedStack)-1]
	key := mirror.PathKey{Dir: dir, Name: name}

	kind := mirror.FILE
	if e.Kind == walk.EntryDir {
		kind = mirror.DIR
	}

	expected, ok := top[name]
	if !ok {
		v.reporter.NewFile(kind, key.RelPath())
		return false, nil
	}
	delete(top, name)

	var actual mirror.FileRecord
	if e.Kind == walk.EntryDir {
		actual = mirror.NewDirRecord()
	} else {
		// e.Fd is owned by the walker, which closes it unconditionally once
		// File returns; DigestFd reads it without wrapping it in an
		// *os.File, whose finalizer would otherwise race that close.
		digest, err := mirror.DigestFd(e.Fd)
		if err != nil {
			return false, err
		}
		actual = mirror.NewFileRecord(e.Size, e.MTime, digest)
	}

	return v.reporter.CheckMismatch(key.RelPath(), expected, actual), nil
}

// DirLeave reports every manifest row that was never matched by a File
// call as missing, then pops the directory's state off the stack.
func (v *VerifyVisitor) DirLeave(path []byte, relOffset int) error {
	top := v.expectedStack[len(v.expectedStack)-1]
	dir := v.dirStack[len(v.dirStack)-1]
	v.expectedStack = v.expectedStack[:len(v.expectedStack)-1]
	v.dirStack = v.dirStack[:len(v.dirStack)-1]

	for name, rec := range top {
		key := mirror.PathKey{Dir: dir, Name: name}
		v.reporter.FileNotFound(rec.Type, key.RelPath())
		if rec.Type == mirror.DIR {
			// Already reported via this missing entry; Finish must not
			// report it again, nor report any of its descendants (they
			// never got a dir_enter either, for the same reason).
			missingRoot := key.RelPath()
			delete(v.remainingDirs, missingRoot)
			for d := range v.remainingDirs {
				if strings.HasPrefix(d, missingRoot+"/") {
					delete(v.remainingDirs, d)
				}
			}
		}
	}
	return nil
}

// Finish reports every directory the manifest knows about that the walk
// never entered and that DirLeave has not already reported as part of a
// missing subtree (for example, a directory that is now a regular file,
// so the walk did not descend into it). Callers invoke this once after the
// walk completes.
func (v *VerifyVisitor) Finish() {
	for dir := range v.remainingDirs {
		v.reporter.FileNotFound(mirror.DIR, dir)
	}
}
