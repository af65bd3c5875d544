// walk.go - single-threaded, stack-bounded directory walker (§4.4)
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

// Package walk enumerates a directory tree in depth-first pre-order,
// emitting events to a caller-supplied Visitor. The traversal is iterative
// (an explicit frame stack, never the call stack) and every directory is
// opened relative to its parent with O_NOFOLLOW, so symlink-based escape
// from the tree being walked is not possible.
package walk

import (
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/opencoff/go-mirror"
)

// EntryKind distinguishes the two entry types the walker passes to a
// Visitor's File callback.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
)

// Entry describes one filesystem entry as seen mid-walk. Fd and Path are
// only valid for the duration of the File callback; a Visitor must not
// retain either beyond that call.
type Entry struct {
	Fd    int // the entry's own fd, opened O_NOFOLLOW
	Kind  EntryKind
	Size  int64     // meaningful only for EntryFile
	MTime time.Time // meaningful only for EntryFile

	// Path is the walker's path buffer; Path[RelOffset:] is the
	// manifest-visible key for this entry, and Path[NameOffset:] is just
	// its base name.
	Path       []byte
	RelOffset  int
	NameOffset int
}

// Visitor receives the three events of §4.4/§4.5.
type Visitor interface {
	// DirEnter is called for every directory, including the root, before
	// any of its entries.
	DirEnter(path []byte, relOffset int) error

	// File is called once per regular file or subdirectory entry. The
	// returned bool is meaningful only when the entry is a directory:
	// true descends into it, false suppresses descent.
	File(e *Entry) (descend bool, err error)

	// DirLeave is called after the last entry of a directory has been
	// processed.
	DirLeave(path []byte, relOffset int) error
}

// AccessDeniedPolicy controls what happens when a permission error is hit
// while descending (not opening the root).
type AccessDeniedPolicy int

const (
	// AccessDeniedSkip logs the entry and continues the walk (§9 open
	// question, resolved this way — see DESIGN.md).
	AccessDeniedSkip AccessDeniedPolicy = iota
	// AccessDeniedFatal aborts the whole walk.
	AccessDeniedFatal
)

// Options controls walker behavior.
type Options struct {
	OnAccessDenied AccessDeniedPolicy

	// Warnf receives a diagnostic for every non-fatal condition the
	// walker swallows (permission-denied entries, special files). Nil
	// discards them.
	Warnf func(format string, args ...any)
}

// Walker enumerates one tree per Walk call. It owns a single growing path
// buffer for the duration of that call.
type Walker struct {
	opt  Options
	path []byte
}

// New returns a Walker configured by opt.
func New(opt Options) *Walker {
	if opt.Warnf == nil {
		opt.Warnf = func(string, ...any) {}
	}
	return &Walker{opt: opt}
}

// frame is one stack entry: an open directory, its unread child names, and
// where in the path buffer its own (trailing-slash-terminated) path ends.
type frame struct {
	dir     *os.File
	fd      int
	names   []string
	idx     int
	pathLen int
}

// Walk enumerates the tree rooted at root, calling v for every entry.
// Permission-denied opening root itself is always fatal, per §4.4 invariant
// 9; descent failures below root follow opt.OnAccessDenied.
func (w *Walker) Walk(root string, v Visitor) error {
	root = strings.TrimRight(root, "/")
	if root == "" {
		root = "/"
	}

	rootFd, err := unix.Open(root, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return mirror.NewFSError("opendir", root, err)
	}

	w.path = append(w.path[:0], root...)
	w.path = append(w.path, '/')
	relOffset := len(w.path)

	rootNames, dirFile, err := readdirSorted(rootFd, root)
	if err != nil {
		unix.Close(rootFd)
		return err
	}

	stack := []*frame{{dir: dirFile, fd: rootFd, names: rootNames, pathLen: len(w.path)}}

	cleanup := func() {
		for _, f := range stack {
			f.dir.Close()
		}
	}

	if err := v.DirEnter(dirArg(w.path, relOffset), relOffset); err != nil {
		cleanup()
		return err
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]

		if top.idx >= len(top.names) {
			w.path = w.path[:top.pathLen]
			if err := v.DirLeave(dirArg(w.path, relOffset), relOffset); err != nil {
				cleanup()
				return err
			}
			top.dir.Close()
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				w.path = w.path[:stack[len(stack)-1].pathLen]
			} else {
				w.path = w.path[:0]
			}
			continue
		}

		name := top.names[top.idx]
		top.idx++
		if name == "." || name == ".." {
			continue
		}

		w.path = append(w.path[:top.pathLen], name...)
		nameOffset := top.pathLen

		var st unix.Stat_t
		if err := unix.Fstatat(top.fd, name, &st, unix.AT_SYMLINK_NOFOLLOW); err != nil {
			fsErr := mirror.NewFSError("fstatat", string(w.path), err)
			if mirror.IsAccessDenied(fsErr) && w.opt.OnAccessDenied == AccessDeniedSkip {
				w.opt.Warnf("%s", fsErr)
				continue
			}
			cleanup()
			return fsErr
		}

		switch st.Mode & unix.S_IFMT {
		case unix.S_IFREG:
			fd, err := unix.Openat(top.fd, name, unix.O_RDONLY|unix.O_NOFOLLOW, 0)
			if err != nil {
				if handled := w.handleOpenErr(err, string(w.path), &cleanup); handled != nil {
					return handled
				}
				continue
			}
			entry := &Entry{
				Fd: fd, Kind: EntryFile, Size: st.Size, MTime: mtimeOf(&st),
				Path: w.path, RelOffset: relOffset, NameOffset: nameOffset,
			}
			_, cbErr := v.File(entry)
			unix.Close(fd)
			if cbErr != nil {
				cleanup()
				return cbErr
			}

		case unix.S_IFDIR:
			fd, err := unix.Openat(top.fd, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
			if err != nil {
				if handled := w.handleOpenErr(err, string(w.path), &cleanup); handled != nil {
					return handled
				}
				continue
			}
			entry := &Entry{
				Fd: fd, Kind: EntryDir,
				Path: w.path, RelOffset: relOffset, NameOffset: nameOffset,
			}
			descend, cbErr := v.File(entry)
			if cbErr != nil {
				unix.Close(fd)
				cleanup()
				return cbErr
			}
			if !descend {
				unix.Close(fd)
				continue
			}

			w.path = append(w.path, '/')
			childPathLen := len(w.path)
			childNames, dirFile, err := readdirSorted(fd, string(w.path))
			if err != nil {
				cleanup()
				return err
			}
			if err := v.DirEnter(dirArg(w.path, relOffset), relOffset); err != nil {
				dirFile.Close()
				cleanup()
				return err
			}
			stack = append(stack, &frame{dir: dirFile, fd: fd, names: childNames, pathLen: childPathLen})

		default:
			w.opt.Warnf("skipping special file %q", w.path)
		}
	}

	return nil
}

// dirArg trims the trailing '/' buf ends with before handing it to a
// Visitor's DirEnter/DirLeave, except at the root: there, len(buf) ==
// relOffset already, and trimming one more byte would make
// path[relOffset:] panic instead of yielding "" for the manifest root.
func dirArg(buf []byte, relOffset int) []byte {
	if len(buf)-1 < relOffset {
		return buf
	}
	return buf[:len(buf)-1]
}

// handleOpenErr applies opt.OnAccessDenied to an openat failure. It returns
// a non-nil error when the walk should abort (closing every still-open
// frame first via *cleanup); nil means the caller should skip the entry and
// continue.
func (w *Walker) handleOpenErr(err error, path string, cleanup *func()) error {
	fsErr := mirror.NewFSError("openat", path, err)
	if mirror.IsAccessDenied(fsErr) && w.opt.OnAccessDenied == AccessDeniedSkip {
		w.opt.Warnf("%s", fsErr)
		return nil
	}
	(*cleanup)()
	return fsErr
}

// readdirSorted wraps fd in an *os.File and returns its child names (sans
// "." and "..") in a deterministic order. The walker's own ordering
// invariant (§5) doesn't require sorting, but doing so makes traversal
// reproducible across runs and in tests.
func readdirSorted(fd int, name string) ([]string, *os.File, error) {
	f := os.NewFile(uintptr(fd), name)
	names, err := f.Readdirnames(-1)
	if err != nil {
		f.Close()
		return nil, nil, mirror.NewFSError("readdir", name, err)
	}
	sort.Strings(names)
	return names, f, nil
}
