// copy.go - copies missing entries from a source tree into a destination (§4.7)
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

// Package copyengine copies regular files and whole subtrees from a source
// tree into a destination tree, using the same directory-relative openat
// discipline as the walker. It never overwrites an existing destination
// entry and never preserves mode or ownership (§4.7 Non-goals); it does
// preserve mtime, per the §9 open question this codebase resolves in favor
// of a merge that verifies clean immediately afterward.
package copyengine

import (
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/opencoff/go-mirror"
	"github.com/opencoff/go-mirror/walk"
)

// copyChunkSize matches §4.7's literal "4 KiB chunks" for the default copy
// path.
const copyChunkSize = 4096

// mmapThreshold is the file size above which CopyFile prefers the mmap fast
// path over chunked read/write. Not spec-mandated; purely a throughput
// optimization that produces byte-identical output either way.
const mmapThreshold = 256 * 1024

// Engine copies between two directory trees named by root path.
type Engine struct {
	SrcRoot  string
	DestRoot string

	// Warnf receives a diagnostic for every copy failure. Nil discards
	// them.
	Warnf func(format string, args ...any)
}

// New returns an Engine that copies from srcRoot into destRoot.
func New(srcRoot, destRoot string, warnf func(string, ...any)) *Engine {
	if warnf == nil {
		warnf = func(string, ...any) {}
	}
	return &Engine{SrcRoot: srcRoot, DestRoot: destRoot, Warnf: warnf}
}

// CopyFile copies the regular file at relPath from SrcRoot into DestRoot,
// creating any missing destination parent directories. It returns false
// (after logging) on any error, matching §4.7's "returns false on any
// error after logging" contract for copy_file.
func (e *Engine) CopyFile(relPath string) bool {
	err := e.copyFile(relPath)
	if err != nil {
		e.Warnf("%s", err)
	}
	return err == nil
}

func (e *Engine) copyFile(relPath string) error {
	dir, name := splitRel(relPath)

	srcDirFd, err := openDirChain(e.SrcRoot, dir, false)
	if err != nil {
		return mirror.NewFSError("opendir-src", relPath, err)
	}
	defer unix.Close(srcDirFd)

	destDirFd, err := openDirChain(e.DestRoot, dir, true)
	if err != nil {
		return mirror.NewFSError("opendir-dest", relPath, err)
	}
	defer unix.Close(destDirFd)

	return copyRegularAt(srcDirFd, destDirFd, name)
}

// CopySubtree walks the source subtree rooted at SrcRoot/relPath and
// recreates it, entry by entry, under DestRoot/relPath.
func (e *Engine) CopySubtree(relPath string) bool {
	err := e.copySubtree(relPath)
	if err != nil {
		e.Warnf("%s", err)
	}
	return err == nil
}

func (e *Engine) copySubtree(relPath string) error {
	dir, name := splitRel(relPath)

	destParentFd, err := openDirChain(e.DestRoot, dir, true)
	if err != nil {
		return mirror.NewFSError("opendir-dest", relPath, err)
	}
	defer unix.Close(destParentFd)

	if err := unix.Mkdirat(destParentFd, name, 0o755); err != nil && !os.IsExist(err) {
		return mirror.NewFSError("mkdirat", relPath, err)
	}

	cv := &copyVisitor{destParentFd: destParentFd, rootName: name, warnf: e.Warnf}
	w := walk.New(walk.Options{Warnf: e.Warnf})
	return w.Walk(joinPath(e.SrcRoot, relPath), cv)
}

// copyVisitor mirrors the src-side walk with a parallel stack of
// destination directory fds, creating each destination directory as its
// matching src directory is entered and copying regular files as they're
// seen.
type copyVisitor struct {
	destParentFd int    // the fd of relPath's own parent in the destination tree
	rootName     string // the subtree's own directory name, already mkdir'd by copySubtree
	destFds      []int
	warnf        func(format string, args ...any)
}

func (cv *copyVisitor) DirEnter(path []byte, relOffset int) error {
	rel := string(path[relOffset:])
	if len(cv.destFds) == 0 {
		// The subtree root itself: its directory was already created (and
		// its name known) by copySubtree; open it here to seed the stack.
		fd, err := unix.Openat(cv.destParentFd, cv.rootName, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
		if err != nil {
			return mirror.NewFSError("openat-dest", rel, err)
		}
		cv.destFds = append(cv.destFds, fd)
		return nil
	}

	parent := cv.destFds[len(cv.destFds)-1]
	name := basename(rel)
	if err := unix.Mkdirat(parent, name, 0o755); err != nil && !os.IsExist(err) {
		return mirror.NewFSError("mkdirat", rel, err)
	}
	fd, err := unix.Openat(parent, name, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return mirror.NewFSError("openat-dest", rel, err)
	}
	cv.destFds = append(cv.destFds, fd)
	return nil
}

func (cv *copyVisitor) File(e *walk.Entry) (bool, error) {
	if e.Kind == walk.EntryDir {
		return true, nil // DirEnter does the actual mkdir
	}
	name := string(e.Path[e.NameOffset:])
	parent := cv.destFds[len(cv.destFds)-1]
	if err := copyFromFd(e.Fd, parent, name); err != nil {
		cv.warnf("%s", err)
	}
	return false, nil
}

func (cv *copyVisitor) DirLeave(path []byte, relOffset int) error {
	n := len(cv.destFds) - 1
	fd := cv.destFds[n]
	cv.destFds = cv.destFds[:n]
	return unix.Close(fd)
}

// copyRegularAt opens src/name relative to srcDirFd and copies it into a
// freshly created dest/name relative to destDirFd.
func copyRegularAt(srcDirFd, destDirFd int, name string) error {
	srcFd, err := unix.Openat(srcDirFd, name, unix.O_RDONLY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return mirror.NewFSError("openat-src", name, err)
	}
	defer unix.Close(srcFd)

	return copyFromFd(srcFd, destDirFd, name)
}

// copyFromFd copies the already-open source descriptor srcFd into a new
// file named name under destDirFd. srcFd is not closed here: the two
// callers above manage its lifetime themselves (one owns it outright, the
// other borrows it from a walk.Entry, which closes it unconditionally once
// File returns). Because srcFd may be a borrowed descriptor, it is never
// wrapped directly in an *os.File: os.NewFile unconditionally attaches a
// finalizer that closes its argument, and a finalizer racing the walker's
// own close of the same fd number can silently close an unrelated,
// since-reused descriptor. Instead, copyFromFd dup(2)s srcFd first and
// hands the *copy* to os.NewFile, so the finalizer (and the explicit Close
// below) only ever touches a descriptor this function alone owns.
func copyFromFd(srcFd int, destDirFd int, name string) error {
	destFd, err := unix.Openat(destDirFd, name, unix.O_CREAT|unix.O_EXCL|unix.O_WRONLY, 0o644)
	if err != nil {
		return mirror.NewFSError("openat-dest", name, err)
	}
	destFile := os.NewFile(uintptr(destFd), name)

	srcDup, err := unix.Dup(srcFd)
	if err != nil {
		destFile.Close()
		return mirror.NewFSError("dup-src", name, err)
	}
	srcFile := os.NewFile(uintptr(srcDup), name)
	defer srcFile.Close()

	var st unix.Stat_t
	if err := unix.Fstat(srcFd, &st); err != nil {
		destFile.Close()
		return mirror.NewFSError("fstat-src", name, err)
	}

	var copyErr error
	if st.Size >= mmapThreshold {
		copyErr = copyViaMmap(destFile, srcFile)
	} else {
		copyErr = copyChunked(destFile, srcFile)
	}
	if copyErr != nil {
		destFile.Close()
		return mirror.NewFSError("copy", name, copyErr)
	}

	mtime := mtimeOf(&st)
	times := []unix.Timespec{
		unix.NsecToTimespec(mtime.UnixNano()),
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	if err := unix.UtimesNanoAt(destDirFd, name, times, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		destFile.Close()
		return mirror.NewFSError("utimes-dest", name, err)
	}

	if err := destFile.Close(); err != nil {
		return mirror.NewFSError("close-dest", name, err)
	}
	return nil
}

// copyChunked copies src to dst in copyChunkSize pieces via io.CopyBuffer,
// matching §4.7's literal 4 KiB chunking.
func copyChunked(dst, src *os.File) error {
	buf := make([]byte, copyChunkSize)
	_, err := io.CopyBuffer(dst, src, buf)
	return err
}

// splitRel splits a manifest rel-path into its parent directory (possibly
// "") and base name.
func splitRel(relPath string) (dir, name string) {
	idx := strings.LastIndexByte(relPath, '/')
	if idx < 0 {
		return "", relPath
	}
	return relPath[:idx], relPath[idx+1:]
}

func basename(relPath string) string {
	_, name := splitRel(relPath)
	return name
}

func joinPath(root, rel string) string {
	if rel == "" {
		return root
	}
	return root + "/" + rel
}

// openDirChain opens root, then each "/"-separated component of rel in
// turn, relative to the previous hop, with O_NOFOLLOW. When create is true
// missing components are created with mkdirat as the chain is walked
// (destination side); when false a missing component is an error (source
// side). The caller owns the returned fd.
func openDirChain(root, rel string, create bool) (int, error) {
	fd, err := unix.Open(root, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
	if err != nil {
		return -1, err
	}
	if rel == "" {
		return fd, nil
	}
	for _, comp := range strings.Split(rel, "/") {
		next, err := unix.Openat(fd, comp, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
		if err != nil {
			if create && os.IsNotExist(err) {
				if mkErr := unix.Mkdirat(fd, comp, 0o755); mkErr != nil && !os.IsExist(mkErr) {
					unix.Close(fd)
					return -1, mkErr
				}
				next, err = unix.Openat(fd, comp, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NOFOLLOW, 0)
			}
			if err != nil {
				unix.Close(fd)
				return -1, err
			}
		}
		unix.Close(fd)
		fd = next
	}
	return fd, nil
}
