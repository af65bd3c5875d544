// reporter.go - mismatch reporting and diagnostics (§4.6, §7)
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

// Package report implements the MismatchReporter contract of §4.6: the
// callback surface a VerifyVisitor or MergeVisitor drives as it compares
// a filesystem tree against a Manifest. VerifyReporter only logs;
// MergeReporter additionally drives a copyengine.Engine to reconcile the
// destination tree.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opencoff/go-mirror"
	"github.com/opencoff/go-mirror/copyengine"
)

// MismatchReporter is the callback surface of §4.6. Any method may be a
// no-op.
type MismatchReporter interface {
	// FileNotFound reports that the manifest expected an entry the
	// filesystem lacks.
	FileNotFound(kind mirror.EntryType, relPath string)

	// NewFile reports that the filesystem has an entry the manifest
	// lacks.
	NewFile(kind mirror.EntryType, relPath string)

	// CheckMismatch compares expected against actual per §4.5's
	// comparison rule, reports a mismatch if they differ, and returns
	// whether they were equal (callers use this to decide descent).
	CheckMismatch(relPath string, expected, actual mirror.FileRecord) bool
}

// VerifyReporter writes a line of diagnostics to Out (stderr by default)
// for every mismatch, missing entry, or new entry it's told about, and
// tallies each kind.
type VerifyReporter struct {
	Out io.Writer

	Mismatches int
	Missing    int
	New        int
}

// NewVerifyReporter returns a VerifyReporter that writes to stderr.
func NewVerifyReporter() *VerifyReporter {
	return &VerifyReporter{Out: os.Stderr}
}

func (r *VerifyReporter) out() io.Writer {
	if r.Out == nil {
		return os.Stderr
	}
	return r.Out
}

// FileNotFound implements MismatchReporter.
func (r *VerifyReporter) FileNotFound(kind mirror.EntryType, relPath string) {
	r.Missing++
	fmt.Fprintf(r.out(), "missing: %s %q\n", kind, relPath)
}

// NewFile implements MismatchReporter.
func (r *VerifyReporter) NewFile(kind mirror.EntryType, relPath string) {
	r.New++
	fmt.Fprintf(r.out(), "new: %s %q\n", kind, relPath)
}

// CheckMismatch implements MismatchReporter.
func (r *VerifyReporter) CheckMismatch(relPath string, expected, actual mirror.FileRecord) bool {
	if expected.Equal(actual) {
		return true
	}
	r.Mismatches++
	fmt.Fprintf(r.out(), "mismatch: %q: %s\n", relPath, diffFields(expected, actual))
	return false
}

// diffFields names every field of §4.5's comparison rule that differs
// between expected and actual, so §8's "lists both size and mtime and
// digest differences" example holds literally.
func diffFields(expected, actual mirror.FileRecord) string {
	var diffs []string
	if expected.Type != actual.Type {
		diffs = append(diffs, "type")
	}
	if expected.Type == mirror.FILE && actual.Type == mirror.FILE {
		if expected.Size != actual.Size {
			diffs = append(diffs, "size")
		}
		if !expected.MTime.Equal(actual.MTime) {
			diffs = append(diffs, "mtime")
		}
		if expected.Digest != actual.Digest {
			diffs = append(diffs, "digest")
		}
	}
	if len(diffs) == 0 {
		return "type"
	}
	return strings.Join(diffs, ",")
}

// MergeReporter embeds a VerifyReporter for its diagnostics and drives a
// copyengine.Engine to reconcile the destination tree: a FileNotFound of
// type FILE copies the file, of type DIR recreates the whole subtree. A
// NewFile is only reported — merge never deletes from the destination.
type MergeReporter struct {
	*VerifyReporter
	Engine *copyengine.Engine
}

// NewMergeReporter returns a MergeReporter that copies through eng.
func NewMergeReporter(eng *copyengine.Engine) *MergeReporter {
	return &MergeReporter{VerifyReporter: NewVerifyReporter(), Engine: eng}
}

// FileNotFound implements MismatchReporter, additionally triggering the
// copy §4.5's MergeVisitor describes.
func (r *MergeReporter) FileNotFound(kind mirror.EntryType, relPath string) {
	r.VerifyReporter.FileNotFound(kind, relPath)
	switch kind {
	case mirror.FILE:
		r.Engine.CopyFile(relPath)
	case mirror.DIR:
		r.Engine.CopySubtree(relPath)
	}
}
