// errors.go - descriptive errors for the mirror engine (§7)
//
// (c) 2024 Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package mirror

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// errAny returns true if the target error 'err' matches
// any in the list 'errs'; and returns false otherwise
func errAny(err error, errs ...error) bool {
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// ArgumentError reports a bad or missing CLI argument.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return "argument: " + e.Msg }

// ManifestOpenError wraps a failure to open or create the manifest store.
type ManifestOpenError struct {
	Path string
	Err  error
}

func (e *ManifestOpenError) Error() string {
	return fmt.Sprintf("manifest: open %q: %s", e.Path, e.Err)
}

func (e *ManifestOpenError) Unwrap() error { return e.Err }

// ManifestWriteError wraps a failure to mutate the manifest.
type ManifestWriteError struct {
	Op  string
	Err error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("manifest: %s: %s", e.Op, e.Err)
}

func (e *ManifestWriteError) Unwrap() error { return e.Err }

// ManifestReadError wraps a failure to read from the manifest.
type ManifestReadError struct {
	Op  string
	Err error
}

func (e *ManifestReadError) Error() string {
	return fmt.Sprintf("manifest: %s: %s", e.Op, e.Err)
}

func (e *ManifestReadError) Unwrap() error { return e.Err }

// FSErrorKind classifies a FilesystemError the way §7 enumerates.
type FSErrorKind int

const (
	FSOther FSErrorKind = iota
	FSAccessDenied
	FSNotFound
	FSLoop
	FSNameTooLong
	FSIO
)

func (k FSErrorKind) String() string {
	switch k {
	case FSAccessDenied:
		return "access_denied"
	case FSNotFound:
		return "not_found"
	case FSLoop:
		return "loop"
	case FSNameTooLong:
		return "name_too_long"
	case FSIO:
		return "io"
	default:
		return "other"
	}
}

// FilesystemError wraps an OS-level error encountered while walking or
// copying, classified into the kinds §7 enumerates.
type FilesystemError struct {
	Op   string
	Path string
	Kind FSErrorKind
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s '%s': %s", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// ClassifyErrno maps a raw syscall error to a FSErrorKind.
func ClassifyErrno(err error) FSErrorKind {
	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return FSAccessDenied
	case errors.Is(err, syscall.ENOENT), errors.Is(err, os.ErrNotExist):
		return FSNotFound
	case errors.Is(err, syscall.ELOOP):
		return FSLoop
	case errors.Is(err, syscall.ENAMETOOLONG):
		return FSNameTooLong
	case errors.Is(err, syscall.EIO):
		return FSIO
	default:
		return FSOther
	}
}

// NewFSError builds a FilesystemError with the kind inferred from err.
func NewFSError(op, path string, err error) *FilesystemError {
	return &FilesystemError{Op: op, Path: path, Kind: ClassifyErrno(err), Err: err}
}

// EncodingError reports a name that could not round-trip through the
// configured locale (§4.1, §7).
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding: %q: %s", e.Name, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// IsAccessDenied is a small helper used by the walker to decide whether an
// error should be demoted to a warning (§7).
func IsAccessDenied(err error) bool {
	var fe *FilesystemError
	if errors.As(err, &fe) {
		return fe.Kind == FSAccessDenied
	}
	return errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM)
}
