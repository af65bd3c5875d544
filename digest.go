// digest.go - streaming content fingerprint (§4.2)
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

package mirror

import (
	"io"

	"golang.org/x/sys/unix"
	"lukechampine.com/blake3"
)

// chunkSize is the read granularity used while accumulating a digest; it
// matches the chunk size spec.md §4.2 and §4.7 both call out explicitly.
const chunkSize = 4096

// Digester is a streaming accumulator that produces a fixed 8-octet
// fingerprint of a file's bytes. The specific function (here, BLAKE3
// truncated to 8 bytes) is not load-bearing per §9's open question, as
// long as it stays fixed across one manifest's lifetime.
type Digester struct {
	h *blake3.Hasher
}

// NewDigester returns an initialized Digester, ready for Update.
func NewDigester() *Digester {
	return &Digester{h: blake3.New()}
}

// Update feeds buf into the running digest.
func (d *Digester) Update(buf []byte) {
	d.h.Write(buf) //nolint:errcheck // hash.Hash.Write never fails
}

// Finalize returns the accumulated digest. The Digester must not be reused
// afterwards.
func (d *Digester) Finalize() Digest {
	var out Digest
	sum := d.h.Sum(nil)
	copy(out[:], sum[:DigestSize])
	return out
}

// DigestReader streams r in chunkSize pieces and returns its fingerprint.
// Any read error aborts the whole computation — there is no partial-failure
// recovery, per §4.2.
func DigestReader(r io.Reader) (Digest, error) {
	d := NewDigester()
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			d.Update(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Digest{}, err
		}
	}
	return d.Finalize(), nil
}

// DigestFd streams a raw, caller-owned file descriptor in chunkSize pieces
// and returns its fingerprint, without taking ownership of fd: it reads via
// unix.Read directly rather than wrapping fd in an *os.File. Callers that
// only borrow fd (e.g. a walk.Entry whose fd the walker closes itself once
// the callback returns) must use this instead of DigestReader, since
// os.NewFile unconditionally attaches a finalizer that closes the fd when
// the wrapper is garbage-collected — closing whatever descriptor number has
// since been reused if fd was already closed elsewhere by then.
func DigestFd(fd int) (Digest, error) {
	d := NewDigester()
	buf := make([]byte, chunkSize)
	for {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			d.Update(buf[:n])
		}
		if n == 0 && err == nil {
			break
		}
		if err != nil {
			return Digest{}, err
		}
	}
	return d.Finalize(), nil
}
