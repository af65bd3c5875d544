// diag.go - fatal/non-fatal diagnostics (§7)
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

package main

import (
	"fmt"
	"os"
	"path"
)

// Z is the program's basename, used to prefix every diagnostic the same
// way the teacher's own test-runner does.
var Z = path.Base(os.Args[0])

// warnf writes a non-fatal diagnostic to stderr. Every diagnostic about a
// filesystem entry that reaches it already has the offending path quoted
// in the message, satisfying §7's "quoted path" requirement; the per-run
// summary lines carry no path.
func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", Z, fmt.Sprintf(format, args...))
}

// fatalf writes a diagnostic to stderr and exits with status 1, the exit
// code §6 reserves for "bad arguments, open failure, I/O failure".
func fatalf(format string, args ...any) {
	warnf(format, args...)
	os.Exit(1)
}
