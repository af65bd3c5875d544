// env.go - per-script runtime state
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

package e2e

import (
	"path/filepath"

	"github.com/opencoff/go-mirror/report"
)

// Env is the working directory and last-seen diagnostics for one script
// run, analogous to the teacher's own TestEnv.
type Env struct {
	Root string // script-local scratch directory

	// Last reports left behind by the most recent verify-dir/merge-dir
	// step, inspected by the "expect" verb.
	Verify *report.VerifyReporter
	Merge  *report.MergeReporter
}

// NewEnv returns an Env scoped to root (normally t.TempDir()).
func NewEnv(root string) *Env {
	return &Env{Root: root}
}

// Path joins a script-relative name onto the script's root.
func (e *Env) Path(rel string) string {
	return filepath.Join(e.Root, rel)
}
