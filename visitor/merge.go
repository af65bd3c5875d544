// merge.go - reconciles a destination tree against a Manifest (§4.5)
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
	"github.com/opencoff/go-mirror/manifest"
	"github.com/opencoff/go-mirror/report"
)

// NewMerge builds a merge walker. It shares every comparison and
// bookkeeping behavior with VerifyVisitor; the only difference is the
// reporter, which in merge-dir drives a copyengine.Engine instead of only
// logging.
func NewMerge(m *manifest.Manifest, reporter *report.MergeReporter) (*VerifyVisitor, error) {
	return NewVerify(m, reporter)
}
