// e2e_test.go - runs every "tests/*.t" script against a fresh scratch tree
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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScripts(t *testing.T) {
	entries, err := os.ReadDir("tests")
	if err != nil {
		t.Fatalf("readdir tests: %s", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".t") {
			continue
		}
		fn := filepath.Join("tests", e.Name())
		t.Run(e.Name(), func(t *testing.T) {
			env := NewEnv(t.TempDir())
			if err := RunScript(env, fn); err != nil {
				t.Fatalf("%s: %s", fn, err)
			}
		})
	}
}
