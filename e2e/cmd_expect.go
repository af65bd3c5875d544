// cmd_expect.go - "expect": assert on the last verify-dir/merge-dir report
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
	"fmt"
	"strconv"
	"strings"
)

type expectCmd struct{}

func (expectCmd) Name() string { return "expect" }

// expect mismatches=N missing=N new=N
//
// Any subset of the three keys may be given; unmentioned keys are not
// checked.
func (expectCmd) Run(env *Env, args []string) error {
	if env.Verify == nil {
		return fmt.Errorf("expect: no verify-dir or merge-dir has run yet")
	}

	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("expect: %q: want key=N", arg)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("expect: %q: %w", arg, err)
		}

		var got int
		switch key {
		case "mismatches":
			got = env.Verify.Mismatches
		case "missing":
			got = env.Verify.Missing
		case "new":
			got = env.Verify.New
		default:
			return fmt.Errorf("expect: unknown key %q", key)
		}

		if got != n {
			return fmt.Errorf("expect: %s: want %d, got %d", key, n, got)
		}
	}
	return nil
}

func init() {
	RegisterCommand(expectCmd{})
}
