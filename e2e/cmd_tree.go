// cmd_tree.go - "mkdir", "write", "touch", "rm": build and mutate fixture trees
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
	"os"
	"strconv"
	"time"
)

type mkdirCmd struct{}

func (mkdirCmd) Name() string { return "mkdir" }

// mkdir REL
func (mkdirCmd) Run(env *Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("mkdir: want exactly one path")
	}
	return os.MkdirAll(env.Path(args[0]), 0o755)
}

type writeCmd struct{}

func (writeCmd) Name() string { return "write" }

// write REL CONTENT (CONTENT may be "" for a zero-byte file)
func (writeCmd) Run(env *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("write: want REL and CONTENT")
	}
	return os.WriteFile(env.Path(args[0]), []byte(args[1]), 0o644)
}

type touchCmd struct{}

func (touchCmd) Name() string { return "touch" }

// touch REL UNIXSECONDS
func (touchCmd) Run(env *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("touch: want REL and UNIXSECONDS")
	}
	sec, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("touch: %w", err)
	}
	t := time.Unix(sec, 0)
	return os.Chtimes(env.Path(args[0]), t, t)
}

type rmCmd struct{}

func (rmCmd) Name() string { return "rm" }

// rm REL (file or directory, recursively)
func (rmCmd) Run(env *Env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("rm: want exactly one path")
	}
	return os.RemoveAll(env.Path(args[0]))
}

func init() {
	RegisterCommand(mkdirCmd{})
	RegisterCommand(writeCmd{})
	RegisterCommand(touchCmd{})
	RegisterCommand(rmCmd{})
}
