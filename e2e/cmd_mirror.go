// cmd_mirror.go - "create-db", "verify-dir", "merge-dir": drive the engine
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

	"github.com/opencoff/go-mirror/copyengine"
	"github.com/opencoff/go-mirror/manifest"
	"github.com/opencoff/go-mirror/report"
	"github.com/opencoff/go-mirror/visitor"
	"github.com/opencoff/go-mirror/walk"
)

type createDBCmd struct{}

func (createDBCmd) Name() string { return "create-db" }

// create-db DB ROOT
func (createDBCmd) Run(env *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("create-db: want DB and ROOT")
	}
	m, err := manifest.Open(env.Path(args[0]), true)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Begin(); err != nil {
		return err
	}
	pv := visitor.NewPopulate(m)
	w := walk.New(walk.Options{})
	if err := w.Walk(env.Path(args[1]), pv); err != nil {
		_ = m.Rollback()
		return err
	}
	return m.Commit()
}

type verifyDirCmd struct{}

func (verifyDirCmd) Name() string { return "verify-dir" }

// verify-dir DB ROOT
func (verifyDirCmd) Run(env *Env, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("verify-dir: want DB and ROOT")
	}
	m, err := manifest.Open(env.Path(args[0]), false)
	if err != nil {
		return err
	}
	defer m.Close()

	r := report.NewVerifyReporter()
	vv, err := visitor.NewVerify(m, r)
	if err != nil {
		return err
	}
	w := walk.New(walk.Options{})
	if err := w.Walk(env.Path(args[1]), vv); err != nil {
		return err
	}
	vv.Finish()
	env.Verify = r
	return nil
}

type mergeDirCmd struct{}

func (mergeDirCmd) Name() string { return "merge-dir" }

// merge-dir DB SRC DEST
func (mergeDirCmd) Run(env *Env, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("merge-dir: want DB, SRC and DEST")
	}
	m, err := manifest.Open(env.Path(args[0]), false)
	if err != nil {
		return err
	}
	defer m.Close()

	eng := copyengine.New(env.Path(args[1]), env.Path(args[2]), nil)
	r := report.NewMergeReporter(eng)
	mv, err := visitor.NewMerge(m, r)
	if err != nil {
		return err
	}
	w := walk.New(walk.Options{})
	if err := w.Walk(env.Path(args[2]), mv); err != nil {
		return err
	}
	mv.Finish()
	env.Merge = r
	env.Verify = r.VerifyReporter
	return nil
}

func init() {
	RegisterCommand(createDBCmd{})
	RegisterCommand(verifyDirCmd{})
	RegisterCommand(mergeDirCmd{})
}
