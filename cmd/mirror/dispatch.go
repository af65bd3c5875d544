// dispatch.go - wires Manifest + Visitor + Walker per §6 tool verb
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
	"github.com/opencoff/go-mirror/copyengine"
	"github.com/opencoff/go-mirror/manifest"
	"github.com/opencoff/go-mirror/report"
	"github.com/opencoff/go-mirror/visitor"
	"github.com/opencoff/go-mirror/walk"
)

func run(cfg *config) error {
	switch cfg.tool {
	case toolCreateDB:
		return runCreateDB(cfg)
	case toolVerifyDir:
		return runVerifyDir(cfg)
	case toolMergeDir:
		return runMergeDir(cfg)
	default:
		panic("unreachable: unvalidated tool " + cfg.tool)
	}
}

func runCreateDB(cfg *config) error {
	m, err := manifest.Open(cfg.dbPath, true)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Begin(); err != nil {
		return err
	}

	pv := visitor.NewPopulate(m)
	w := walk.New(walk.Options{Warnf: warnf})
	if err := w.Walk(cfg.source, pv); err != nil {
		_ = m.Rollback()
		return err
	}

	return m.Commit()
}

func runVerifyDir(cfg *config) error {
	m, err := manifest.Open(cfg.dbPath, false)
	if err != nil {
		return err
	}
	defer m.Close()

	r := report.NewVerifyReporter()
	vv, err := visitor.NewVerify(m, r)
	if err != nil {
		return err
	}

	w := walk.New(walk.Options{Warnf: warnf})
	if err := w.Walk(cfg.source, vv); err != nil {
		return err
	}
	vv.Finish()

	warnf("verify-dir: %d mismatch(es), %d missing, %d new", r.Mismatches, r.Missing, r.New)
	return nil
}

func runMergeDir(cfg *config) error {
	m, err := manifest.Open(cfg.dbPath, false)
	if err != nil {
		return err
	}
	defer m.Close()

	eng := copyengine.New(cfg.source, cfg.dest, warnf)
	r := report.NewMergeReporter(eng)
	mv, err := visitor.NewMerge(m, r)
	if err != nil {
		return err
	}

	w := walk.New(walk.Options{Warnf: warnf})
	if err := w.Walk(cfg.dest, mv); err != nil {
		return err
	}
	mv.Finish()

	warnf("merge-dir: %d mismatch(es), %d missing (copied), %d new", r.Mismatches, r.Missing, r.New)
	return nil
}
