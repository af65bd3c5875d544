// dsl.go - lex and parse the scripted end-to-end test harness
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

// Package e2e is a small scripted test harness for go-mirror's end-to-end
// scenarios (§8), in the shape of the teacher's own cmp/testsuite: a
// registry of named verbs, each implementing Cmd, driven by ".t" script
// files tokenized with shlex.
package e2e

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/opencoff/shlex"
)

// Cmd is one verb the script DSL can invoke.
type Cmd interface {
	Name() string
	Run(env *Env, args []string) error
}

type registry struct {
	sync.Mutex
	once sync.Once
	cmds map[string]Cmd
}

var commands registry

// RegisterCommand adds cmd to the global verb registry; called from each
// verb file's init().
func RegisterCommand(cmd Cmd) {
	commands.Lock()
	defer commands.Unlock()
	commands.once.Do(func() {
		commands.cmds = make(map[string]Cmd)
	})
	nm := cmd.Name()
	if _, ok := commands.cmds[nm]; ok {
		panic(fmt.Sprintf("%s: command already registered", nm))
	}
	commands.cmds[nm] = cmd
}

// Step is one parsed line of a script: the verb to run and its arguments.
type Step struct {
	Cmd  Cmd
	Args []string
}

// ReadScript reads and tokenizes a ".t" file: blank lines and lines
// starting with '#' are skipped, a trailing '\' continues the line, and
// each resulting line is shlex-tokenized into <verb, args...>.
func ReadScript(fn string) ([]Step, error) {
	fd, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	var steps []Step
	var line string
	b := bufio.NewScanner(fd)
	for n := 1; b.Scan(); n++ {
		part := strings.TrimSpace(b.Text())
		if len(part) == 0 || part[0] == '#' {
			continue
		}
		if part[len(part)-1] == '\\' {
			line += part[:len(part)-1]
			continue
		}
		line += part

		args, err := shlex.Split(line)
		line = ""
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", fn, n, err)
		}

		verb := args[0]
		cmd, ok := commands.cmds[verb]
		if !ok {
			return nil, fmt.Errorf("%s:%d: unknown verb %q", fn, n, verb)
		}
		steps = append(steps, Step{Cmd: cmd, Args: args[1:]})
	}
	if err := b.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return steps, nil
}

// RunScript reads fn and executes every step against env, stopping at the
// first step that fails.
func RunScript(env *Env, fn string) error {
	steps, err := ReadScript(fn)
	if err != nil {
		return err
	}
	for _, s := range steps {
		if err := s.Cmd.Run(env, s.Args); err != nil {
			return fmt.Errorf("%s: %w", s.Cmd.Name(), err)
		}
	}
	return nil
}
