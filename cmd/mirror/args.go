// args.go - CLI surface (§6)
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

	flag "github.com/opencoff/pflag"
)

// tool names §6 recognizes for --tool.
const (
	toolCreateDB  = "create-db"
	toolVerifyDir = "verify-dir"
	toolMergeDir  = "merge-dir"
)

// config is the parsed form of the CLI surface of §6.
type config struct {
	tool    string
	dbPath  string
	source  string
	dest    string
	version bool
}

const versionStr = "0.1.0"

func parseArgs(argv []string) (*config, error) {
	var help, version bool
	var tool, db string

	fs := flag.NewFlagSet(Z, flag.ContinueOnError)
	fs.StringVarP(&tool, "tool", "t", "", "Run `T` - one of create-db, verify-dir, merge-dir")
	fs.StringVarP(&db, "db", "d", "", "Use manifest at `PATH`")
	fs.BoolVarP(&help, "help", "h", false, "Show this help and exit")
	fs.BoolVarP(&version, "version", "V", false, "Show version and exit")
	fs.SetOutput(os.Stdout)

	if err := fs.Parse(argv); err != nil {
		return nil, err
	}

	if help {
		usage(fs)
		os.Exit(0)
	}
	if version {
		return &config{version: true}, nil
	}

	switch tool {
	case toolCreateDB, toolVerifyDir, toolMergeDir:
	case "":
		return nil, fmt.Errorf("--tool is required")
	default:
		return nil, fmt.Errorf("unknown --tool %q", tool)
	}

	if db == "" {
		return nil, fmt.Errorf("--db is required")
	}

	rest := fs.Args()
	cfg := &config{tool: tool, dbPath: db}

	switch tool {
	case toolCreateDB, toolVerifyDir:
		if len(rest) != 1 {
			return nil, fmt.Errorf("%s takes exactly one SOURCE argument", tool)
		}
		cfg.source = rest[0]
	case toolMergeDir:
		if len(rest) != 2 {
			return nil, fmt.Errorf("merge-dir takes SOURCE and DEST arguments")
		}
		cfg.source = rest[0]
		cfg.dest = rest[1]
	}

	return cfg, nil
}

func usage(fs *flag.FlagSet) {
	fmt.Printf(usageStr, Z)
	fs.PrintDefaults()
}

var usageStr = `%s - mirror and verify directory trees against a manifest.

Usage:
  %[1]s --tool=create-db  --db=PATH SOURCE
  %[1]s --tool=verify-dir --db=PATH SOURCE
  %[1]s --tool=merge-dir  --db=PATH SOURCE DEST

Options:
`
