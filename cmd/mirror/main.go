// main.go - mirror CLI entry point (§6)
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

// Command mirror populates, verifies, and merges directory-tree manifests
// per spec.md §6.
package main

import (
	"fmt"
	"os"

	"github.com/opencoff/go-mirror/pathenc"
)

func main() {
	if err := pathenc.Init(); err != nil {
		fatalf("%s", err)
	}

	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fatalf("%s", err)
	}

	if cfg.version {
		fmt.Println(versionStr)
		return
	}

	if err := run(cfg); err != nil {
		fatalf("%s", err)
	}
}
