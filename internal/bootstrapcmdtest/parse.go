package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

type options struct {
	cloneName string
	noGit     bool
	keep      bool
	help      bool
}

// parseArgs splits harness flags from the command to run. Parsing stops at
// the first positional argument, so `--` is optional.
func parseArgs(args []string) (options, []string, error) {
	opts := options{cloneName: "clone"}

	fs := pflag.NewFlagSet("bootstrapcmdtest", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	fs.StringVar(&opts.cloneName, "clone-name", opts.cloneName, "directory name of the clone")
	fs.BoolVar(&opts.noGit, "no-git", false, "skip seeding git history")
	fs.BoolVar(&opts.keep, "keep", false, "preserve the fixture for debugging")
	fs.BoolVarP(&opts.help, "help", "h", false, "show usage")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	if opts.help {
		return opts, nil, nil
	}

	name := opts.cloneName
	if name == "" || name == "." || name == ".." || strings.ContainsRune(name, filepath.Separator) {
		return options{}, nil, fmt.Errorf("clone name must be a single path segment: %q", name)
	}

	cmd := fs.Args()
	if len(cmd) == 0 {
		return options{}, nil, errors.New("missing command")
	}
	return opts, cmd, nil
}
