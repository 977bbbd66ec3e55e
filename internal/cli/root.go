package cli

import (
	"errors"
	"fmt"

	"github.com/AMDmi3/rust-web-project-template/internal/version"
	"github.com/spf13/cobra"
)

var (
	// ErrUsage indicates the command line was missing the target name.
	ErrUsage = errors.New("missing required argument <name>")
	// ErrConfigExists is returned by --write-config when the file is already there.
	ErrConfigExists = errors.New("config file already exists")
)

func Execute() error {
	return execute(newRootCommand())
}

func execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if errors.Is(err, ErrUsage) {
		fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
	}
	return err
}

type rootOptions struct {
	directory   string
	configPath  string
	engine      string
	dryRun      bool
	check       bool
	writeConfig bool
	verbose     int
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "bootstrap <name>",
		Short: "Turn a fresh clone of the template into a new project called <name>",
		Long: `Replaces the template placeholder with <name> in every path and file,
discards the template's git history, and commits the result as the first
commit of a new repository. Run it once, right after cloning.`,
		Version:       version.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.directory, "directory", "C", "", "project root (default: current directory)")
	flags.StringVar(&opts.configPath, "config", "", "path to the bootstrap config (default: <root>/.bootstrap.toml)")
	flags.StringVar(&opts.engine, "engine", "", "content rewrite engine: sed or native (default from config)")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "show what would change without touching anything")
	flags.BoolVar(&opts.check, "check", false, "diagnose prerequisites without changing anything")
	flags.BoolVar(&opts.writeConfig, "write-config", false, "write the effective config to the config path and exit")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase log verbosity (repeatable)")

	return cmd
}
