package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AMDmi3/rust-web-project-template/internal/bootstrap"
	"github.com/AMDmi3/rust-web-project-template/internal/config"
	"github.com/AMDmi3/rust-web-project-template/internal/gate"
	"github.com/AMDmi3/rust-web-project-template/internal/logging"
	"github.com/spf13/cobra"
)

func runRoot(cmd *cobra.Command, opts *rootOptions, args []string) error {
	useColor := gate.WriterIsTerminal(cmd.ErrOrStderr())
	logging.SetupLogger(opts.verbose, cmd.ErrOrStderr(), !useColor)

	needsTarget := !opts.check && !opts.writeConfig
	if needsTarget && (len(args) != 1 || args[0] == "") {
		return ErrUsage
	}

	root, err := resolveRoot(opts.directory)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root, opts)
	if err != nil {
		return err
	}

	if opts.writeConfig {
		return writeConfig(cmd, root, opts, cfg)
	}
	if opts.check {
		return runDoctor(cmd, root, cfg)
	}

	target := args[0]
	executable := currentExecutable()

	if opts.dryRun {
		plan, err := bootstrap.BuildPlan(root, cfg, target, executable)
		if err != nil {
			return err
		}
		return plan.Render(cmd.OutOrStdout())
	}

	res, err := bootstrap.Run(cmd.Context(), bootstrap.Options{
		Root:       root,
		Target:     target,
		Config:     cfg,
		Executable: executable,
		Stdin:      cmd.InOrStdin(),
		Stderr:     cmd.ErrOrStderr(),
		UseColor:   useColor,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Bootstrapped %s at %s: renamed %d %s, rewrote %d %s, created initial commit.\n",
		target, root,
		len(res.Renamed), plural(len(res.Renamed), "path", "paths"),
		len(res.Rewritten), plural(len(res.Rewritten), "file", "files"))
	return nil
}

func resolveRoot(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

func loadConfig(root string, opts *rootOptions) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.LoadFromRoot(root)
	}
	if err != nil {
		return config.Config{}, err
	}
	if opts.engine != "" {
		cfg.Engine = strings.ToLower(opts.engine)
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// writeConfig saves the effective configuration so a derived template can
// commit it alongside the tool. Existing files are never overwritten.
func writeConfig(cmd *cobra.Command, root string, opts *rootOptions, cfg config.Config) error {
	path := opts.configPath
	if path == "" {
		path = filepath.Join(root, config.FileName)
	}
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return err
}

func currentExecutable() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved
	}
	return exe
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
