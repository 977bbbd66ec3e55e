package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AMDmi3/rust-web-project-template/internal/config"
	"github.com/AMDmi3/rust-web-project-template/internal/gate"
	"github.com/AMDmi3/rust-web-project-template/internal/gitutil"
	"github.com/AMDmi3/rust-web-project-template/internal/inplace"
	"github.com/spf13/cobra"
)

type doctorCheck struct {
	Name string
	Fn   func(context.Context) (string, error)
}

func runDoctor(cmd *cobra.Command, root string, cfg config.Config) error {
	checks := []doctorCheck{
		{Name: "git installed", Fn: func(context.Context) (string, error) {
			return "", gitutil.Available()
		}},
		{Name: "content rewrite engine", Fn: func(ctx context.Context) (string, error) {
			if cfg.Engine == config.EngineNative {
				return "native", nil
			}
			dialect, err := inplace.Detect(ctx)
			if err != nil {
				return "", err
			}
			return "sed (" + dialect.String() + ")", nil
		}},
		{Name: "not the template checkout", Fn: func(context.Context) (string, error) {
			return "", gate.CheckDirectory(root, cfg.TemplateName)
		}},
		{Name: "project root readable", Fn: func(context.Context) (string, error) {
			info, err := os.Stat(root)
			if err != nil {
				return "", err
			}
			if !info.IsDir() {
				return "", errors.New("not a directory")
			}
			return root, nil
		}},
	}

	var failures int
	for _, check := range checks {
		detail, err := check.Fn(cmd.Context())
		if err != nil {
			failures++
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", check.Name, err)
			continue
		}
		if detail != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", check.Name, detail)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", check.Name)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d checks failed", failures)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ready to replace %q\n", cfg.Placeholder)
	return nil
}
