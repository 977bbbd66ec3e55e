package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/AMDmi3/rust-web-project-template/internal/config"
	"github.com/AMDmi3/rust-web-project-template/internal/gitutil"
	"github.com/AMDmi3/rust-web-project-template/internal/rewrite"
)

// Plan is what a run would do, computed without touching the tree.
type Plan struct {
	Root           string
	Placeholder    string
	Target         string
	Removals       []string
	Renames        []rewrite.Rename
	ContentMatches []string
}

// BuildPlan previews a run. Entries under paths that the reset deletes are
// left out, since they never reach the rename or content passes.
func BuildPlan(root string, cfg config.Config, target, executable string) (Plan, error) {
	if target == "" {
		return Plan{}, ErrMissingTarget
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{Root: root, Placeholder: cfg.Placeholder, Target: target}

	removals := append([]string{filepath.Join(root, gitutil.MetadataDir)}, SelfArtifacts(root, cfg, executable)...)
	for _, p := range removals {
		if _, err := os.Lstat(p); err == nil {
			plan.Removals = append(plan.Removals, p)
		} else if !errors.Is(err, os.ErrNotExist) {
			return Plan{}, err
		}
	}
	removed := func(p string) bool {
		for _, r := range plan.Removals {
			if isWithin(p, r) {
				return true
			}
		}
		return false
	}

	renames, err := rewrite.PlanRenames(root, cfg.Placeholder, target)
	if err != nil {
		return Plan{}, err
	}
	for _, r := range renames {
		if !removed(r.From) {
			plan.Renames = append(plan.Renames, r)
		}
	}

	matches, err := rewrite.FindContentMatches(root, cfg.Placeholder)
	if err != nil {
		return Plan{}, err
	}
	for _, m := range matches {
		if !removed(m) {
			plan.ContentMatches = append(plan.ContentMatches, m)
		}
	}
	return plan, nil
}

// Render writes a human-readable summary of the plan to w.
func (p Plan) Render(w io.Writer) error {
	rel := func(path string) string { return rewrite.Relative(p.Root, path) }

	if _, err := fmt.Fprintf(w, "Would bootstrap %s: %q -> %q\n", p.Root, p.Placeholder, p.Target); err != nil {
		return err
	}
	fmt.Fprintf(w, "Delete (%d):\n", len(p.Removals))
	for _, path := range p.Removals {
		fmt.Fprintf(w, "  %s\n", rel(path))
	}
	fmt.Fprintf(w, "Rename (%d):\n", len(p.Renames))
	for _, r := range p.Renames {
		fmt.Fprintf(w, "  %s -> %s\n", rel(r.From), rel(r.To))
	}
	fmt.Fprintf(w, "Rewrite contents (%d):\n", len(p.ContentMatches))
	for _, path := range p.ContentMatches {
		fmt.Fprintf(w, "  %s\n", rewrite.FinalPath(rel(path), p.Placeholder, p.Target))
	}
	_, err := fmt.Fprintln(w, "Then: git init, stage everything, and create the initial commit.")
	return err
}
