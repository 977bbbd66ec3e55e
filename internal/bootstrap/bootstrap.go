package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/AMDmi3/rust-web-project-template/internal/config"
	"github.com/AMDmi3/rust-web-project-template/internal/gate"
	"github.com/AMDmi3/rust-web-project-template/internal/gitutil"
	"github.com/AMDmi3/rust-web-project-template/internal/inplace"
	"github.com/AMDmi3/rust-web-project-template/internal/logging"
	"github.com/AMDmi3/rust-web-project-template/internal/rewrite"
)

// ErrMissingTarget indicates no target name was supplied.
var ErrMissingTarget = errors.New("target name must not be empty")

// Options configures a single bootstrap run.
type Options struct {
	Root   string
	Target string
	Config config.Config

	// Executable is the running tool binary; it is deleted with the other
	// self artifacts when it lives under Root.
	Executable string

	Stdin    io.Reader
	Stderr   io.Writer
	UseColor bool

	// Detect overrides sed dialect probing. Defaults to inplace.Detect.
	Detect func(context.Context) (inplace.Dialect, error)
}

// Result describes how far a run got and what it changed.
type Result struct {
	State     State
	Engine    string
	Dialect   inplace.Dialect
	Removed   []string
	Renamed   []rewrite.Rename
	Rewritten []string
}

// Run executes the whole bootstrap sequence against opts.Root.
func Run(ctx context.Context, opts Options) (Result, error) {
	res := Result{State: StateStart, Engine: opts.Config.Engine}
	logger := logging.GetLogger("bootstrap")
	defer logging.LogOperationStart(logger, "bootstrap "+opts.Target)()

	if opts.Target == "" {
		return res, ErrMissingTarget
	}
	if err := opts.Config.Validate(); err != nil {
		return res, err
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return res, err
	}
	cfg := opts.Config

	rw, err := withTraceRegion(ctx, "detect", func() (inplace.Rewriter, error) {
		rw, dialect, err := selectRewriter(ctx, cfg.Engine, opts.Detect)
		res.Dialect = dialect
		return rw, err
	})
	if err != nil {
		return res, err
	}
	res.State = StateDialectDetected
	logger.Info().Str("engine", cfg.Engine).Stringer("dialect", res.Dialect).Msg("rewrite engine selected")

	if err := gate.CheckDirectory(root, cfg.TemplateName); err != nil {
		res.State = StateAborted
		return res, err
	}
	res.State = StateGateChecked

	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	if err := gate.Confirm(stdin, stderr, gate.Prompt{
		Root:        root,
		Placeholder: cfg.Placeholder,
		Target:      opts.Target,
		UseColor:    opts.UseColor,
	}); err != nil {
		res.State = StateAborted
		return res, err
	}
	res.State = StateConfirmed

	fail := func(err error) (Result, error) {
		logger.Error().Err(err).Stringer("state", res.State).Msg("bootstrap stopped")
		return res, &StageError{Reached: res.State, Root: root, Err: err}
	}

	if err := withTraceRegionErr(ctx, "reset", func() error {
		return removeHistory(root, &res)
	}); err != nil {
		return fail(err)
	}
	res.State = StateHistoryRemoved

	if err := withTraceRegionErr(ctx, "self-delete", func() error {
		return removeSelf(root, SelfArtifacts(root, cfg, opts.Executable), &res)
	}); err != nil {
		return fail(err)
	}
	res.State = StateSelfDeleted

	if err := withTraceRegionErr(ctx, "rename", func() error {
		renames, err := rewrite.PlanRenames(root, cfg.Placeholder, opts.Target)
		if err != nil {
			return err
		}
		if err := rewrite.ApplyRenames(renames); err != nil {
			return err
		}
		res.Renamed = renames
		return nil
	}); err != nil {
		return fail(fmt.Errorf("rename paths: %w", err))
	}
	res.State = StatePathsRenamed
	logger.Info().Int("count", len(res.Renamed)).Msg("paths renamed")

	rewritten, err := withTraceRegion(ctx, "content", func() ([]string, error) {
		return rewrite.RewriteContents(ctx, root, cfg.Placeholder, opts.Target, rw)
	})
	if err != nil {
		return fail(fmt.Errorf("rewrite contents: %w", err))
	}
	res.Rewritten = rewritten
	res.State = StateContentsRewritten
	logger.Info().Int("count", len(rewritten)).Msg("contents rewritten")

	if err := withTraceRegionErr(ctx, "git-init", func() error {
		return gitutil.Init(ctx, root, cfg.InitialBranch)
	}); err != nil {
		return fail(err)
	}
	res.State = StateRepoReinitialized

	if err := withTraceRegionErr(ctx, "git-commit", func() error {
		if err := gitutil.AddAll(ctx, root); err != nil {
			return err
		}
		return gitutil.Commit(ctx, root, cfg.CommitMessage)
	}); err != nil {
		return fail(err)
	}
	res.State = StateCommitted
	logger.Info().Str("message", cfg.CommitMessage).Msg("initial commit created")

	return res, nil
}

func selectRewriter(ctx context.Context, engine string, detect func(context.Context) (inplace.Dialect, error)) (inplace.Rewriter, inplace.Dialect, error) {
	if engine == config.EngineNative {
		return inplace.NativeRewriter{}, 0, nil
	}
	if detect == nil {
		detect = inplace.Detect
	}
	dialect, err := detect(ctx)
	if err != nil {
		return nil, 0, err
	}
	return inplace.SedRewriter{Dialect: dialect}, dialect, nil
}

func removeHistory(root string, res *Result) error {
	path := filepath.Join(root, gitutil.MetadataDir)
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	res.Removed = append(res.Removed, path)
	return nil
}

func removeSelf(root string, paths []string, res *Result) error {
	for _, path := range paths {
		if !isWithin(path, root) || samePath(path, root) {
			return fmt.Errorf("refusing to remove %s outside %s", path, root)
		}
		if _, err := os.Lstat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
		res.Removed = append(res.Removed, path)
		if err := pruneEmptyParents(root, filepath.Dir(path)); err != nil {
			return err
		}
	}
	return nil
}

// pruneEmptyParents removes dir and its ancestors below root while they are
// empty, so deleting cmd/bootstrap does not leave a bare cmd/ behind.
func pruneEmptyParents(root, dir string) error {
	for !samePath(dir, root) && isWithin(dir, root) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// SelfArtifacts lists the absolute paths of the tool's own files under root.
func SelfArtifacts(root string, cfg config.Config, executable string) []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for _, rel := range cfg.SelfPaths {
		add(filepath.Join(root, filepath.FromSlash(rel)))
	}
	if executable != "" {
		if abs, err := filepath.Abs(executable); err == nil && isWithin(abs, root) && !samePath(abs, root) {
			add(abs)
		}
	}
	return paths
}

func isWithin(child, parent string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
