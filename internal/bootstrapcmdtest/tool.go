// Implementation of the `bootstrapcmdtest` harness.
//
// Each invocation provisions `/tmp/bootstrap-transcripts/fixture-<id>/<clone-name>`
// as a miniature template clone with two commits of history, runs one command
// inside it with the freshly built `bootstrap` first on PATH, and removes the
// fixture afterward.
//
// Environment:
//   - BOOTSTRAP_CMDTEST_ID isolates fixtures between parallel transcripts.
//   - BOOTSTRAP_CMDTEST_TIMEOUT caps setup plus command runtime (default 10s, 0 disables).
//   - BOOTSTRAP_REPO_ROOT and BOOTSTRAP_BIN_DIR override where binaries are found.
package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultFixturesRoot = "/tmp/bootstrap-transcripts"
)

// fixtureFiles mirrors the shape of the real template: placeholder in
// directory names, file names, and file contents.
var fixtureFiles = map[string]string{
	"Cargo.toml":                       "[workspace]\nmembers = [\"foobar-daemon\", \"foobar-web\"]\n",
	"foobar-daemon/Cargo.toml":         "[package]\nname = \"foobar-daemon\"\n",
	"foobar-daemon/src/config.rs":      "const DEFAULT_DSN: &str = \"postgresql://foobar@localhost/foobar\";\n",
	"foobar-web/src/lib.rs":            "pub mod views;\n",
	"foobar-web/templates/foobar.html": "<title>foobar</title>\n",
	"README.md":                        "# foobar\n",
	"bootstrap":                        "#!/bin/sh\n# placeholder for the bootstrap tool itself\n",
}

var seedCommits = []string{
	"template: initial layout",
	"template: later history",
}

type tool struct {
	repoRoot     string
	binDir       string
	fixturesRoot string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newToolFromExecutable() (*tool, error) {
	root := os.Getenv("BOOTSTRAP_REPO_ROOT")
	if root == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		if exe, err = filepath.EvalSymlinks(exe); err != nil {
			return nil, err
		}
		// Installed as <repo>/bin/bootstrapcmdtest.
		root = filepath.Dir(filepath.Dir(exe))
	}
	t := newTool(root)
	if dir := os.Getenv("BOOTSTRAP_BIN_DIR"); dir != "" {
		t.binDir = filepath.Clean(dir)
	}
	return t, nil
}

func newTool(repoRoot string) *tool {
	repoRoot = filepath.Clean(repoRoot)
	return &tool{
		repoRoot:     repoRoot,
		binDir:       filepath.Join(repoRoot, "bin"),
		fixturesRoot: defaultFixturesRoot,
		stdin:        os.Stdin,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
	}
}

func (t *tool) runCLI(ctx context.Context, args []string) int {
	opts, cmdArgs, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
		t.printUsage()
		return 2
	}
	if opts.help {
		t.printUsage()
		return 0
	}

	timeout := timeoutFromEnv("BOOTSTRAP_CMDTEST_TIMEOUT", defaultTimeout)
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	code, err := t.run(ctx, opts, cmdArgs, timeout)
	if err != nil {
		fmt.Fprintln(t.stderr, "bootstrapcmdtest:", err)
		return 1
	}
	return code
}

func (t *tool) printUsage() {
	fmt.Fprint(t.stderr, `Usage: bootstrapcmdtest [options] [--] <command> [args...]

Creates a disposable clone of a miniature template, runs the given command
inside it, and cleans up afterward. Intended for transcript integration tests.

Options:
  --clone-name NAME    Directory name of the clone (default: clone).
  --no-git             Do not seed git history in the clone.
  --keep               Preserve the fixture for debugging (prints its path).
`)
}

func (t *tool) run(ctx context.Context, opts options, cmdArgs []string, timeout time.Duration) (int, error) {
	if _, err := os.Stat(filepath.Join(t.repoRoot, "go.mod")); err != nil {
		return 1, fmt.Errorf("locate repo root %q: %w", t.repoRoot, err)
	}
	if err := os.MkdirAll(t.fixturesRoot, 0o755); err != nil {
		return 1, err
	}

	fixture := filepath.Join(t.fixturesRoot, fixtureDirName())
	lock, err := lockFixture(ctx, fixture+".lock", timeout)
	if err != nil {
		return 1, err
	}
	defer lock.Release()

	clone, env, err := t.provision(ctx, fixture, opts)
	if err != nil {
		return 1, err
	}

	cmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Dir = clone
	cmd.Env = env.with("PWD", clone).list()
	cmd.Stdin = t.stdin
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr
	runErr := cmd.Run()
	if runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 124, fmt.Errorf("timed out after %s", timeout)
	}

	if opts.keep {
		fmt.Fprintf(t.stderr, "fixture kept at %s\n", clone)
	} else if err := removeAllUnder(t.fixturesRoot, fixture); err != nil {
		return 1, err
	}
	return exitStatus(runErr), nil
}

// provision recreates the fixture from scratch and returns the clone path
// plus the environment commands should run with.
func (t *tool) provision(ctx context.Context, fixture string, opts options) (string, envSet, error) {
	if err := removeAllUnder(t.fixturesRoot, fixture); err != nil {
		return "", nil, err
	}
	clone := filepath.Join(fixture, opts.cloneName)
	if err := writeFixture(clone); err != nil {
		return "", nil, err
	}

	env := deterministicEnv(os.Environ())
	if !opts.noGit {
		if err := seedGitHistory(ctx, clone, env); err != nil {
			return "", nil, err
		}
	}
	path := t.binDir
	if current := env["PATH"]; current != "" {
		path += string(os.PathListSeparator) + current
	}
	return clone, env.with("PATH", path), nil
}

func writeFixture(clone string) error {
	for rel, content := range fixtureFiles {
		path := filepath.Join(clone, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		mode := os.FileMode(0o644)
		if rel == "bootstrap" {
			mode = 0o755
		}
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			return err
		}
	}
	return nil
}

func seedGitHistory(ctx context.Context, dir string, env envSet) error {
	steps := [][]string{
		{"init", "--quiet", "--initial-branch", "main"},
		{"add", "--all", "."},
	}
	for i, msg := range seedCommits {
		args := []string{"commit", "--quiet", "-m", msg}
		if i > 0 {
			args = append(args, "--allow-empty")
		}
		steps = append(steps, args)
	}
	for _, args := range steps {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		cmd.Env = env.with("PWD", dir).list()
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		}
	}
	return nil
}

// envSet is a process environment keyed by variable name.
type envSet map[string]string

func newEnvSet(entries []string) envSet {
	env := make(envSet, len(entries))
	for _, entry := range entries {
		if key, value, ok := strings.Cut(entry, "="); ok {
			env[key] = value
		}
	}
	return env
}

// with returns a copy of env with key set to value.
func (env envSet) with(key, value string) envSet {
	out := make(envSet, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	out[key] = value
	return out
}

func (env envSet) list() []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func deterministicEnv(base []string) envSet {
	env := newEnvSet(base)
	for k, v := range map[string]string{
		"GIT_AUTHOR_NAME":     "bootstrap-test",
		"GIT_AUTHOR_EMAIL":    "bootstrap@example.com",
		"GIT_COMMITTER_NAME":  "bootstrap-test",
		"GIT_COMMITTER_EMAIL": "bootstrap@example.com",
		"GIT_AUTHOR_DATE":     "2000-01-01T00:00:00Z",
		"GIT_COMMITTER_DATE":  "2000-01-01T00:00:00Z",
		"GIT_CONFIG_GLOBAL":   os.DevNull,
		"GIT_CONFIG_NOSYSTEM": "1",
		"NO_COLOR":            "1",
	} {
		env[k] = v
	}
	return env
}

// removeAllUnder deletes target, which must be strictly inside root.
func removeAllUnder(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %s: not inside %s", target, root)
	}
	return os.RemoveAll(target)
}

func exitStatus(err error) int {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	default:
		return 127
	}
}

// timeoutFromEnv reads a duration from key. Zero disables the timeout; an
// unparsable value falls back to def.
func timeoutFromEnv(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	switch raw {
	case "":
		return def
	case "0":
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func fixtureDirName() string {
	sanitize := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}
	if id := strings.Trim(strings.Map(sanitize, strings.TrimSpace(os.Getenv("BOOTSTRAP_CMDTEST_ID"))), "._-"); id != "" {
		return "fixture-" + id
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("fixture-%d", os.Getpid())
	}
	return "fixture-" + hex.EncodeToString(b[:])
}
