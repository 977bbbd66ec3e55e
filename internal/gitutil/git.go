package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// MetadataDir is the per-repository git metadata directory name.
const MetadataDir = ".git"

// ErrGitMissing indicates git could not be found on PATH.
var ErrGitMissing = errors.New("git not found on PATH")

// Run executes git within dir and returns trimmed stdout.
func Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %v\n%s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Available reports whether git can be executed.
func Available() error {
	if _, err := exec.LookPath("git"); err != nil {
		return ErrGitMissing
	}
	return nil
}

// HasMetadata reports whether dir carries its own .git entry.
func HasMetadata(dir string) bool {
	_, err := os.Lstat(filepath.Join(dir, MetadataDir))
	return err == nil
}

// Init creates an empty repository in dir. An empty branch keeps git's default.
func Init(ctx context.Context, dir, initialBranch string) error {
	args := []string{"init", "--quiet"}
	if initialBranch != "" {
		args = append(args, "--initial-branch", initialBranch)
	}
	_, err := Run(ctx, dir, args...)
	return err
}

// AddAll stages the entire working tree.
func AddAll(ctx context.Context, dir string) error {
	_, err := Run(ctx, dir, "add", "--all", ".")
	return err
}

// Commit records the staged tree with message.
func Commit(ctx context.Context, dir, message string) error {
	_, err := Run(ctx, dir, "commit", "--quiet", "--message", message)
	return err
}

// CommitCount reports how many commits are reachable from HEAD.
func CommitCount(ctx context.Context, dir string) (int, error) {
	out, err := Run(ctx, dir, "rev-list", "--count", "HEAD")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected rev-list output: %s", out)
	}
	return n, nil
}

// HeadSubject returns the subject line of the HEAD commit.
func HeadSubject(ctx context.Context, dir string) (string, error) {
	return Run(ctx, dir, "log", "-1", "--format=%s", "HEAD")
}
