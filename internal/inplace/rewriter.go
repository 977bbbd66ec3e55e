package inplace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Rewriter replaces every literal occurrence of placeholder with target
// inside a file, keeping all other bytes. It reports whether the file changed.
type Rewriter interface {
	Rewrite(ctx context.Context, path, placeholder, target string) (bool, error)
}

// ErrMultilinePattern indicates a placeholder sed cannot match line by line.
var ErrMultilinePattern = errors.New("sed cannot replace a placeholder containing a newline")

// Substitute is the pure transform behind every Rewriter.
func Substitute(content, placeholder, target []byte) ([]byte, bool) {
	if len(placeholder) == 0 || !bytes.Contains(content, placeholder) {
		return content, false
	}
	return bytes.ReplaceAll(content, placeholder, target), true
}

// NativeRewriter rewrites files without spawning a process. Read-only files
// are rewritten too, matching sed's replace-by-rename.
type NativeRewriter struct{}

func (NativeRewriter) Rewrite(ctx context.Context, path, placeholder, target string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	next, changed := Substitute(content, []byte(placeholder), []byte(target))
	if !changed {
		return false, nil
	}

	mode := info.Mode().Perm()
	if mode&0o200 == 0 {
		if err := os.Chmod(path, mode|0o200); err != nil {
			return false, err
		}
		defer func() { _ = os.Chmod(path, mode) }()
	}
	// Truncating the existing inode keeps its ownership.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return false, err
	}
	if _, err := f.Write(next); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, f.Close()
}

// SedRewriter drives the host sed using the detected dialect.
type SedRewriter struct {
	Dialect Dialect
}

func (r SedRewriter) Rewrite(ctx context.Context, path, placeholder, target string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if len(placeholder) == 0 || !bytes.Contains(content, []byte(placeholder)) {
		return false, nil
	}
	if strings.Contains(placeholder, "\n") {
		return false, ErrMultilinePattern
	}

	expr := fmt.Sprintf("s/%s/%s/g", escapePattern(placeholder), escapeReplacement(target))
	cmd := exec.CommandContext(ctx, "sed", r.Dialect.Args(expr, path)...)
	cmd.Env = byteLocaleEnv()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, fmt.Errorf("sed %s: %v\n%s", path, err, strings.TrimSpace(stderr.String()))
	}
	return true, nil
}

// escapePattern quotes every character that is special in a basic regular
// expression or in the s/// delimiter position.
func escapePattern(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '/', '.', '*', '[', ']', '^', '$':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func escapeReplacement(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\', '/', '&', '\n':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
