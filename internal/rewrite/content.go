package rewrite

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/AMDmi3/rust-web-project-template/internal/inplace"
	"github.com/AMDmi3/rust-web-project-template/internal/logging"
)

// RewriteContents walks root afresh and hands every regular file to rw.
// It returns the files whose content changed.
func RewriteContents(ctx context.Context, root, placeholder, target string, rw inplace.Rewriter) ([]string, error) {
	logger := logging.GetLogger("content")
	var rewritten []string
	err := walkRegularFiles(root, func(path string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		changed, err := rw.Rewrite(ctx, path, placeholder, target)
		if err != nil {
			return err
		}
		if changed {
			logger.Debug().Str("file", path).Msg("rewrote contents")
			rewritten = append(rewritten, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rewritten, nil
}

// FindContentMatches lists regular files under root containing placeholder
// without modifying them.
func FindContentMatches(root, placeholder string) ([]string, error) {
	if placeholder == "" {
		return nil, nil
	}
	needle := []byte(placeholder)
	var matches []string
	err := walkRegularFiles(root, func(path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if bytes.Contains(data, needle) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func walkRegularFiles(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return fn(path)
	})
}
