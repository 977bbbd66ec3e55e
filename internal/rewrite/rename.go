package rewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrRenameConflict indicates a rename would overwrite an existing path.
var ErrRenameConflict = errors.New("rename target already exists")

// Rename is a single planned move. Paths are absolute.
type Rename struct {
	From string
	To   string
}

// PlanRenames lists every entry below root whose name contains placeholder,
// deepest entries first. Renaming in the returned order never invalidates a
// later entry because each move only changes the final path segment.
func PlanRenames(root, placeholder, target string) ([]Rename, error) {
	if placeholder == "" || placeholder == target {
		return nil, nil
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var renames []Rename
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			// Symlinks are renamed as links and never followed.
			if entry.IsDir() {
				if err := walk(path); err != nil {
					return err
				}
			}
			if strings.Contains(entry.Name(), placeholder) {
				renames = append(renames, Rename{
					From: path,
					To:   filepath.Join(dir, strings.ReplaceAll(entry.Name(), placeholder, target)),
				})
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return renames, nil
}

// ApplyRenames performs the planned moves in order.
func ApplyRenames(renames []Rename) error {
	for _, r := range renames {
		if r.From == r.To {
			continue
		}
		if _, err := os.Lstat(r.To); err == nil {
			return fmt.Errorf("%w: %s -> %s", ErrRenameConflict, r.From, r.To)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := os.Rename(r.From, r.To); err != nil {
			return err
		}
	}
	return nil
}

// FinalPath reports where path ends up once every rename has been applied.
func FinalPath(path, placeholder, target string) string {
	if placeholder == "" {
		return path
	}
	return strings.ReplaceAll(path, placeholder, target)
}

// Relative renders path relative to root for display.
func Relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
