package rewrite

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/AMDmi3/rust-web-project-template/internal/inplace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func listTree(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func TestPlanRenamesOrdersChildrenBeforeParents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"foobar-web/src/foobar_views.rs": "",
		"foobar-web/Cargo.toml":          "",
		"README.md":                      "",
	})

	renames, err := PlanRenames(root, "foobar", "acme")
	require.NoError(t, err)
	require.Len(t, renames, 2)

	assert.Equal(t, filepath.Join(root, "foobar-web", "src", "foobar_views.rs"), renames[0].From)
	assert.Equal(t, filepath.Join(root, "foobar-web", "src", "acme_views.rs"), renames[0].To)
	assert.Equal(t, filepath.Join(root, "foobar-web"), renames[1].From)
	assert.Equal(t, filepath.Join(root, "acme-web"), renames[1].To)
}

func TestApplyRenamesReplacesEveryOccurrence(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/foobar_main.rs":          "",
		"foobar.toml":                 "",
		"foobar/foobar-foobar/lib.rs": "",
		"docs/untouched.md":           "",
	})

	renames, err := PlanRenames(root, "foobar", "acme")
	require.NoError(t, err)
	require.NoError(t, ApplyRenames(renames))

	assert.Equal(t, []string{
		"acme",
		"acme.toml",
		"acme/acme-acme",
		"acme/acme-acme/lib.rs",
		"docs",
		"docs/untouched.md",
		"src",
		"src/acme_main.rs",
	}, listTree(t, root))
}

func TestRenamesAreNoOpWhenTargetEqualsPlaceholder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"foobar/config.toml": ""})

	renames, err := PlanRenames(root, "foobar", "foobar")
	require.NoError(t, err)
	assert.Empty(t, renames)
}

func TestRenameMovesSymlinkWithoutFollowing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"target.txt": "foobar"})
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "foobar.link")))

	renames, err := PlanRenames(root, "foobar", "acme")
	require.NoError(t, err)
	require.NoError(t, ApplyRenames(renames))

	dest, err := os.Readlink(filepath.Join(root, "acme.link"))
	require.NoError(t, err)
	assert.Equal(t, "target.txt", dest)
}

func TestApplyRenamesRefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"foobar.toml": "old",
		"acme.toml":   "existing",
	})

	renames, err := PlanRenames(root, "foobar", "acme")
	require.NoError(t, err)
	err = ApplyRenames(renames)
	require.ErrorIs(t, err, ErrRenameConflict)

	data, err := os.ReadFile(filepath.Join(root, "acme.toml"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data))
}

func TestRewriteContents(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"acme.toml":       "db=foobar\n",
		"src/lib.rs":      "use foobar::state;\nmod foobar;\n",
		"assets/logo.bin": "\x00\x01foobar\xff",
		"LICENSE":         "GPL\n",
	})

	rewritten, err := RewriteContents(context.Background(), root, "foobar", "acme", inplace.NativeRewriter{})
	require.NoError(t, err)
	sort.Strings(rewritten)
	assert.Equal(t, []string{
		filepath.Join(root, "acme.toml"),
		filepath.Join(root, "assets", "logo.bin"),
		filepath.Join(root, "src", "lib.rs"),
	}, rewritten)

	data, err := os.ReadFile(filepath.Join(root, "acme.toml"))
	require.NoError(t, err)
	assert.Equal(t, "db=acme\n", string(data))

	data, err = os.ReadFile(filepath.Join(root, "assets", "logo.bin"))
	require.NoError(t, err)
	assert.Equal(t, "\x00\x01acme\xff", string(data))

	data, err = os.ReadFile(filepath.Join(root, "LICENSE"))
	require.NoError(t, err)
	assert.Equal(t, "GPL\n", string(data))
}

func TestRewriteContentsSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("foobar"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	rewritten, err := RewriteContents(context.Background(), root, "foobar", "acme", inplace.NativeRewriter{})
	require.NoError(t, err)
	assert.Empty(t, rewritten)

	data, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, "foobar", string(data))
}

func TestFindContentMatches(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "foobar",
		"b.txt": "nope",
	})

	matches, err := FindContentMatches(root, "foobar")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.txt")}, matches)
}

func TestFinalPathAndRelative(t *testing.T) {
	assert.Equal(t, "src/acme/acme_main.rs", FinalPath("src/foobar/foobar_main.rs", "foobar", "acme"))
	assert.Equal(t, filepath.Join("src", "x.rs"), Relative("/p", filepath.Join("/p", "src", "x.rs")))
}
