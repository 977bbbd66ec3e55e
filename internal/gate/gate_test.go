package gate

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDirectory(t *testing.T) {
	base := t.TempDir()

	require.NoError(t, CheckDirectory(filepath.Join(base, "acme"), "rust-web-project-template"))

	err := CheckDirectory(filepath.Join(base, "rust-web-project-template"), "rust-web-project-template")
	require.ErrorIs(t, err, ErrUnsafeDirectory)

	err = CheckDirectory(filepath.Join(base, "rust-web-project-template", "nested", "clone"), "rust-web-project-template")
	require.ErrorIs(t, err, ErrUnsafeDirectory)

	err = CheckDirectory(filepath.Join(base, "my-rust-web-project-template-fork"), "rust-web-project-template")
	require.ErrorIs(t, err, ErrUnsafeDirectory, "substring match is intentional")
}

func TestConfirmAcceptsOnlyLowerAndUpperY(t *testing.T) {
	cases := []struct {
		input  string
		accept bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"  y  \n", true},
		{"y", true},
		{"yes\n", false},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yy\n", false},
		{"N\n", false},
	}

	for _, tc := range cases {
		t.Run(strings.TrimSpace(tc.input), func(t *testing.T) {
			var out bytes.Buffer
			err := Confirm(strings.NewReader(tc.input), &out, Prompt{Root: "/src/acme", Placeholder: "foobar", Target: "acme"})
			if tc.accept {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, ErrUserDeclined)
			}
		})
	}
}

func TestConfirmReadsSingleLine(t *testing.T) {
	var out bytes.Buffer
	err := Confirm(strings.NewReader("n\ny\n"), &out, Prompt{Placeholder: "foobar", Target: "acme"})
	require.ErrorIs(t, err, ErrUserDeclined)
}

func TestConfirmWarningNamesBothValues(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Confirm(strings.NewReader("y\n"), &out, Prompt{Root: "/src/acme", Placeholder: "foobar", Target: "acme"}))

	text := out.String()
	assert.Contains(t, text, `"foobar" -> "acme"`)
	assert.Contains(t, text, "/src/acme")
	assert.Contains(t, text, "cannot be undone")
	assert.Contains(t, text, "Continue? [y/N]: ")
	assert.NotContains(t, text, "\x1b[", "colour must stay off unless requested")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("stdin closed") }

func TestConfirmPropagatesReadErrors(t *testing.T) {
	var out bytes.Buffer
	err := Confirm(failingReader{}, &out, Prompt{Placeholder: "foobar", Target: "acme"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserDeclined)
}

func TestPromptDividerBounds(t *testing.T) {
	assert.Len(t, promptDivider(3), 40)
	assert.Len(t, promptDivider(55), 55)
	assert.Len(t, promptDivider(200), 80)
}

func TestWriterIsTerminalRejectsBuffers(t *testing.T) {
	assert.False(t, WriterIsTerminal(&bytes.Buffer{}))
}
