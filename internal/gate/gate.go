package gate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

var (
	// ErrUnsafeDirectory indicates the run targets the shared template checkout.
	ErrUnsafeDirectory = errors.New("refusing to run inside the template repository itself; clone it under a new name first")
	// ErrUserDeclined indicates the confirmation prompt was not answered with y/Y.
	ErrUserDeclined = errors.New("aborted: confirmation declined, nothing was changed")
)

// Prompt carries the values shown in the destructive-action warning.
type Prompt struct {
	Root        string
	Placeholder string
	Target      string
	UseColor    bool
}

// CheckDirectory rejects roots whose absolute path mentions the template name.
func CheckDirectory(root, templateName string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if templateName != "" && strings.Contains(abs, templateName) {
		return fmt.Errorf("%w (%s contains %q)", ErrUnsafeDirectory, abs, templateName)
	}
	return nil
}

// Confirm shows the warning on out and reads exactly one line from in.
// Only a trimmed "y" or "Y" proceeds.
func Confirm(in io.Reader, out io.Writer, p Prompt) error {
	var b strings.Builder

	title := fmt.Sprintf("Bootstrap %s from template placeholder %s", p.Target, p.Placeholder)
	divider := promptDivider(runewidth.StringWidth(title))
	if p.UseColor {
		title = colorPromptTitle(title)
		divider = colorPromptDivider(divider)
	}
	fmt.Fprintf(&b, "\n%s\n%s\n", title, divider)

	label := func(s string) string {
		if p.UseColor {
			return colorPromptLabel(s)
		}
		return s
	}
	warn := func(s string) string {
		if p.UseColor {
			return colorPromptWarn(s)
		}
		return s
	}

	fmt.Fprintf(&b, "  %-13s %s\n", label("Directory:"), p.Root)
	fmt.Fprintf(&b, "  %-13s %q -> %q\n", label("Replace:"), p.Placeholder, p.Target)
	fmt.Fprintf(&b, "  %s\n", warn("This deletes the existing git history, renames files and rewrites their"))
	fmt.Fprintf(&b, "  %s\n\n", warn("contents in place. It cannot be undone."))
	fmt.Fprint(out, b.String())

	prompt := "Continue? [y/N]: "
	if p.UseColor {
		prompt = colorPromptLabel(prompt)
	}
	fmt.Fprint(out, prompt)

	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	fmt.Fprintln(out)

	switch strings.TrimSpace(resp) {
	case "y", "Y":
		return nil
	default:
		return ErrUserDeclined
	}
}

// WriterIsTerminal reports whether w is attached to a terminal.
func WriterIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func promptDivider(titleWidth int) string {
	width := titleWidth
	if width < 40 {
		width = 40
	}
	if width > 80 {
		width = 80
	}
	return strings.Repeat("-", width)
}

var (
	colorPromptTitle   = color.New(color.FgBlue, color.Bold).SprintFunc()
	colorPromptDivider = color.New(color.FgHiBlack).SprintFunc()
	colorPromptLabel   = color.New(color.Bold).SprintFunc()
	colorPromptWarn    = color.New(color.FgHiRed, color.Bold).SprintFunc()
)
