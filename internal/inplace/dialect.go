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

// Dialect identifies which in-place editing convention the host sed follows.
type Dialect int

const (
	// DialectBSD requires an explicit backup suffix argument after -i.
	DialectBSD Dialect = iota + 1
	// DialectGNU takes -i with no separate suffix argument.
	DialectGNU
)

const (
	bsdSignature = "invalid command code"
	gnuSignature = "unknown command"

	// probeScript is not a command in any sed, so it always yields a diagnostic.
	probeScript = "k"
)

// ErrUnsupportedEnvironment indicates the host sed matched neither known dialect.
var ErrUnsupportedEnvironment = errors.New("unsupported environment: cannot determine sed in-place dialect")

func (d Dialect) String() string {
	switch d {
	case 0:
		return "none"
	case DialectBSD:
		return "bsd"
	case DialectGNU:
		return "gnu"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Args builds the sed argument list that rewrites path in place with expr.
func (d Dialect) Args(expr, path string) []string {
	switch d {
	case DialectBSD:
		return []string{"-i", "", "-e", expr, path}
	default:
		return []string{"-i", "-e", expr, path}
	}
}

// Classify maps a sed diagnostic to a Dialect.
func Classify(diagnostic string) (Dialect, error) {
	switch {
	case strings.Contains(diagnostic, bsdSignature):
		return DialectBSD, nil
	case strings.Contains(diagnostic, gnuSignature):
		return DialectGNU, nil
	default:
		msg := strings.TrimSpace(diagnostic)
		if msg == "" {
			return 0, ErrUnsupportedEnvironment
		}
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedEnvironment, msg)
	}
}

// Detect probes the installed sed with an invalid script and classifies its diagnostic.
func Detect(ctx context.Context) (Dialect, error) {
	if _, err := exec.LookPath("sed"); err != nil {
		return 0, fmt.Errorf("%w: sed not found on PATH", ErrUnsupportedEnvironment)
	}
	cmd := exec.CommandContext(ctx, "sed", "-e", probeScript)
	cmd.Env = byteLocaleEnv()
	cmd.Stdin = strings.NewReader("")
	var diag bytes.Buffer
	cmd.Stdout = &diag
	cmd.Stderr = &diag
	// The probe is expected to fail; only its diagnostic matters.
	_ = cmd.Run()
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return Classify(diag.String())
}

// byteLocaleEnv pins text processing to the C locale so matching is bytewise.
func byteLocaleEnv() []string {
	env := make([]string, 0, len(os.Environ())+2)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "LC_ALL=") || strings.HasPrefix(kv, "LANG=") || strings.HasPrefix(kv, "LC_CTYPE=") || strings.HasPrefix(kv, "LC_COLLATE=") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "LC_ALL=C", "LANG=C")
}
