package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	// FileName is the optional per-template configuration file at the project root.
	FileName = ".bootstrap.toml"

	DefaultPlaceholder  = "foobar"
	DefaultTemplateName = "rust-web-project-template"

	EngineSed    = "sed"
	EngineNative = "native"
)

// DefaultSelfPaths is the tool's own footprint inside the template: the
// legacy script, this config file and the Go module that builds the tool.
var DefaultSelfPaths = []string{
	"bootstrap",
	FileName,
	"cmd/bootstrap",
	"internal/bootstrap",
	"internal/bootstrapcmdtest",
	"internal/cli",
	"internal/config",
	"internal/gate",
	"internal/gitutil",
	"internal/inplace",
	"internal/logging",
	"internal/rewrite",
	"internal/version",
	"go.mod",
	"go.sum",
	"transcripts",
	"transcripts_test.go",
}

// Config captures the template-specific settings stored in .bootstrap.toml.
type Config struct {
	Placeholder   string   `toml:"placeholder"`
	TemplateName  string   `toml:"template_name"`
	CommitMessage string   `toml:"commit_message"`
	InitialBranch string   `toml:"initial_branch"`
	Engine        string   `toml:"engine"`
	SelfPaths     []string `toml:"self_paths"`
}

var (
	// ErrMissingPlaceholder indicates the config cleared the placeholder.
	ErrMissingPlaceholder = errors.New("config.placeholder must be set")
	// ErrPlaceholderSeparator indicates a placeholder that would span path
	// segments, which the rename pass matches one name at a time.
	ErrPlaceholderSeparator = errors.New("config.placeholder must not contain a path separator")
	// ErrMissingTemplateName indicates the config cleared the template name.
	ErrMissingTemplateName = errors.New("config.template_name must be set")
	// ErrInvalidEngine indicates the rewrite engine is not recognized.
	ErrInvalidEngine = errors.New("config.engine must be sed or native")
	// ErrUnsafeSelfPath indicates a self path points outside the project root.
	ErrUnsafeSelfPath = errors.New("config.self_paths entries must be relative paths inside the project")
)

// Default returns the settings for the stock template.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Placeholder == "" {
		c.Placeholder = DefaultPlaceholder
	}
	if c.TemplateName == "" {
		c.TemplateName = DefaultTemplateName
	}
	if c.CommitMessage == "" {
		c.CommitMessage = "Initialize project from " + c.TemplateName
	}
	if c.Engine == "" {
		c.Engine = EngineSed
	} else {
		c.Engine = strings.ToLower(c.Engine)
	}
	if c.SelfPaths == nil {
		c.SelfPaths = append([]string(nil), DefaultSelfPaths...)
	}
}

// Validate ensures the configuration can drive a bootstrap run.
func (c Config) Validate() error {
	if c.Placeholder == "" {
		return ErrMissingPlaceholder
	}
	if strings.ContainsRune(c.Placeholder, '/') || strings.ContainsRune(c.Placeholder, filepath.Separator) {
		return fmt.Errorf("%w: %q", ErrPlaceholderSeparator, c.Placeholder)
	}
	if c.TemplateName == "" {
		return ErrMissingTemplateName
	}
	switch c.Engine {
	case EngineSed, EngineNative:
	default:
		return ErrInvalidEngine
	}
	for _, p := range c.SelfPaths {
		clean := filepath.Clean(p)
		if p == "" || filepath.IsAbs(p) || clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: %q", ErrUnsafeSelfPath, p)
		}
	}
	return nil
}

// Load reads configuration from disk. Missing files return a default config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromRoot loads the config file that lives directly under root.
func LoadFromRoot(root string) (Config, error) {
	return Load(filepath.Join(root, FileName))
}

// Save writes configuration to disk, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
