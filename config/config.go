package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StateDir is the per-project directory holding the journal and config.
const StateDir = ".casebase"

// Config holds all configuration for the casebase tool.
type Config struct {
	Library  LibraryConfig  `yaml:"library"`
	Retrieve RetrieveConfig `yaml:"retrieve"`
	Encoding EncodingConfig `yaml:"encoding"`
	Promote  PromoteConfig  `yaml:"promote"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LibraryConfig holds store locations.
type LibraryConfig struct {
	Trusted string       `yaml:"trusted"`
	Pending string       `yaml:"pending"`
	Journal string       `yaml:"journal"`
	Imports ImportConfig `yaml:"imports"`
}

// ImportConfig selects seed case files for `casebase import`.
type ImportConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// RetrieveConfig holds retrieval and voting configuration.
type RetrieveConfig struct {
	Metrics     []string      `yaml:"metrics"`     // Empty = every catalog metric
	Aggregation string        `yaml:"aggregation"` // "plurality", "weighted", "closest"
	FoldPending bool          `yaml:"fold_pending_into_base"`
	CacheSize   int           `yaml:"cache_size"` // 0 = no cache
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

// EncodingConfig holds query encoding options.
type EncodingConfig struct {
	Strict bool `yaml:"strict"` // Reject unknown symptoms instead of dropping them
	Signed bool `yaml:"signed"` // -1/1 vectors for covariance-aware metrics
}

// PromoteConfig holds the pending/trusted protocol options.
type PromoteConfig struct {
	RetainUnselected bool `yaml:"retain_unselected"`
	PersistPending   bool `yaml:"persist_pending"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Trusted: filepath.Join("input", "database.csv"),
			Pending: filepath.Join("output", "library.csv"),
			Journal: JournalPath(""),
			Imports: ImportConfig{
				Includes: []string{"**/*.csv"},
				Excludes: []string{"**/.git/**", StateDir + "/**", "output/**"},
			},
		},
		Retrieve: RetrieveConfig{
			Aggregation: "plurality",
			FoldPending: false,
			CacheSize:   128,
			CacheTTL:    10 * time.Minute,
		},
		Encoding: EncodingConfig{
			Strict: false,
			Signed: false,
		},
		Promote: PromoteConfig{
			RetainUnselected: true,
			PersistPending:   true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for casebase.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "casebase.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, StateDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks option values that YAML decoding cannot.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Retrieve.Aggregation) {
	case "", "plurality", "weighted", "closest":
	default:
		return fmt.Errorf("retrieve.aggregation: unknown mode %q", c.Retrieve.Aggregation)
	}
	if c.Retrieve.CacheSize < 0 {
		return fmt.Errorf("retrieve.cache_size: must not be negative, got %d", c.Retrieve.CacheSize)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if strings.TrimSpace(c.Library.Trusted) == "" {
		return fmt.Errorf("library.trusted: path is required")
	}
	return nil
}

// Resolve makes relative store paths absolute against dir.
func (c *Config) Resolve(dir string) {
	c.Library.Trusted = resolvePath(dir, c.Library.Trusted)
	c.Library.Pending = resolvePath(dir, c.Library.Pending)
	c.Library.Journal = resolvePath(dir, c.Library.Journal)
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// JournalPath returns the default path to the session journal.
func JournalPath(dir string) string {
	return filepath.Join(dir, StateDir, "session.db")
}

// EnsureStateDir ensures the directory holding the session journal exists.
func (c *Config) EnsureStateDir() error {
	if c.Library.Journal == "" {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.Library.Journal), 0755)
}
