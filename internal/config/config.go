package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/subclip/config.yaml"

// Decode policies accepted in library.decode_policy.
const (
	DecodePolicyLenient = "lenient"
	DecodePolicyStrict  = "strict"
)

// Config holds all subclip configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Library LibraryConfig `yaml:"library"`
	Search  SearchConfig  `yaml:"search"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LibraryConfig struct {
	MediaExtensions []string `yaml:"media_extensions"`
	SRTExtensions   []string `yaml:"srt_extensions"`
	VTTExtensions   []string `yaml:"vtt_extensions"`
	DecodePolicy    string   `yaml:"decode_policy"`
}

type SearchConfig struct {
	Before int `yaml:"before"`
	After  int `yaml:"after"`
}

type OutputConfig struct {
	// Dir is where artifacts are written. Empty means os.TempDir().
	Dir               string  `yaml:"dir"`
	CaptionGapSeconds float64 `yaml:"caption_gap_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML, or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges that YAML decoding cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Library.DecodePolicy) {
	case DecodePolicyLenient, DecodePolicyStrict:
	default:
		return fmt.Errorf("library.decode_policy: unknown policy %q", c.Library.DecodePolicy)
	}
	if c.Search.Before < 0 || c.Search.After < 0 {
		return fmt.Errorf("search.before and search.after must be non-negative")
	}
	if c.Output.CaptionGapSeconds < 0 {
		return fmt.Errorf("output.caption_gap_seconds must be non-negative")
	}
	return nil
}

// DatabasePath returns the expanded path of the SQLite database file.
func (c *Config) DatabasePath() (string, error) {
	dir, err := ExpandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// OutputDir returns the expanded artifact directory, falling back to the
// system temp directory.
func (c *Config) OutputDir() (string, error) {
	if c.Output.Dir == "" {
		return os.TempDir(), nil
	}
	return ExpandPath(c.Output.Dir)
}

// Extensions returns the file classification table for the library walker.
func (c *Config) Extensions() Extensions {
	return NewExtensions(c.Library.MediaExtensions, c.Library.SRTExtensions, c.Library.VTTExtensions)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
