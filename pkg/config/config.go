package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-homedir"
	"github.com/xyproto/env/v2"
	"lab47.dev/dynelf/pkg/elfdyn"
)

type Config struct {
	path string

	LogLevel    string   `json:"log-level"`
	MaxEntries  int      `json:"max-entries"`
	LibraryPath []string `json:"library-path"`
	SystemDirs  []string `json:"system-dirs"`
}

const (
	DefaultConfigPath = "~/.config/dynelf/config.json"
	DefaultLogLevel   = "warn"
)

var DefaultSystemDirs = []string{"/lib64", "/usr/lib64", "/lib", "/usr/lib"}

func defaults() *Config {
	return &Config{
		LogLevel:   DefaultLogLevel,
		MaxEntries: elfdyn.DefaultMaxEntries,
		SystemDirs: append([]string(nil), DefaultSystemDirs...),
	}
}

// LoadConfig reads the file named by DYNELF_CONFIG, or the default config
// path when it exists, and applies the environment on top. The environment
// is re-read on every call.
func LoadConfig() (*Config, error) {
	env.Load()

	if loc := env.Str("DYNELF_CONFIG"); loc != "" {
		return loadFile(loc)
	}

	path, err := homedir.Expand(DefaultConfigPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return loadFile(path)
	}

	cfg := defaults()
	cfg.path = path

	return updateFromEnv(cfg)
}

func loadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	cfg := defaults()

	err = json.NewDecoder(f).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.path = path

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = elfdyn.DefaultMaxEntries
	}

	return updateFromEnv(cfg)
}

func updateFromEnv(cfg *Config) (*Config, error) {
	cfg.LogLevel = env.Str("DYNELF_LOG_LEVEL", cfg.LogLevel)

	if n := env.Int("DYNELF_MAX_ENTRIES", cfg.MaxEntries); n > 0 {
		cfg.MaxEntries = n
	}

	if path := env.Str("LD_LIBRARY_PATH"); path != "" {
		cfg.LibraryPath = filepath.SplitList(path)
	}

	return cfg, nil
}

// Path is the file the config was read from, or would be written to.
func (c *Config) Path() string {
	return c.path
}

// Logger builds the root logger at the configured level. Unknown levels
// fall back to warn.
func (c *Config) Logger(w io.Writer) hclog.Logger {
	level := hclog.LevelFromString(c.LogLevel)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "dynelf",
		Level:  level,
		Output: w,
	})
}
