// Package config loads the InsightMiner configuration file and its environment overrides.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sahithiv25/InsightMiner/assets"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/pkg/filesystem"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Environment variables recognised by the loader.
const (
	EnvConfigPath   = "INSIGHTMINER_CONFIG"
	EnvModel        = "LLM_MODEL"
	EnvTimeout      = "LLM_TIMEOUT"
	EnvMaxTokens    = "LLM_MAX_TOKENS"
	EnvDatabaseURL  = "DATABASE_URL"
	sqliteURLPrefix = "sqlite:///"
)

// FileLoader loads YAML configuration from ~/.insightminer/config.yaml (overridable via INSIGHTMINER_CONFIG).
type FileLoader struct {
	overridePath string
	getenv       func(string) string
}

// NewFileLoader builds a new loader. An empty path defers to the environment and then the home directory.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path, getenv: os.Getenv}
}

// WithEnv replaces the environment lookup, mainly for tests.
func (l *FileLoader) WithEnv(getenv func(string) string) *FileLoader {
	l.getenv = getenv
	return l
}

// Path reports the file the loader reads.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return domain.Config{}, err
		}
		if err := writeDefault(path); err != nil {
			return domain.Config{}, err
		}
		data = assets.DefaultConfigYAML
	}

	cfg, err := Parse(data)
	if err != nil {
		return domain.Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyEnv(&cfg, l.getenv); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to the loader's path.
func (l *FileLoader) Save(cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// Reset overwrites the config file with the embedded defaults.
func (l *FileLoader) Reset() (domain.Config, error) {
	if err := writeDefault(l.resolvePath()); err != nil {
		return domain.Config{}, err
	}
	return Parse(assets.DefaultConfigYAML)
}

// Parse decodes a config document and fills defaults for omitted fields.
func Parse(data []byte) (domain.Config, error) {
	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}
	return hydrateDefaults(cfg), nil
}

// Default returns the embedded default configuration.
func Default() domain.Config {
	cfg, err := Parse(assets.DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded config is invalid: %v", err))
	}
	return cfg
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := l.getenv(EnvConfigPath); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filesystem.AppPath("config.yaml")
}

func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return err
	}
	return os.WriteFile(path, assets.DefaultConfigYAML, domain.SecureFilePermissions)
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Planner.Mode == "" {
		cfg.Planner.Mode = string(domain.ModeAuto)
	}
	if cfg.Planner.DefaultStart == "" {
		cfg.Planner.DefaultStart = domain.DefaultStart
	}
	if cfg.Planner.DefaultEnd == "" {
		cfg.Planner.DefaultEnd = domain.DefaultEnd
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = domain.ProviderKindNone
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = int(domain.DefaultGenerationTimeout.Seconds())
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = domain.DefaultMaxTokens
	}
	if cfg.History.Path == "" {
		cfg.History.Path = filesystem.AppPath("history", "history.db")
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}
	cfg.Registry.Path = filesystem.ExpandPath(cfg.Registry.Path)
	cfg.Warehouse.Path = filesystem.ExpandPath(cfg.Warehouse.Path)
	cfg.History.Path = filesystem.ExpandPath(cfg.History.Path)
	return cfg
}

func applyEnv(cfg *domain.Config, getenv func(string) string) error {
	if model := strings.TrimSpace(getenv(EnvModel)); model != "" {
		cfg.Generation.ModelID = model
	}
	if raw := strings.TrimSpace(getenv(EnvTimeout)); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be whole seconds: %w", EnvTimeout, err)
		}
		cfg.Generation.TimeoutSeconds = seconds
	}
	if raw := strings.TrimSpace(getenv(EnvMaxTokens)); raw != "" {
		tokens, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvMaxTokens, err)
		}
		cfg.Generation.MaxTokens = tokens
	}
	if raw := strings.TrimSpace(getenv(EnvDatabaseURL)); raw != "" {
		path, err := SQLitePath(raw)
		if err != nil {
			return err
		}
		cfg.Warehouse.Path = path
	}
	return nil
}

// SQLitePath extracts a filesystem path from a sqlite:/// URL or returns a plain path unchanged.
func SQLitePath(url string) (string, error) {
	switch {
	case strings.HasPrefix(url, sqliteURLPrefix):
		return filesystem.ExpandPath(strings.TrimPrefix(url, sqliteURLPrefix)), nil
	case strings.Contains(url, "://"):
		return "", fmt.Errorf("%s: only sqlite:/// URLs are supported, got %q", EnvDatabaseURL, url)
	default:
		return filesystem.ExpandPath(url), nil
	}
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
