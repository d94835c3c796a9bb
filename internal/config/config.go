package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/logging"
)

// EnvPrefix prefixes environment overrides: SHELF_SEARCH_LIMIT=200.
const EnvPrefix = "SHELF"

// Config holds all user-configurable settings loaded from config.yaml
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Documents   DocumentsConfig   `mapstructure:"documents"`
	Search      SearchConfig      `mapstructure:"search"`
	Store       StoreConfig       `mapstructure:"store"`
	Volumes     VolumesConfig     `mapstructure:"volumes"`
	Permissions PermissionsConfig `mapstructure:"permissions"`
	Trees       []TreeConfig      `mapstructure:"trees" validate:"dive"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=console json"`
	Output string `mapstructure:"output" validate:"required"`
}

// DocumentsConfig selects the file types shown and searched.
type DocumentsConfig struct {
	Extensions []string `mapstructure:"extensions" validate:"min=1,dive,required"`
}

type SearchConfig struct {
	// Limit caps the matches of one search; 0 selects the built-in default.
	Limit int `mapstructure:"limit" validate:"gte=0"`
}

type StoreConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=sqlite badger memory"`
	// Path is the sqlite file or badger directory. Empty selects a file
	// next to the config.
	Path string `mapstructure:"path"`
}

type VolumesConfig struct {
	// PrivateMarker is stripped from candidate directories to find the
	// volume root.
	PrivateMarker string `mapstructure:"private_marker" validate:"required"`
	// System enables the platform mount enumeration.
	System bool     `mapstructure:"system"`
	Extra  []string `mapstructure:"extra"`
}

type PermissionsConfig struct {
	// StorageRead is the coarse permission required by path-addressed roots.
	StorageRead bool `mapstructure:"storage_read"`
}

// TreeConfig declares one document tree source. Options depend on Type
// and are decoded by the component that builds the source.
type TreeConfig struct {
	Authority string         `mapstructure:"authority" validate:"required,excludesall=/:"`
	Type      string         `mapstructure:"type" validate:"required,oneof=dir s3"`
	Options   map[string]any `mapstructure:"options"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Documents: DocumentsConfig{
			Extensions: []string{".pdf", ".epub"},
		},
		Search: SearchConfig{
			Limit: 1000,
		},
		Store: StoreConfig{
			Type: "sqlite",
		},
		Volumes: VolumesConfig{
			PrivateMarker: "/Android/",
			System:        true,
		},
		Permissions: PermissionsConfig{
			StorageRead: true,
		},
	}
}

// ConfigDir returns ~/.config/shelf, or $XDG_CONFIG_HOME/shelf when set.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shelf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "shelf")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// setDefaults registers every key so environment overrides apply even when
// the file omits them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("documents.extensions", d.Documents.Extensions)
	v.SetDefault("search.limit", d.Search.Limit)
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("volumes.private_marker", d.Volumes.PrivateMarker)
	v.SetDefault("volumes.system", d.Volumes.System)
	v.SetDefault("volumes.extra", []string{})
	v.SetDefault("permissions.storage_read", d.Permissions.StorageRead)
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	v.SetConfigFile(path)
	return v
}

// Load reads path (a missing file yields defaults), applies environment
// overrides and defaults, then validates.
func Load(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		debug.Log(debug.CONFIG, "no config file at %s, using defaults", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	ApplyDefaults(&cfg, filepath.Dir(path))

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills fields whose defaults depend on other values.
func ApplyDefaults(cfg *Config, dir string) {
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Store.Path == "" {
		switch cfg.Store.Type {
		case "badger":
			cfg.Store.Path = filepath.Join(dir, "shelf.badger")
		case "sqlite":
			cfg.Store.Path = filepath.Join(dir, "shelf.db")
		}
	}
}

// Manager handles loading and accessing configuration
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	parseErr error // Stores parsing error if config failed to load
}

// NewManager creates a manager for path; empty selects ConfigPath().
func NewManager(path string) *Manager {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()
	ApplyDefaults(cfg, filepath.Dir(path))
	return &Manager{config: cfg, path: path}
}

// Path returns the config file location.
func (m *Manager) Path() string { return m.path }

// Load reads the configuration file.
// If the file doesn't exist, creates it with defaults.
// If parsing or validation fails, stores the error and keeps defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.parseErr = nil

	if _, err := os.Stat(m.path); errors.Is(err, os.ErrNotExist) {
		logging.Info("creating default config", logging.String("path", m.path))
		if err := writeDefault(m.path); err != nil {
			logging.Warn("failed to write default config", logging.String("path", m.path), logging.Err(err))
		}
	}

	cfg, err := Load(m.path)
	if err != nil {
		// Keep running on defaults; callers surface ParseError
		logging.Warn("config invalid, using defaults", logging.String("path", m.path), logging.Err(err))
		m.parseErr = err
		cfg = DefaultConfig()
		ApplyDefaults(cfg, filepath.Dir(m.path))
	}

	m.config = cfg
	debug.Log(debug.CONFIG, "loaded %s: store=%s trees=%d", m.path, cfg.Store.Type, len(cfg.Trees))
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// ParseError returns the error if the config file failed to load
func (m *Manager) ParseError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.parseErr
}

// writeDefault writes the defaults as YAML.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	v := viper.New()
	setDefaults(v)
	return v.WriteConfigAs(path)
}

// GenerateConfig backs up an existing config and writes a fresh default one.
// Returns the backup path if a backup was created.
func GenerateConfig(path string) (backupPath string, err error) {
	if path == "" {
		path = ConfigPath()
	}

	if data, err := os.ReadFile(path); err == nil {
		timestamp := time.Now().Format("20060102-150405")
		backupPath = filepath.Join(filepath.Dir(path), "config.backup."+timestamp+".yaml")
		if err := os.WriteFile(backupPath, data, 0o644); err != nil {
			return "", fmt.Errorf("config: write backup: %w", err)
		}
	}

	if err := writeDefault(path); err != nil {
		return backupPath, fmt.Errorf("config: write %s: %w", path, err)
	}
	return backupPath, nil
}
