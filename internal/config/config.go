// Package config manages langvc configuration and the .langvc directory structure.
// It handles loading, saving, and initializing the repository configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	LangVCDir    = ".langvc"
	ConfigFile   = "config"
	DatabaseFile = "langvc.db"
)

// Defaults
const (
	DefaultLogLevel          = "info"
	DefaultLogLimit          = 1000
	DefaultTranslatorPerPage = 100
)

// Config represents the langvc configuration
type Config struct {
	EditorID           int64    `toml:"editor_id"`
	AuthorInfo         string   `toml:"author_info"` // "Name <email>" recorded on commits
	LogLevel           string   `toml:"log_level"`
	LogLimit           int      `toml:"log_limit"`
	TranslatorPerPage  int      `toml:"translator_per_page"`
	StandardComponents []string `toml:"standard_components"` // "<component> [since] [-until]"
	path               string   // path to .langvc directory
}

// FindRoot finds the .langvc directory by walking up from current directory
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		langvcPath := filepath.Join(dir, LangVCDir)
		if info, err := os.Stat(langvcPath); err == nil && info.IsDir() {
			return langvcPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a langvc repository (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .langvc directory
func Load() (*Config, error) {
	langvcPath, err := FindRoot()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(langvcPath, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.path = langvcPath
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogLimit <= 0 {
		c.LogLimit = DefaultLogLimit
	}
	if c.TranslatorPerPage <= 0 {
		c.TranslatorPerPage = DefaultTranslatorPerPage
	}
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// Path returns the path to the .langvc directory
func (c *Config) Path() string {
	return c.path
}

// DatabasePath returns the path to the SQLite database
func (c *Config) DatabasePath() string {
	return filepath.Join(c.path, DatabaseFile)
}

// Initialize creates a new .langvc directory with initial configuration
func Initialize(editorID int64, authorInfo string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	langvcPath := filepath.Join(cwd, LangVCDir)

	// Check if already initialized
	if _, err := os.Stat(langvcPath); err == nil {
		return nil, fmt.Errorf("langvc repository already exists")
	}

	if err := os.MkdirAll(langvcPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .langvc directory: %w", err)
	}

	cfg := &Config{
		EditorID:   editorID,
		AuthorInfo: authorInfo,
		path:       langvcPath,
	}
	cfg.applyDefaults()

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(langvcPath)
		return nil, err
	}

	return cfg, nil
}
