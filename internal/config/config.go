// Package config handles configuration loading and management for genie.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for genie.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Moodle  MoodleConfig  `mapstructure:"moodle"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Session SessionConfig `mapstructure:"session"`
	Server  ServerConfig  `mapstructure:"server"`
	Agents  AgentsConfig  `mapstructure:"agents"`
	LogPath string        `mapstructure:"log_path"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `mapstructure:"provider"`
	// APIKey authenticates against the provider.
	APIKey string `mapstructure:"api_key"`
	// Model is the model name to request.
	Model string `mapstructure:"model"`
	// BaseURL points OpenAI-compatible requests at a custom gateway.
	BaseURL string `mapstructure:"base_url"`
	// UseAWSBedrock routes Anthropic requests through Bedrock.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// MoodleConfig holds the LMS webservice settings.
type MoodleConfig struct {
	// BaseURL is the Moodle site root (e.g. https://moodle.example.edu).
	BaseURL string `mapstructure:"base_url"`
	// Token is the webservice token.
	Token string `mapstructure:"token"`
}

// MemoryConfig holds the note store settings.
type MemoryConfig struct {
	// IndexPath is where the bleve index lives.
	IndexPath string `mapstructure:"index_path"`
	// NotesDir, when set, is watched and kept indexed.
	NotesDir string `mapstructure:"notes_dir"`
}

// SessionConfig holds conversation persistence settings.
type SessionConfig struct {
	// DBPath is the SQLite database location.
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// AgentsConfig names the participating agents.
type AgentsConfig struct {
	// Order is the agent routing order; the first entry is the default
	// route target.
	Order []string `mapstructure:"order"`
	// Default is the planner's fallback agent.
	Default string `mapstructure:"default"`
	// Manifest optionally points at a YAML agent manifest overriding
	// descriptions and keywords.
	Manifest string `mapstructure:"manifest"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (GENIE_API_KEY, GENIE_BASE_URL, MOODLE_TOKEN)
// 2. Project config (.genie.yaml in current directory or a parent)
// 3. User config (~/.config/genie/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("llm.api_key", "GENIE_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.base_url", "GENIE_BASE_URL")
	v.BindEnv("llm.model", "GENIE_MODEL")
	v.BindEnv("moodle.base_url", "MOODLE_BASE_URL")
	v.BindEnv("moodle.token", "MOODLE_TOKEN")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.Moodle.Token = expandEnv(cfg.Moodle.Token)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
	cfg.Moodle.Token = expandEnv(cfg.Moodle.Token)

	return cfg, nil
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.Set("llm", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"api_key":  cfg.LLM.APIKey,
		"model":    cfg.LLM.Model,
		"base_url": cfg.LLM.BaseURL,
	})
	v.Set("moodle", map[string]interface{}{
		"base_url": cfg.Moodle.BaseURL,
		"token":    cfg.Moodle.Token,
	})
	v.Set("memory", map[string]interface{}{
		"index_path": cfg.Memory.IndexPath,
		"notes_dir":  cfg.Memory.NotesDir,
	})
	v.Set("session", map[string]interface{}{"db_path": cfg.Session.DBPath})
	v.Set("server", map[string]interface{}{"host": cfg.Server.Host, "port": cfg.Server.Port})
	v.Set("agents", map[string]interface{}{
		"order":    cfg.Agents.Order,
		"default":  cfg.Agents.Default,
		"manifest": cfg.Agents.Manifest,
	})
	v.Set("log_path", cfg.LogPath)

	configPath := filepath.Join(userConfigDir, "config.yaml")
	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "")

	v.SetDefault("moodle.base_url", "")
	v.SetDefault("moodle.token", "")

	dataDir := getUserDataDir()
	v.SetDefault("memory.index_path", filepath.Join(dataDir, "memory.bleve"))
	v.SetDefault("memory.notes_dir", "")
	v.SetDefault("session.db_path", filepath.Join(dataDir, "sessions.db"))

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8731)

	v.SetDefault("agents.order", []string{"search", "browse", "memory", "general"})
	v.SetDefault("agents.default", "general")

	v.SetDefault("log_path", "")
}

// Default returns a Config with default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		// Defaults always unmarshal; keep the zero config if not.
		return &Config{}
	}
	return cfg
}

// getUserConfigDir returns the XDG config directory for genie.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "genie")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "genie")
	}
	return filepath.Join(home, ".config", "genie")
}

// getUserDataDir returns the XDG data directory for genie.
func getUserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "genie")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "genie")
	}
	return filepath.Join(home, ".local", "share", "genie")
}

// findProjectConfig searches for .genie.yaml in the current directory and
// parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".genie.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}
