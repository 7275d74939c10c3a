package config

import (
	"errors"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no completion API key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// GetAPIKey returns the completion API key from the configuration.
// It checks in order: environment variables, config file.
func GetAPIKey(cfg *Config) (string, error) {
	for _, env := range []string{"GENIE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key, nil
		}
	}

	if cfg != nil && cfg.LLM.APIKey != "" {
		// Expand any remaining env var references
		key := os.ExpandEnv(cfg.LLM.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return key, nil
		}
	}

	return "", ErrNoAPIKey
}

// ValidateAPIKey performs basic validation on an API key.
// It checks shape but does not verify the key with the provider.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrNoAPIKey
	}

	if len(key) < 16 {
		return errors.New("invalid API key format: key too short")
	}

	return nil
}

// MaskAPIKey returns a masked version of the API key for display.
// Shows the first 4 characters and last 4 characters.
func MaskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}

	if len(key) <= 12 {
		return "***"
	}

	return key[:4] + "..." + key[len(key)-4:]
}

// KeySource represents where an API key was loaded from.
type KeySource string

const (
	KeySourceEnv    KeySource = "environment"
	KeySourceConfig KeySource = "config_file"
	KeySourceNone   KeySource = "none"
)

// GetAPIKeySource returns where the API key was sourced from.
func GetAPIKeySource(cfg *Config) KeySource {
	for _, env := range []string{"GENIE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY"} {
		if os.Getenv(env) != "" {
			return KeySourceEnv
		}
	}

	if cfg != nil && cfg.LLM.APIKey != "" {
		key := os.ExpandEnv(cfg.LLM.APIKey)
		if key != "" && !strings.HasPrefix(key, "${") {
			return KeySourceConfig
		}
	}

	return KeySourceNone
}
