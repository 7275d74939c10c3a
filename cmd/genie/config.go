package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coursegenie/genie/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify genie configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/genie/config.yaml
Project-specific overrides can be placed in .genie.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("llm.provider: %s\n", cfg.LLM.Provider)
	fmt.Printf("llm.api_key: %s\n", config.MaskAPIKey(cfg.LLM.APIKey))
	fmt.Printf("llm.model: %s\n", cfg.LLM.Model)
	fmt.Printf("llm.base_url: %s\n", cfg.LLM.BaseURL)
	fmt.Printf("moodle.base_url: %s\n", cfg.Moodle.BaseURL)
	fmt.Printf("moodle.token: %s\n", config.MaskAPIKey(cfg.Moodle.Token))
	fmt.Printf("memory.index_path: %s\n", cfg.Memory.IndexPath)
	fmt.Printf("memory.notes_dir: %s\n", cfg.Memory.NotesDir)
	fmt.Printf("session.db_path: %s\n", cfg.Session.DBPath)
	fmt.Printf("server.host: %s\n", cfg.Server.Host)
	fmt.Printf("server.port: %d\n", cfg.Server.Port)
	fmt.Printf("agents.order: %v\n", cfg.Agents.Order)
	fmt.Printf("agents.default: %s\n", cfg.Agents.Default)
	fmt.Printf("agents.manifest: %s\n", cfg.Agents.Manifest)
	fmt.Printf("log_path: %s\n", cfg.LogPath)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey updates a configuration value and saves the config file.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := applyConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "llm.provider":
		return cfg.LLM.Provider, nil
	case "llm.api_key":
		return config.MaskAPIKey(cfg.LLM.APIKey), nil
	case "llm.model":
		return cfg.LLM.Model, nil
	case "llm.base_url":
		return cfg.LLM.BaseURL, nil
	case "moodle.base_url":
		return cfg.Moodle.BaseURL, nil
	case "moodle.token":
		return config.MaskAPIKey(cfg.Moodle.Token), nil
	case "memory.index_path":
		return cfg.Memory.IndexPath, nil
	case "memory.notes_dir":
		return cfg.Memory.NotesDir, nil
	case "session.db_path":
		return cfg.Session.DBPath, nil
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return strconv.Itoa(cfg.Server.Port), nil
	case "agents.default":
		return cfg.Agents.Default, nil
	case "agents.manifest":
		return cfg.Agents.Manifest, nil
	case "log_path":
		return cfg.LogPath, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "llm.provider":
		cfg.LLM.Provider = value
	case "llm.api_key":
		cfg.LLM.APIKey = value
	case "llm.model":
		cfg.LLM.Model = value
	case "llm.base_url":
		cfg.LLM.BaseURL = value
	case "moodle.base_url":
		cfg.Moodle.BaseURL = value
	case "moodle.token":
		cfg.Moodle.Token = value
	case "memory.index_path":
		cfg.Memory.IndexPath = value
	case "memory.notes_dir":
		cfg.Memory.NotesDir = value
	case "session.db_path":
		cfg.Session.DBPath = value
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port: %s", value)
		}
		cfg.Server.Port = port
	case "agents.default":
		cfg.Agents.Default = value
	case "agents.manifest":
		cfg.Agents.Manifest = value
	case "log_path":
		cfg.LogPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
