package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/coursegenie/genie/internal/config"
	"github.com/coursegenie/genie/internal/orchestrator"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the configured agent pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		descriptions := builtinAgentDescriptions()
		if cfg.Agents.Manifest != "" {
			manifest, err := config.LoadAgentManifest(cfg.Agents.Manifest)
			if err != nil {
				return err
			}
			descriptions = map[string]string{}
			for _, a := range manifest.Agents {
				descriptions[a.Name] = a.Description
			}
		}

		bold := color.New(color.Bold)
		for _, name := range cfg.Agents.Order {
			bold.Printf("%-10s", name)
			desc := descriptions[name]
			if desc == "" {
				desc = "(no description)"
			}
			fmt.Printf(" %s", desc)
			if name == cfg.Agents.Default {
				color.New(color.FgYellow).Print("  [default]")
			}
			fmt.Println()
		}
		return nil
	},
}

// builtinAgentDescriptions mirrors the descriptions of the built-in pool
// without constructing the agents (no API key needed to list them).
func builtinAgentDescriptions() map[string]string {
	return map[string]string{
		orchestrator.AgentSearch:  "Searches the learning platform for courses, deadlines, office hours, and course material",
		orchestrator.AgentBrowse:  "Opens a course and reads its sections, activities, and resources in detail",
		orchestrator.AgentMemory:  "Remembers facts on request and recalls previously stored notes",
		orchestrator.AgentGeneral: "Answers general questions directly, without platform tools",
	}
}
