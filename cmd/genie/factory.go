package main

import (
	"context"
	"fmt"

	"github.com/coursegenie/genie/internal/agents"
	"github.com/coursegenie/genie/internal/config"
	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/lms"
	"github.com/coursegenie/genie/internal/memory"
	"github.com/coursegenie/genie/internal/orchestrator"
	"github.com/coursegenie/genie/internal/session"
)

// runtime bundles the assembled application: orchestrator, stores, and
// the loaded configuration.
type runtime struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Sessions     *session.Store
	Memory       *memory.Store
	Registry     *orchestrator.Registry

	watcher *memory.NotesWatcher
}

// buildRuntime loads configuration and wires every component together.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	apiKey, err := config.GetAPIKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("genie needs an API key: set GENIE_API_KEY or run 'genie config llm.api_key <key>': %w", err)
	}

	client, err := llm.NewClient(llm.ProviderConfig{
		Provider:      cfg.LLM.Provider,
		APIKey:        apiKey,
		Model:         cfg.LLM.Model,
		BaseURL:       cfg.LLM.BaseURL,
		UseAWSBedrock: cfg.LLM.UseAWSBedrock,
		AWSRegion:     cfg.LLM.AWSRegion,
		AWSProfile:    cfg.LLM.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("building completion client: %w", err)
	}

	memStore, err := memory.Open(cfg.Memory.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("opening memory store: %w", err)
	}

	var watcher *memory.NotesWatcher
	if cfg.Memory.NotesDir != "" {
		watcher, err = memory.NewNotesWatcher(cfg.Memory.NotesDir, memStore)
		if err != nil {
			memStore.Close()
			return nil, fmt.Errorf("watching notes dir: %w", err)
		}
		if err := watcher.Start(); err != nil {
			memStore.Close()
			return nil, fmt.Errorf("watching notes dir: %w", err)
		}
	}

	closeStores := func() {
		if watcher != nil {
			watcher.Stop()
		}
		memStore.Close()
	}

	sessions, err := session.Open(cfg.Session.DBPath)
	if err != nil {
		closeStores()
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	lmsClient := lms.NewClient(cfg.Moodle.BaseURL, cfg.Moodle.Token)

	registry := orchestrator.NewRegistry()
	registry.Register(agents.NewSearchAgent(lmsClient, client))
	registry.Register(agents.NewBrowseAgent(lmsClient, client))
	registry.Register(agents.NewMemoryAgent(memStore, client))
	registry.Register(agents.NewGeneralAgent(client))

	defaultAgent := cfg.Agents.Default
	var extraKeywords map[string][]string
	if cfg.Agents.Manifest != "" {
		manifest, err := config.LoadAgentManifest(cfg.Agents.Manifest)
		if err != nil {
			sessions.Close()
			closeStores()
			return nil, err
		}
		extraKeywords = make(map[string][]string)
		for _, a := range manifest.Agents {
			if len(a.Keywords) > 0 {
				extraKeywords[a.Name] = a.Keywords
			}
		}
		if manifest.Default != "" {
			defaultAgent = manifest.Default
		}
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Agents:        cfg.Agents.Order,
		DefaultAgent:  defaultAgent,
		ExtraKeywords: extraKeywords,
		Registry:      registry,
		Client:        client,
		LogPath:       cfg.LogPath,
	})
	if err != nil {
		sessions.Close()
		closeStores()
		return nil, err
	}

	// Route memory-package debug output to the shared turn log.
	memory.SetLogger(orch.Logger().Log)

	return &runtime{
		Config:       cfg,
		Orchestrator: orch,
		Sessions:     sessions,
		Memory:       memStore,
		Registry:     registry,
		watcher:      watcher,
	}, nil
}

// RunTurn runs one turn, rehydrating persisted history for the session
// and storing the new messages afterward.
func (rt *runtime) RunTurn(ctx context.Context, sessionID, message string) (*orchestrator.TurnResult, error) {
	req := orchestrator.TurnRequest{
		SessionID: sessionID,
		Message:   message,
	}

	if sessionID != "" {
		history, err := rt.Sessions.Messages(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		req.History = history
	}

	result, err := rt.Orchestrator.RunTurn(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := rt.Sessions.EnsureSession(ctx, result.SessionID, "", ""); err != nil {
		return nil, fmt.Errorf("ensuring session: %w", err)
	}
	added := result.Messages[len(req.History):]
	if err := rt.Sessions.AppendMessages(ctx, result.SessionID, added); err != nil {
		return nil, fmt.Errorf("persisting messages: %w", err)
	}

	return result, nil
}

// Close releases every resource the runtime holds.
func (rt *runtime) Close() {
	if rt.watcher != nil {
		rt.watcher.Stop()
	}
	rt.Orchestrator.Close()
	rt.Sessions.Close()
	rt.Memory.Close()
}
