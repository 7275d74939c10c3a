package orchestrator

import (
	"testing"
)

func TestParsePlanJSON(t *testing.T) {
	raw := `{"reasoning": "two lookups needed", "requires_tools": true, "selected_agent": "search", "steps": ["find the course", "check the deadline"]}`

	plan := ParsePlan(raw, AgentGeneral)

	if plan.Reasoning != "two lookups needed" {
		t.Errorf("unexpected reasoning: %q", plan.Reasoning)
	}
	if !plan.RequiresTools {
		t.Error("expected RequiresTools true")
	}
	if plan.SelectedAgent != "search" {
		t.Errorf("unexpected agent: %q", plan.SelectedAgent)
	}
	if len(plan.Steps) != 2 || plan.Steps[1] != "check the deadline" {
		t.Errorf("unexpected steps: %v", plan.Steps)
	}
}

func TestParsePlanJSONInFence(t *testing.T) {
	raw := "```json\n{\"steps\": [\"one step\"]}\n```"

	plan := ParsePlan(raw, AgentGeneral)

	if len(plan.Steps) != 1 || plan.Steps[0] != "one step" {
		t.Errorf("unexpected steps: %v", plan.Steps)
	}
	// Missing fields get their documented defaults.
	if plan.Reasoning != defaultReasoning {
		t.Errorf("expected default reasoning, got %q", plan.Reasoning)
	}
	if plan.SelectedAgent != AgentGeneral {
		t.Errorf("expected default agent, got %q", plan.SelectedAgent)
	}
}

func TestParsePlanJSONSurroundedByProse(t *testing.T) {
	raw := `Sure! Here's my plan:
{"steps": ["look up office hours"], "requires_tools": true}
Let me know if that works.`

	plan := ParsePlan(raw, AgentGeneral)
	if len(plan.Steps) != 1 || plan.Steps[0] != "look up office hours" {
		t.Errorf("unexpected steps: %v", plan.Steps)
	}
}

func TestParsePlanSections(t *testing.T) {
	raw := `REASONING: need the platform for both parts
REQUIRES_TOOLS: yes
SELECTED_AGENT: search
STEPS:
- find the biology course
- list its assignments`

	plan := ParsePlan(raw, AgentGeneral)

	if plan.Reasoning != "need the platform for both parts" {
		t.Errorf("unexpected reasoning: %q", plan.Reasoning)
	}
	if !plan.RequiresTools {
		t.Error("expected RequiresTools true")
	}
	if plan.SelectedAgent != "search" {
		t.Errorf("unexpected agent: %q", plan.SelectedAgent)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %v", plan.Steps)
	}
	if plan.Steps[0] != "find the biology course" {
		t.Errorf("unexpected first step: %q", plan.Steps[0])
	}
}

func TestParsePlanSectionsPartial(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"free text", "I think you should just ask the professor."},
		{"empty", ""},
		{"steps label without items", "STEPS:\nnothing here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ParsePlan(tt.raw, AgentGeneral)

			// Every field is defaulted independently; parsing never fails.
			if plan.Reasoning == "" {
				t.Error("reasoning not defaulted")
			}
			if plan.SelectedAgent != AgentGeneral {
				t.Errorf("agent not defaulted: %q", plan.SelectedAgent)
			}
			if len(plan.Steps) != 1 || plan.Steps[0] != defaultStep {
				t.Errorf("steps not defaulted: %v", plan.Steps)
			}
		})
	}
}

func TestParsePlanRequiresToolsVariants(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"yes", true},
		{"true", true},
		{"no", false},
		{"false", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			raw := "REQUIRES_TOOLS: " + tt.value + "\nSTEPS:\n- do it"
			plan := ParsePlan(raw, AgentGeneral)
			if plan.RequiresTools != tt.want {
				t.Errorf("REQUIRES_TOOLS %q parsed as %v, want %v", tt.value, plan.RequiresTools, tt.want)
			}
		})
	}
}

func TestParsePlanInvalidJSONFallsBackToSections(t *testing.T) {
	// steps violates the schema (not an array), so the JSON path is
	// rejected and the labeled-section fallback takes over.
	raw := `{"steps": "not an array"}
SELECTED_AGENT: browse
STEPS:
- read the page`

	plan := ParsePlan(raw, AgentGeneral)
	if plan.SelectedAgent != "browse" {
		t.Errorf("expected section fallback agent 'browse', got %q", plan.SelectedAgent)
	}
	if len(plan.Steps) != 1 || plan.Steps[0] != "read the page" {
		t.Errorf("unexpected steps: %v", plan.Steps)
	}
}
