package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/coursegenie/genie/pkg/models"
)

// Defaults applied field-by-field when the planner's output is missing or
// ambiguous. Parsing never fails; this is best-effort extraction, not a
// strict protocol decoder.
const (
	defaultReasoning = "Plan generated from the user request"
	defaultStep      = "Address the user's request"
)

// planSchema validates the planner's structured JSON output before it is
// trusted. Extraction falls back to labeled-section text when validation
// fails.
const planSchema = `{
	"type": "object",
	"properties": {
		"reasoning": {"type": "string"},
		"requires_tools": {"type": "boolean"},
		"selected_agent": {"type": "string"},
		"steps": {
			"type": "array",
			"items": {"type": "string"},
			"minItems": 1
		}
	},
	"required": ["steps"]
}`

var planSchemaLoader = gojsonschema.NewStringLoader(planSchema)

// ParsePlan extracts a Plan from raw completion output. It tries the
// structured JSON format first and falls back to lenient labeled-section
// extraction, defaulting each missing field independently.
func ParsePlan(raw, defaultAgent string) *models.Plan {
	if plan, ok := parsePlanJSON(raw); ok {
		applyPlanDefaults(plan, defaultAgent)
		return plan
	}

	plan := parsePlanSections(raw)
	applyPlanDefaults(plan, defaultAgent)
	return plan
}

// parsePlanJSON attempts to locate, validate and decode a JSON plan object
// inside the response text.
func parsePlanJSON(raw string) (*models.Plan, bool) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := text[start : end+1]

	result, err := gojsonschema.Validate(planSchemaLoader, gojsonschema.NewStringLoader(candidate))
	if err != nil || !result.Valid() {
		return nil, false
	}

	var plan models.Plan
	if err := json.Unmarshal([]byte(candidate), &plan); err != nil {
		return nil, false
	}
	return &plan, true
}

var (
	reasoningRe     = regexp.MustCompile(`(?im)^\s*REASONING:\s*(.+)$`)
	requiresToolsRe = regexp.MustCompile(`(?im)^\s*REQUIRES_TOOLS:\s*(yes|no|true|false)`)
	selectedAgentRe = regexp.MustCompile(`(?im)^\s*SELECTED_AGENT:\s*(\S+)`)
	stepRe          = regexp.MustCompile(`(?m)^\s*-\s+(.+)$`)
)

// parsePlanSections extracts the four labeled sections from free text.
// Fields that do not match are left zero-valued for applyPlanDefaults.
func parsePlanSections(raw string) *models.Plan {
	plan := &models.Plan{}

	if m := reasoningRe.FindStringSubmatch(raw); m != nil {
		plan.Reasoning = strings.TrimSpace(m[1])
	}
	if m := requiresToolsRe.FindStringSubmatch(raw); m != nil {
		v := strings.ToLower(m[1])
		plan.RequiresTools = v == "yes" || v == "true"
	}
	if m := selectedAgentRe.FindStringSubmatch(raw); m != nil {
		plan.SelectedAgent = strings.TrimSpace(m[1])
	}

	// Steps are the dash-prefixed lines after the STEPS label.
	if idx := strings.Index(strings.ToUpper(raw), "STEPS:"); idx >= 0 {
		for _, m := range stepRe.FindAllStringSubmatch(raw[idx:], -1) {
			step := strings.TrimSpace(m[1])
			if step != "" {
				plan.Steps = append(plan.Steps, step)
			}
		}
	}

	return plan
}

// applyPlanDefaults fills missing fields with the documented defaults.
func applyPlanDefaults(plan *models.Plan, defaultAgent string) {
	if plan.Reasoning == "" {
		plan.Reasoning = defaultReasoning
	}
	if plan.SelectedAgent == "" {
		plan.SelectedAgent = defaultAgent
	}
	if len(plan.Steps) == 0 {
		plan.Steps = []string{defaultStep}
	}
}
