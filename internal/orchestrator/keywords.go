package orchestrator

import "strings"

// Default agent names. The configured agent list may rename or extend
// these, but the keyword table routes to these four categories.
const (
	AgentSearch  = "search"
	AgentBrowse  = "browse"
	AgentMemory  = "memory"
	AgentGeneral = "general"
)

// AgentKeywords is the single source of truth for routing a todo's text to
// an agent category. Classification is first-match-wins over the category
// order below; General has no keywords because it is the default.
type AgentKeywords struct {
	// Search keywords indicate lookups against course content.
	Search []string
	// Browse keywords indicate fetching and reading a specific page.
	Browse []string
	// Memory keywords indicate storing or recalling user notes.
	Memory []string
}

// DefaultAgentKeywords returns the authoritative keyword mappings.
var DefaultAgentKeywords = AgentKeywords{
	Search: []string{
		"search",
		"find",
		"look up",
		"lookup",
		"locate",
		"query",
		"office hours",
		"due date",
		"deadline",
	},
	Browse: []string{
		"scrape",
		"navigate",
		"browse",
		"open the page",
		"visit",
		"read the page",
		"url",
	},
	Memory: []string{
		"remember",
		"recall",
		"memorize",
		"note down",
		"saved",
		"stored",
		"what did i",
	},
}

// WithExtra returns a copy of the table with per-agent keywords appended.
// Extras for General (or any unknown name) are ignored: General is the
// default category and matches by not matching.
func (k AgentKeywords) WithExtra(extra map[string][]string) AgentKeywords {
	out := AgentKeywords{
		Search: append([]string(nil), k.Search...),
		Browse: append([]string(nil), k.Browse...),
		Memory: append([]string(nil), k.Memory...),
	}
	for agent, kws := range extra {
		switch agent {
		case AgentSearch:
			out.Search = append(out.Search, kws...)
		case AgentBrowse:
			out.Browse = append(out.Browse, kws...)
		case AgentMemory:
			out.Memory = append(out.Memory, kws...)
		}
	}
	return out
}

// Classify routes todo text to an agent name. The first matching keyword
// in category order wins; text that matches nothing goes to General.
func (k AgentKeywords) Classify(text string) string {
	lower := strings.ToLower(text)

	for _, kw := range k.Search {
		if strings.Contains(lower, kw) {
			return AgentSearch
		}
	}
	for _, kw := range k.Browse {
		if strings.Contains(lower, kw) {
			return AgentBrowse
		}
	}
	for _, kw := range k.Memory {
		if strings.Contains(lower, kw) {
			return AgentMemory
		}
	}

	return AgentGeneral
}

// ClassifyAgent is a convenience wrapper using the default keyword table.
func ClassifyAgent(text string) string {
	return DefaultAgentKeywords.Classify(text)
}
