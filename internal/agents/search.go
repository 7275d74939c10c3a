package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/lms"
	"github.com/coursegenie/genie/pkg/models"
)

// SearchAgent finds course material on the LMS: courses, deadlines,
// resources, and anything reachable through the webservice search.
type SearchAgent struct {
	lms    *lms.Client
	client llm.Client
}

// NewSearchAgent creates a SearchAgent backed by the given LMS and
// completion clients.
func NewSearchAgent(lmsClient *lms.Client, client llm.Client) *SearchAgent {
	return &SearchAgent{lms: lmsClient, client: client}
}

// Name implements Agent.
func (a *SearchAgent) Name() string { return "search" }

// Description implements Agent.
func (a *SearchAgent) Description() string {
	return "Searches the learning platform for courses, deadlines, office hours, and course material"
}

// Execute implements Agent. It searches the LMS for the current request,
// then asks the completion model to answer using what was found.
func (a *SearchAgent) Execute(ctx context.Context, in Input) (*Result, error) {
	query := lastText(in.Messages)
	if query == "" {
		return nil, fmt.Errorf("search agent: empty request")
	}

	courses, err := a.lms.SearchCourses(ctx, searchTerms(query))
	if err != nil {
		return nil, fmt.Errorf("search agent: %w", err)
	}

	found := formatCourses(courses)

	prompt := fmt.Sprintf(`You are a course search assistant. The student asked:

%s

Search results from the learning platform:

%s

Answer the question using only the results above. If nothing relevant was found, say so.`, query, found)

	answer, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("search agent: completion: %w", err)
	}

	return &Result{
		Messages: []models.Message{models.AssistantMessage(answer)},
		ToolResults: []models.ToolResult{{
			Type:    models.ToolResultRawOutput,
			Content: found,
			Agent:   a.Name(),
		}},
		Done: true,
	}, nil
}

// searchTerms strips planner boilerplate down to usable search keywords.
func searchTerms(query string) string {
	query = strings.TrimSpace(query)
	if idx := strings.Index(query, "\n"); idx > 0 {
		query = query[:idx]
	}
	return query
}

func formatCourses(courses []lms.Course) string {
	if len(courses) == 0 {
		return "(no matching courses)"
	}

	var b strings.Builder
	for _, c := range courses {
		name := c.DisplayName
		if name == "" {
			name = c.FullName
		}
		fmt.Fprintf(&b, "- [%d] %s (%s)", c.ID, name, c.ShortName)
		if c.Summary != "" {
			fmt.Fprintf(&b, ": %s", c.Summary)
		}
		b.WriteString("\n")
	}
	return b.String()
}
