package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/coursegenie/genie/internal/llm"
	"github.com/coursegenie/genie/internal/lms"
	"github.com/coursegenie/genie/pkg/models"
)

// BrowseAgent reads the contents of a specific course: its sections,
// activities, and attached resources.
type BrowseAgent struct {
	lms    *lms.Client
	client llm.Client
}

// NewBrowseAgent creates a BrowseAgent backed by the given LMS and
// completion clients.
func NewBrowseAgent(lmsClient *lms.Client, client llm.Client) *BrowseAgent {
	return &BrowseAgent{lms: lmsClient, client: client}
}

// Name implements Agent.
func (a *BrowseAgent) Name() string { return "browse" }

// Description implements Agent.
func (a *BrowseAgent) Description() string {
	return "Opens a course and reads its sections, activities, and resources in detail"
}

// Execute implements Agent. The course is chosen from the "course_id"
// metadata hint when present, otherwise by searching for the request text.
func (a *BrowseAgent) Execute(ctx context.Context, in Input) (*Result, error) {
	query := lastText(in.Messages)
	if query == "" {
		return nil, fmt.Errorf("browse agent: empty request")
	}

	courseID, err := a.resolveCourse(ctx, in, query)
	if err != nil {
		return nil, fmt.Errorf("browse agent: %w", err)
	}

	sections, err := a.lms.CourseContents(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("browse agent: %w", err)
	}

	contents := formatSections(sections)

	prompt := fmt.Sprintf(`You are browsing a course on the learning platform. The student asked:

%s

Course contents:

%s

Answer the question using the contents above.`, query, contents)

	answer, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("browse agent: completion: %w", err)
	}

	return &Result{
		Messages: []models.Message{models.AssistantMessage(answer)},
		ToolResults: []models.ToolResult{{
			Type:    models.ToolResultRawOutput,
			Content: contents,
			Agent:   a.Name(),
		}},
		Done: true,
	}, nil
}

func (a *BrowseAgent) resolveCourse(ctx context.Context, in Input, query string) (int, error) {
	if hint, ok := in.Metadata["course_id"]; ok {
		id, err := strconv.Atoi(hint)
		if err != nil {
			return 0, fmt.Errorf("invalid course_id hint %q", hint)
		}
		return id, nil
	}

	courses, err := a.lms.SearchCourses(ctx, searchTerms(query))
	if err != nil {
		return 0, err
	}
	if len(courses) == 0 {
		return 0, fmt.Errorf("no course matches %q", searchTerms(query))
	}
	return courses[0].ID, nil
}

func formatSections(sections []lms.CourseSection) string {
	if len(sections) == 0 {
		return "(course has no visible contents)"
	}

	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n", s.Name)
		if s.Summary != "" {
			fmt.Fprintf(&b, "%s\n", s.Summary)
		}
		for _, m := range s.Modules {
			fmt.Fprintf(&b, "- %s (%s)", m.Name, m.ModName)
			if m.Description != "" {
				fmt.Fprintf(&b, ": %s", m.Description)
			}
			b.WriteString("\n")
			for _, c := range m.Contents {
				fmt.Fprintf(&b, "  - %s %s\n", c.Filename, c.FileURL)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
