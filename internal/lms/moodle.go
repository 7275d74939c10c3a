// Package lms provides a client for the Moodle webservice REST API.
// All calls go through the single rest/server.php endpoint with wsfunction
// selecting the operation and JSON responses.
package lms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a Moodle site's webservice API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Moodle webservice client. baseURL is the site root,
// token is the webservice token issued by the site.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SiteInfo describes the Moodle site and the token's user.
type SiteInfo struct {
	SiteName  string `json:"sitename"`
	UserName  string `json:"username"`
	FullName  string `json:"fullname"`
	UserID    int    `json:"userid"`
	SiteURL   string `json:"siteurl"`
	Release   string `json:"release"`
	UserLang  string `json:"lang"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// Course is a Moodle course summary.
type Course struct {
	ID          int    `json:"id"`
	ShortName   string `json:"shortname"`
	FullName    string `json:"fullname"`
	DisplayName string `json:"displayname"`
	Summary     string `json:"summary"`
	CategoryID  int    `json:"categoryid"`
}

// CourseSection is one section of a course's contents.
type CourseSection struct {
	ID      int            `json:"id"`
	Name    string         `json:"name"`
	Summary string         `json:"summary"`
	Modules []CourseModule `json:"modules"`
}

// CourseModule is an activity or resource inside a section.
type CourseModule struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	ModName     string          `json:"modname"`
	URL         string          `json:"url"`
	Description string          `json:"description"`
	Contents    []ModuleContent `json:"contents"`
}

// ModuleContent is a file or URL attached to a module.
type ModuleContent struct {
	Type     string `json:"type"`
	Filename string `json:"filename"`
	FileURL  string `json:"fileurl"`
	MimeType string `json:"mimetype"`
}

// apiError is the error envelope Moodle returns with HTTP 200.
type apiError struct {
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
}

// Error is a Moodle webservice error.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("moodle: %s (%s)", e.Message, e.Code)
}

// SiteInfo fetches site metadata and the token owner's identity.
func (c *Client) SiteInfo(ctx context.Context) (*SiteInfo, error) {
	var info SiteInfo
	if err := c.call(ctx, "core_webservice_get_site_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SearchCourses searches courses by name or keyword.
func (c *Client) SearchCourses(ctx context.Context, query string) ([]Course, error) {
	params := url.Values{}
	params.Set("criterianame", "search")
	params.Set("criteriavalue", query)

	var result struct {
		Total   int      `json:"total"`
		Courses []Course `json:"courses"`
	}
	if err := c.call(ctx, "core_course_search_courses", params, &result); err != nil {
		return nil, err
	}
	return result.Courses, nil
}

// EnrolledCourses lists courses the token's user is enrolled in.
func (c *Client) EnrolledCourses(ctx context.Context, userID int) ([]Course, error) {
	params := url.Values{}
	params.Set("userid", strconv.Itoa(userID))

	var courses []Course
	if err := c.call(ctx, "core_enrol_get_users_courses", params, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// CourseContents fetches the sections and modules of a course.
func (c *Client) CourseContents(ctx context.Context, courseID int) ([]CourseSection, error) {
	params := url.Values{}
	params.Set("courseid", strconv.Itoa(courseID))

	var sections []CourseSection
	if err := c.call(ctx, "core_course_get_contents", params, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// call performs one webservice request and decodes the response into out.
func (c *Client) call(ctx context.Context, function string, params url.Values, out interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("moodle: no base URL configured")
	}
	if c.token == "" {
		return fmt.Errorf("moodle: no webservice token configured")
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("wstoken", c.token)
	params.Set("wsfunction", function)
	params.Set("moodlewsrestformat", "json")

	endpoint := c.baseURL + "/webservice/rest/server.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("moodle: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("moodle: %s: %w", function, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("moodle: %s: unexpected status %d", function, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("moodle: reading response: %w", err)
	}

	// Moodle reports errors inside a 200 response.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Exception != "" {
		return &Error{Code: apiErr.ErrorCode, Message: apiErr.Message}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("moodle: decoding %s response: %w", function, err)
	}

	return nil
}
