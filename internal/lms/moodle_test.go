package lms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-token", WithHTTPClient(srv.Client()))
}

func TestSiteInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("wstoken") != "test-token" {
			t.Errorf("expected wstoken 'test-token', got %q", q.Get("wstoken"))
		}
		if q.Get("wsfunction") != "core_webservice_get_site_info" {
			t.Errorf("unexpected wsfunction %q", q.Get("wsfunction"))
		}
		if q.Get("moodlewsrestformat") != "json" {
			t.Errorf("expected json rest format, got %q", q.Get("moodlewsrestformat"))
		}
		w.Write([]byte(`{"sitename":"Test U","username":"student","fullname":"Test Student","userid":42}`))
	})

	info, err := client.SiteInfo(context.Background())
	if err != nil {
		t.Fatalf("SiteInfo failed: %v", err)
	}
	if info.SiteName != "Test U" {
		t.Errorf("expected sitename 'Test U', got %q", info.SiteName)
	}
	if info.UserID != 42 {
		t.Errorf("expected userid 42, got %d", info.UserID)
	}
}

func TestSearchCourses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("criteriavalue") != "algorithms" {
			t.Errorf("expected search query 'algorithms', got %q", q.Get("criteriavalue"))
		}
		w.Write([]byte(`{"total":1,"courses":[{"id":7,"shortname":"CS201","fullname":"Algorithms"}]}`))
	})

	courses, err := client.SearchCourses(context.Background(), "algorithms")
	if err != nil {
		t.Fatalf("SearchCourses failed: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("expected 1 course, got %d", len(courses))
	}
	if courses[0].ID != 7 || courses[0].ShortName != "CS201" {
		t.Errorf("unexpected course: %+v", courses[0])
	}
}

func TestCourseContents(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("courseid") != "7" {
			t.Errorf("expected courseid 7, got %q", r.URL.Query().Get("courseid"))
		}
		w.Write([]byte(`[{"id":1,"name":"Week 1","modules":[{"id":10,"name":"Syllabus","modname":"resource"}]}]`))
	})

	sections, err := client.CourseContents(context.Background(), 7)
	if err != nil {
		t.Fatalf("CourseContents failed: %v", err)
	}
	if len(sections) != 1 || len(sections[0].Modules) != 1 {
		t.Fatalf("unexpected sections: %+v", sections)
	}
	if sections[0].Modules[0].Name != "Syllabus" {
		t.Errorf("expected module 'Syllabus', got %q", sections[0].Modules[0].Name)
	}
}

func TestAPIErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"exception":"moodle_exception","errorcode":"invalidtoken","message":"Invalid token"}`))
	})

	_, err := client.SiteInfo(context.Background())
	if err == nil {
		t.Fatal("expected error from API error envelope")
	}

	var moodleErr *Error
	if !errors.As(err, &moodleErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if moodleErr.Code != "invalidtoken" {
		t.Errorf("expected code 'invalidtoken', got %q", moodleErr.Code)
	}
}

func TestHTTPStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := client.SiteInfo(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestMissingConfiguration(t *testing.T) {
	if _, err := NewClient("", "tok").SiteInfo(context.Background()); err == nil {
		t.Error("expected error when base URL is missing")
	}
	if _, err := NewClient("https://example.edu", "").SiteInfo(context.Background()); err == nil {
		t.Error("expected error when token is missing")
	}
}
