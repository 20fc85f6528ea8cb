package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
)

// stubTracker satisfies app.Tracker with canned data for handler tests.
type stubTracker struct {
	tasks []domain.Task
}

func (s *stubTracker) List(context.Context) ([]domain.Task, error) { return s.tasks, nil }

func (s *stubTracker) Show(_ context.Context, id string) (domain.Task, error) {
	for _, task := range s.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return domain.Task{}, app.NotFoundError{ID: id}
}

func (s *stubTracker) Update(context.Context, string, app.Patch) error { return nil }

func (s *stubTracker) Create(_ context.Context, in app.CreateTaskInput) (domain.Task, error) {
	return domain.Task{ID: "tix-new", Title: in.Title, Status: in.Status}, nil
}

func (s *stubTracker) StatusCycle() []domain.Status { return nil }
func (s *stubTracker) TaskTypes() []string          { return nil }
func (s *stubTracker) Priorities() []string         { return nil }

func TestNewHandlerServesHealthEndpoints(t *testing.T) {
	handler, _, err := NewHandler(Config{}, app.NewService(&stubTracker{}))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestNewHandlerRequiresService(t *testing.T) {
	if _, _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestNormalizeConfigDefaults(t *testing.T) {
	cfg := normalizeConfig(Config{})
	if cfg.HTTPBind != "127.0.0.1:8080" {
		t.Fatalf("HTTPBind = %q", cfg.HTTPBind)
	}
	if cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("MCPEndpoint = %q", cfg.MCPEndpoint)
	}
	if cfg.ServerName != "tix" || cfg.ServerVersion != "dev" {
		t.Fatalf("identity = %q/%q", cfg.ServerName, cfg.ServerVersion)
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty uses fallback", "", "/mcp"},
		{"missing slash added", "rpc", "/rpc"},
		{"trailing slash trimmed", "/rpc/", "/rpc"},
		{"bare slash uses fallback", "/", "/mcp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeEndpoint(tc.in, "/mcp"); got != tc.want {
				t.Fatalf("normalizeEndpoint(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
