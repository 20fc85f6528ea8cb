// Package mcpapi provides a stateless MCP streamable-HTTP adapter exposing
// tracker operations as tools.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/evanschultz/tix/internal/app"
	"github.com/evanschultz/tix/internal/domain"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter over the task service.
func NewHandler(cfg Config, svc *app.Service) (*Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("task service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerListTasksTool(mcpSrv, svc)
	registerShowTaskTool(mcpSrv, svc)
	registerUpdateTaskTool(mcpSrv, svc)
	registerCreateTaskTool(mcpSrv, svc)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "tix"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// taskPayload is the wire shape returned by every task tool.
type taskPayload struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	Priority     int    `json:"priority"`
	Type         string `json:"type"`
	Assignee     string `json:"assignee,omitempty"`
	Dependencies int    `json:"dependency_count,omitempty"`
	Dependents   int    `json:"dependent_count,omitempty"`
	Comments     int    `json:"comment_count,omitempty"`
}

// payloadFromTask converts a domain task into its tool-result shape.
func payloadFromTask(task domain.Task) taskPayload {
	return taskPayload{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       string(task.Status),
		Priority:     task.Priority,
		Type:         task.Type,
		Assignee:     task.Assignee,
		Dependencies: task.Dependencies,
		Dependents:   task.Dependents,
		Comments:     task.Comments,
	}
}

// registerListTasksTool registers the `tix.list_tasks` tool.
func registerListTasksTool(srv *mcpserver.MCPServer, svc *app.Service) {
	srv.AddTool(
		mcp.NewTool(
			"tix.list_tasks",
			mcp.WithDescription("List the current candidate task set, optionally narrowed by a filter term."),
			mcp.WithString("filter", mcp.Description("Case-insensitive substring matched against title, description, id, and status")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			tasks, err := svc.ListTasks(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			tasks = app.FilterTasks(tasks, req.GetString("filter", ""))
			payloads := make([]taskPayload, 0, len(tasks))
			for _, task := range tasks {
				payloads = append(payloads, payloadFromTask(task))
			}
			result, err := mcp.NewToolResultJSON(map[string]any{"tasks": payloads})
			if err != nil {
				return nil, fmt.Errorf("encode list_tasks result: %w", err)
			}
			return result, nil
		},
	)
}

// registerShowTaskTool registers the `tix.show_task` tool.
func registerShowTaskTool(srv *mcpserver.MCPServer, svc *app.Service) {
	srv.AddTool(
		mcp.NewTool(
			"tix.show_task",
			mcp.WithDescription("Return the full record for one task id."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task identifier")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			task, err := svc.ShowTask(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(payloadFromTask(task))
			if err != nil {
				return nil, fmt.Errorf("encode show_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerUpdateTaskTool registers the `tix.update_task` tool.
func registerUpdateTaskTool(srv *mcpserver.MCPServer, svc *app.Service) {
	statuses := make([]string, 0, len(domain.Statuses()))
	for _, status := range domain.Statuses() {
		statuses = append(statuses, string(status))
	}
	srv.AddTool(
		mcp.NewTool(
			"tix.update_task",
			mcp.WithDescription("Apply a partial update to one task. Omitted fields are left unchanged."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Task identifier")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("status", mcp.Description("New status"), mcp.Enum(statuses...)),
			mcp.WithNumber("priority", mcp.Description("New priority, 0 (highest) through 4")),
			mcp.WithString("type", mcp.Description("New task type")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			patch := patchFromRequest(req)
			if err := svc.UpdateTask(ctx, id, patch); err != nil {
				return toolResultFromError(err), nil
			}
			task, err := svc.ShowTask(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(payloadFromTask(task))
			if err != nil {
				return nil, fmt.Errorf("encode update_task result: %w", err)
			}
			return result, nil
		},
	)
}

// registerCreateTaskTool registers the `tix.create_task` tool.
func registerCreateTaskTool(srv *mcpserver.MCPServer, svc *app.Service) {
	srv.AddTool(
		mcp.NewTool(
			"tix.create_task",
			mcp.WithDescription("Create a new task. Title is required; everything else has defaults."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Task description")),
			mcp.WithString("status", mcp.Description("Initial status (defaults to open)")),
			mcp.WithNumber("priority", mcp.Description("Priority, 0 (highest) through 4")),
			mcp.WithString("type", mcp.Description("Task type (defaults to task)")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			title, err := req.RequireString("title")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			priority := domain.PriorityUnknown
			if raw := req.GetFloat("priority", -1); raw >= 0 {
				priority = int(raw)
			}
			task, err := svc.CreateTask(ctx, app.CreateTaskInput{
				Title:       title,
				Description: req.GetString("description", ""),
				Status:      domain.Status(req.GetString("status", "")),
				Priority:    priority,
				Type:        req.GetString("type", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(payloadFromTask(task))
			if err != nil {
				return nil, fmt.Errorf("encode create_task result: %w", err)
			}
			return result, nil
		},
	)
}

// patchFromRequest assembles a partial update from the provided arguments.
func patchFromRequest(req mcp.CallToolRequest) app.Patch {
	var patch app.Patch
	args := req.GetArguments()
	if _, ok := args["title"]; ok {
		title := req.GetString("title", "")
		patch.Title = &title
	}
	if _, ok := args["description"]; ok {
		description := req.GetString("description", "")
		patch.Description = &description
	}
	if _, ok := args["status"]; ok {
		status := domain.Status(req.GetString("status", ""))
		patch.Status = &status
	}
	if _, ok := args["priority"]; ok {
		priority := int(req.GetFloat("priority", float64(domain.PriorityUnknown)))
		patch.Priority = &priority
	}
	if _, ok := args["type"]; ok {
		taskType := req.GetString("type", "")
		patch.Type = &taskType
	}
	return patch
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, app.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidPriority):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
