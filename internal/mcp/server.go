package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/checkin/internal/export"
	"github.com/joescharf/checkin/internal/models"
	"github.com/joescharf/checkin/internal/store"
)

// PeriodChecker answers whether an identity has checked in for a period.
type PeriodChecker interface {
	Completed(ctx context.Context, identity, period string) (bool, error)
	CurrentPeriod() string
}

// Server exposes the local check-in data as MCP tools.
type Server struct {
	store   store.Store
	checker PeriodChecker
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store, checker PeriodChecker) *Server {
	return &Server{store: s, checker: checker}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("checkin", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.listReviewsTool())
	srv.AddTool(s.periodStatusTool())
	srv.AddTool(s.exportCSVTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// checkin_list_reviews
func (s *Server) listReviewsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("checkin_list_reviews",
		mcp.WithDescription("List submitted monthly check-ins in stored order. Returns a JSON array of reviews with developerEmail, monthId, completionPercentage, bugCount, satisfaction, comments and timestamp."),
		mcp.WithString("email", mcp.Description("Only reviews from this developer email (case-insensitive)")),
		mcp.WithString("period", mcp.Description("Only reviews for this month, as YYYY-MM")),
	)
	return tool, s.handleListReviews
}

func (s *Server) handleListReviews(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email := strings.TrimSpace(request.GetString("email", ""))
	period := strings.TrimSpace(request.GetString("period", ""))

	reviews, err := s.store.ListReviews(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reviews: %v", err)), nil
	}

	out := make([]*models.Review, 0, len(reviews))
	for _, r := range reviews {
		if email != "" && !strings.EqualFold(strings.TrimSpace(r.Identity), email) {
			continue
		}
		if period != "" && r.Period != period {
			continue
		}
		out = append(out, r)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal reviews: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// checkin_period_status
func (s *Server) periodStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("checkin_period_status",
		mcp.WithDescription("Report whether a developer already completed the check-in for a month. Defaults to the current month."),
		mcp.WithString("email", mcp.Required(), mcp.Description("Developer email")),
		mcp.WithString("period", mcp.Description("Month as YYYY-MM (default: current month)")),
	)
	return tool, s.handlePeriodStatus
}

func (s *Server) handlePeriodStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	email, err := request.RequireString("email")
	if err != nil || strings.TrimSpace(email) == "" {
		return mcp.NewToolResultError("missing required parameter: email"), nil
	}
	email = strings.TrimSpace(email)

	period := strings.TrimSpace(request.GetString("period", ""))
	if period == "" {
		period = s.checker.CurrentPeriod()
	}

	done, err := s.checker.Completed(ctx, email, period)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to check period: %v", err)), nil
	}

	out := struct {
		Email       string `json:"email"`
		Period      string `json:"period"`
		PeriodLabel string `json:"periodLabel"`
		Completed   bool   `json:"completed"`
	}{
		Email:       email,
		Period:      period,
		PeriodLabel: models.PeriodLabel(period),
		Completed:   done,
	}
	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal status: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// checkin_export_csv
func (s *Server) exportCSVTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("checkin_export_csv",
		mcp.WithDescription("Export all check-ins as semicolon-separated CSV text (UTF-8 with byte-order mark), the same content as the admin export file."),
	)
	return tool, s.handleExportCSV
}

func (s *Server) handleExportCSV(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reviews, err := s.store.ListReviews(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reviews: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, reviews); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to export: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
