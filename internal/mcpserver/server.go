// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the decision log to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/decidoc/internal/logservice"
)

// ContractURI is the resource URI of the log format contract.
const ContractURI = "decidoc://log-format"

// Server wraps the MCP server with decision-log tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *logservice.Service
	path   string
	logger *slog.Logger
}

// New creates a new MCP server bound to the decision log at path.
func New(svc *logservice.Service, path string, logger *slog.Logger) *Server {
	s := &Server{svc: svc, path: path, logger: logger}

	s.mcp = server.NewMCPServer(
		"decidoc",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_decisions",
		mcp.WithDescription("List every decision in the summary table, newest first."),
	), s.listDecisions)

	s.mcp.AddTool(mcp.NewTool("read_decision",
		mcp.WithDescription("Read the full details section of one decision."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Decision identifier, e.g. K-003")),
	), s.readDecision)

	s.mcp.AddTool(mcp.NewTool("add_decision",
		mcp.WithDescription("Append a new decision to the log. The identifier and date are "+
			"assigned automatically. Read the contract first via the get_log_format tool or the "+
			ContractURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Short description of the decision")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category, e.g. Architecture or Design")),
		mcp.WithString("status", mcp.Description("Status of the decision (default Final)")),
		mcp.WithString("context", mcp.Description("Context of the decision")),
		mcp.WithString("considerations", mcp.Description("Options that were considered")),
		mcp.WithString("decision", mcp.Description("The decision that was made")),
		mcp.WithString("motivation", mcp.Description("Why this option was chosen")),
		mcp.WithString("reflection", mcp.Description("First reflection or lesson learned")),
		mcp.WithString("stakeholders", mcp.Description("People involved in the decision")),
		mcp.WithString("sources", mcp.Description("Comma-separated URLs or free-text references")),
	), s.addDecision)

	s.mcp.AddTool(mcp.NewTool("get_log_format",
		mcp.WithDescription("Returns the decision log format contract."),
	), s.getLogFormat)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Decision Log Format Contract",
			mcp.WithResourceDescription("Layout of the decision log and rules for adding decisions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLogFormatResource,
	)

	return s
}

// ServeStdio serves MCP over in/out until ctx is cancelled or in closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listDecisions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.svc.List(ctx, s.path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readDecision(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	md, err := s.svc.Get(ctx, s.path, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (s *Server) addDecision(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	category, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	add := logservice.AddRequest{
		Title:          title,
		Category:       category,
		Status:         req.GetString("status", ""),
		Context:        req.GetString("context", ""),
		Considerations: req.GetString("considerations", ""),
		Decision:       req.GetString("decision", ""),
		Motivation:     req.GetString("motivation", ""),
		Reflection:     req.GetString("reflection", ""),
		Stakeholders:   req.GetString("stakeholders", ""),
	}
	if sources := req.GetString("sources", ""); sources != "" {
		add.Sources = []string{sources}
	}

	entry, err := s.svc.Add(ctx, s.path, add)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.logger.Info("mcp: decision added", slog.String("id", entry.ID))
	return mcp.NewToolResultText(fmt.Sprintf("added: %s", entry.ID)), nil
}

func (s *Server) getLogFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LogFormatContract), nil
}

func (s *Server) readLogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     LogFormatContract,
		},
	}, nil
}
