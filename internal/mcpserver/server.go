// Package mcpserver exposes the memory tools over the Model Context Protocol.
package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/biginformatics/openclaw-wagl/internal/plugin"
)

// ToolExecutor runs a registered tool by name. *host.Host satisfies it.
type ToolExecutor interface {
	ExecuteTool(ctx context.Context, name, callID string, params map[string]any) (plugin.ToolResult, error)
}

// Config configures the MCP server.
type Config struct {
	Executor ToolExecutor
	Version  string
	Logger   zerolog.Logger
}

// Server serves wagl_recall and wagl_store to MCP clients.
type Server struct {
	config    Config
	mcpServer *mcp.Server
}

// RecallInput is the input of the wagl_recall MCP tool.
type RecallInput struct {
	Query string `json:"query" jsonschema:"What to recall"`
}

// StoreInput is the input of the wagl_store MCP tool.
type StoreInput struct {
	Content string   `json:"content" jsonschema:"Memory content to store"`
	DScore  *float64 `json:"d_score,omitempty" jsonschema:"Sentiment score -10 to +10 (default 0)"`
}

// New creates an MCP server whose tools are executed by c.Executor.
func New(c Config) (*Server, error) {
	if c.Executor == nil {
		return nil, errors.New("tool executor is required")
	}
	if c.Version == "" {
		c.Version = "dev"
	}

	s := &Server{config: c}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    "openclaw-wagl",
			Version: c.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        plugin.ToolRecall,
		Description: "Recall memories matching a query from the wagl DB.",
	}, s.handleRecall)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        plugin.ToolStore,
		Description: "Store a memory in the wagl DB with an optional d-score (-10 to +10).",
	}, s.handleStore)

	return s, nil
}

// MCP returns the underlying SDK server.
func (s *Server) MCP() *mcp.Server {
	return s.mcpServer
}

// ServeStdio serves a single client over stdin/stdout until ctx is done or
// the client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	s.config.Logger.Info().Msg("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, any, error) {
	return s.execute(ctx, plugin.ToolRecall, map[string]any{"query": input.Query})
}

func (s *Server) handleStore(ctx context.Context, _ *mcp.CallToolRequest, input StoreInput) (*mcp.CallToolResult, any, error) {
	params := map[string]any{"content": input.Content}
	if input.DScore != nil {
		params["d_score"] = *input.DScore
	}
	return s.execute(ctx, plugin.ToolStore, params)
}

func (s *Server) execute(ctx context.Context, name string, params map[string]any) (*mcp.CallToolResult, any, error) {
	res, err := s.config.Executor.ExecuteTool(ctx, name, "", params)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil, nil
	}
	return toCallToolResult(res), nil, nil
}

func toCallToolResult(res plugin.ToolResult) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(res.Content))
	for _, block := range res.Content {
		if block.Type != "text" {
			continue
		}
		content = append(content, &mcp.TextContent{Text: block.Text})
	}
	return &mcp.CallToolResult{IsError: res.IsError, Content: content}
}
