// Package plugin adapts host lifecycle events and tool calls onto the wagl
// memory bridge. The host is reached only through the API interface, so the
// same plugin runs inside the CLI host, the MCP server and tests.
package plugin

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Host lifecycle event names.
const (
	EventBeforeAgentStart = "before_agent_start"
	EventAgentEnd         = "agent_end"
)

// API is the surface a host exposes to a plugin at registration time.
type API interface {
	// PluginConfig returns the plugin's config entry
	// (plugins.entries.<id>.config), or nil when there is none.
	PluginConfig(id string) map[string]any

	// OnBeforeAgentStart subscribes to the event fired before the agent
	// generates a reply.
	OnBeforeAgentStart(handler BeforeAgentStartHandler)

	// OnAgentEnd subscribes to the event fired when an agent run finishes.
	OnAgentEnd(handler AgentEndHandler)

	// RegisterTool makes a tool callable by the agent.
	RegisterTool(tool Tool)

	// Logger returns the host logger. It may return nil.
	Logger() Logger
}

// Logger is the host's structured logger.
type Logger interface {
	Info(msg string)
	Warn(msg string)
}

// HookContext carries host identifiers for the run an event belongs to.
type HookContext struct {
	AgentID    string `json:"agentId,omitempty"`
	SessionKey string `json:"sessionKey,omitempty"`
}

// BeforeAgentStartEvent is the payload of before_agent_start.
type BeforeAgentStartEvent struct {
	Prompt string `json:"prompt"`
}

// BeforeAgentStartResult asks the host to prepend text to the agent context.
type BeforeAgentStartResult struct {
	PrependContext string `json:"prependContext,omitempty"`
}

// AgentEndEvent is the payload of agent_end.
type AgentEndEvent struct {
	Success    bool      `json:"success"`
	Messages   []Message `json:"messages"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs,omitempty"`
}

// BeforeAgentStartHandler handles before_agent_start. A nil result means
// nothing to inject.
type BeforeAgentStartHandler func(ctx context.Context, event BeforeAgentStartEvent, hctx HookContext) *BeforeAgentStartResult

// AgentEndHandler handles agent_end.
type AgentEndHandler func(ctx context.Context, event AgentEndEvent, hctx HookContext)

// zerologLogger adapts a zerolog.Logger to Logger.
type zerologLogger struct {
	l zerolog.Logger
}

// NewZerologLogger returns a Logger writing through l.
func NewZerologLogger(l zerolog.Logger) Logger {
	return zerologLogger{l: l}
}

func (z zerologLogger) Info(msg string) { z.l.Info().Msg(msg) }
func (z zerologLogger) Warn(msg string) { z.l.Warn().Msg(msg) }

// logPrefix tags every message sent to the host logger.
const logPrefix = "[openclaw-wagl]"

func prefixed(format string, args ...any) string {
	return logPrefix + " " + fmt.Sprintf(format, args...)
}
