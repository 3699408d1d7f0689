package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts session_key, agent_id and tool_call_id from context and
// adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if sessionKey := GetSessionKey(ctx); sessionKey != "" {
		e.Str("session_key", sessionKey)
	}

	if agentID := GetAgentID(ctx); agentID != "" {
		e.Str("agent_id", agentID)
	}

	if callID := GetToolCallID(ctx); callID != "" {
		e.Str("tool_call_id", callID)
	}
}
