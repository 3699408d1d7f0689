package logging

import "context"

type contextKey string

const (
	sessionKeyKey contextKey = "session_key"
	agentIDKey    contextKey = "agent_id"
	toolCallIDKey contextKey = "tool_call_id"
)

// WithSessionKey adds the host session key to the context.
func WithSessionKey(ctx context.Context, sessionKey string) context.Context {
	return context.WithValue(ctx, sessionKeyKey, sessionKey)
}

// WithAgentID adds an agent ID to the context.
func WithAgentID(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, agentIDKey, agentID)
}

// WithToolCallID adds the id of the tool call being served to the context.
func WithToolCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, toolCallIDKey, id)
}

// GetSessionKey retrieves the session key from the context.
// Returns empty string if not present.
func GetSessionKey(ctx context.Context) string {
	return stringValue(ctx, sessionKeyKey)
}

// GetAgentID retrieves the agent ID from the context.
// Returns empty string if not present.
func GetAgentID(ctx context.Context) string {
	return stringValue(ctx, agentIDKey)
}

// GetToolCallID retrieves the tool call ID from the context.
func GetToolCallID(ctx context.Context) string {
	return stringValue(ctx, toolCallIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if id, ok := ctx.Value(key).(string); ok {
		return id
	}
	return ""
}
