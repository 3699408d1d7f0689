// Package host is an in-process plugin host. It implements plugin.API on top
// of the settings file so the memory plugin can be driven from the command
// line or the MCP server without the agent runtime.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/plugin"
)

var (
	// ErrUnknownTool is returned by ExecuteTool for unregistered tool names.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUnknownEvent is returned by DispatchJSON for unsupported events.
	ErrUnknownEvent = errors.New("unknown event")
)

// Host collects hook subscriptions and tools from registered plugins and
// dispatches events to them.
type Host struct {
	settings config.Settings
	log      zerolog.Logger

	mu          sync.RWMutex
	beforeStart []plugin.BeforeAgentStartHandler
	agentEnd    []plugin.AgentEndHandler
	tools       map[string]plugin.Tool
}

var _ plugin.API = (*Host)(nil)

// New creates a Host serving settings. Plugin log lines are written to log.
func New(settings config.Settings, log zerolog.Logger) *Host {
	return &Host{
		settings: settings,
		log:      log,
		tools:    make(map[string]plugin.Tool),
	}
}

// PluginConfig implements plugin.API.
func (h *Host) PluginConfig(id string) map[string]any {
	return h.settings.PluginConfig(id)
}

// OnBeforeAgentStart implements plugin.API.
func (h *Host) OnBeforeAgentStart(handler plugin.BeforeAgentStartHandler) {
	h.mu.Lock()
	h.beforeStart = append(h.beforeStart, handler)
	h.mu.Unlock()
}

// OnAgentEnd implements plugin.API.
func (h *Host) OnAgentEnd(handler plugin.AgentEndHandler) {
	h.mu.Lock()
	h.agentEnd = append(h.agentEnd, handler)
	h.mu.Unlock()
}

// RegisterTool implements plugin.API. A later registration with the same
// name replaces the earlier one.
func (h *Host) RegisterTool(tool plugin.Tool) {
	h.mu.Lock()
	if _, exists := h.tools[tool.Name]; exists {
		h.log.Warn().Str("tool", tool.Name).Msg("tool re-registered, replacing")
	}
	h.tools[tool.Name] = tool
	h.mu.Unlock()

	h.log.Debug().Str("tool", tool.Name).Msg("tool registered")
}

// Logger implements plugin.API.
func (h *Host) Logger() plugin.Logger {
	return plugin.NewZerologLogger(h.log)
}

// RegisterMemory registers the wagl memory plugin when it is enabled in the
// settings. It returns nil without error when the plugin is disabled.
func (h *Host) RegisterMemory(opts ...plugin.Option) (*plugin.Plugin, error) {
	if !h.settings.PluginEnabled(config.PluginID) {
		h.log.Info().Str("plugin", config.PluginID).Msg("plugin disabled, skipping")
		return nil, nil
	}
	return plugin.Register(h, opts...)
}

// Tools returns the registered tools sorted by name.
func (h *Host) Tools() []plugin.Tool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	tools := make([]plugin.Tool, 0, len(h.tools))
	for _, t := range h.tools {
		tools = append(tools, t)
	}
	slices.SortFunc(tools, func(a, b plugin.Tool) int { return strings.Compare(a.Name, b.Name) })
	return tools
}

// ExecuteTool runs the named tool. An empty callID is replaced by a fresh
// UUID. Only an unknown tool name is reported as an error; tool failures are
// carried in the result.
func (h *Host) ExecuteTool(ctx context.Context, name, callID string, params map[string]any) (plugin.ToolResult, error) {
	h.mu.RLock()
	tool, ok := h.tools[name]
	h.mu.RUnlock()

	if !ok {
		return plugin.ToolResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if callID == "" {
		callID = uuid.NewString()
	}
	if params == nil {
		params = map[string]any{}
	}

	res := tool.Execute(ctx, callID, params)
	h.log.Debug().
		Str("tool", name).
		Str("call_id", callID).
		Bool("is_error", res.IsError).
		Msg("tool executed")
	return res, nil
}

// BeforeAgentStart runs every before_agent_start handler in registration
// order and joins their prepend contexts. It returns nil when no handler
// asked for an injection.
func (h *Host) BeforeAgentStart(ctx context.Context, event plugin.BeforeAgentStartEvent, hctx plugin.HookContext) *plugin.BeforeAgentStartResult {
	h.mu.RLock()
	handlers := slices.Clone(h.beforeStart)
	h.mu.RUnlock()

	var parts []string
	for _, handler := range handlers {
		res := handler(ctx, event, hctx)
		if res != nil && res.PrependContext != "" {
			parts = append(parts, res.PrependContext)
		}
	}

	if len(parts) == 0 {
		return nil
	}
	return &plugin.BeforeAgentStartResult{PrependContext: strings.Join(parts, "\n\n")}
}

// AgentEnd runs every agent_end handler concurrently and waits for them.
func (h *Host) AgentEnd(ctx context.Context, event plugin.AgentEndEvent, hctx plugin.HookContext) {
	h.mu.RLock()
	handlers := slices.Clone(h.agentEnd)
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler(ctx, event, hctx)
		}()
	}
	wg.Wait()
}

// HookResponse is the JSON written back for a dispatched hook. Fields are
// omitted when the hook has nothing to return, giving "{}".
type HookResponse struct {
	PrependContext string `json:"prependContext,omitempty"`
}

// DispatchJSON decodes a hook event from data and dispatches it. The event
// object may carry agentId and sessionKey alongside the event fields.
func (h *Host) DispatchJSON(ctx context.Context, event string, data []byte) (HookResponse, error) {
	var hctx plugin.HookContext
	if err := json.Unmarshal(data, &hctx); err != nil {
		return HookResponse{}, fmt.Errorf("decode %s event: %w", event, err)
	}

	switch event {
	case plugin.EventBeforeAgentStart:
		var ev plugin.BeforeAgentStartEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return HookResponse{}, fmt.Errorf("decode %s event: %w", event, err)
		}
		if res := h.BeforeAgentStart(ctx, ev, hctx); res != nil {
			return HookResponse{PrependContext: res.PrependContext}, nil
		}
		return HookResponse{}, nil

	case plugin.EventAgentEnd:
		var ev plugin.AgentEndEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return HookResponse{}, fmt.Errorf("decode %s event: %w", event, err)
		}
		h.AgentEnd(ctx, ev, hctx)
		return HookResponse{}, nil

	default:
		return HookResponse{}, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

// Events lists the hook events DispatchJSON accepts.
func Events() []string {
	return []string{plugin.EventBeforeAgentStart, plugin.EventAgentEnd}
}
