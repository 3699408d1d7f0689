package plugin

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/biginformatics/openclaw-wagl/internal/core/config"
	"github.com/biginformatics/openclaw-wagl/internal/core/logging"
	"github.com/biginformatics/openclaw-wagl/internal/wagl"
)

const (
	// MemoryHeading precedes the recall payload injected into agent context.
	MemoryHeading = "## Memory (wagl)"

	// SessionNotePrefix precedes captured session notes.
	SessionNotePrefix = "Session note: "

	minPromptChars    = 5
	minCaptureChars   = 20
	maxCaptureChars   = 500
	captureDScore     = 0.0
	roleAssistant     = "assistant"
	panicRecoveredMsg = "hook panicked"
)

// Memory is the subset of the wagl bridge the plugin depends on.
type Memory interface {
	Recall(ctx context.Context, query string) (string, error)
	Store(ctx context.Context, content string, dScore float64) (wagl.StoreReceipt, error)
}

var _ Memory = (*wagl.Client)(nil)

// Plugin maps host events and tool calls onto Memory. It holds no mutable
// state; every call is independent.
type Plugin struct {
	cfg  config.Config
	mem  Memory
	host Logger
	zl   zerolog.Logger
}

// New creates a Plugin. host may be nil.
func New(cfg config.Config, mem Memory, host Logger) *Plugin {
	return &Plugin{
		cfg:  cfg,
		mem:  mem,
		host: host,
		zl:   logging.Component("plugin"),
	}
}

// Config returns the resolved configuration the plugin runs with.
func (p *Plugin) Config() config.Config { return p.cfg }

// Tools returns the agent tools the plugin provides.
func (p *Plugin) Tools() []Tool {
	return []Tool{p.recallTool(), p.storeTool()}
}

// BeforeAgentStart recalls memory for the configured query and asks the host
// to prepend it. It returns nil when there is nothing to inject or when
// anything fails.
func (p *Plugin) BeforeAgentStart(ctx context.Context, event BeforeAgentStartEvent, hctx HookContext) (result *BeforeAgentStartResult) {
	ctx = withHookContext(ctx, hctx)
	defer p.recoverHook(ctx, EventBeforeAgentStart, func() { result = nil })

	if !p.cfg.AutoRecall || p.cfg.AgentExcluded(hctx.AgentID) {
		return nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(event.Prompt)) < minPromptChars {
		return nil
	}

	payload, err := p.mem.Recall(ctx, p.cfg.RecallQuery)
	if err != nil {
		p.warn(ctx, "recall skipped: %v", err)
		return nil
	}
	if payload == "" {
		return nil
	}

	p.info(ctx, "recall injected (%d chars)", utf8.RuneCountInString(payload))
	return &BeforeAgentStartResult{PrependContext: MemoryHeading + "\n" + payload}
}

// AgentEnd stores the last substantial assistant reply of a successful run
// as a session note. Failures are logged and dropped.
func (p *Plugin) AgentEnd(ctx context.Context, event AgentEndEvent, hctx HookContext) {
	ctx = withHookContext(ctx, hctx)
	defer p.recoverHook(ctx, EventAgentEnd, nil)

	if !p.cfg.AutoCapture || p.cfg.AgentExcluded(hctx.AgentID) {
		return
	}
	if !event.Success || len(event.Messages) == 0 {
		return
	}

	note, ok := SessionNote(event.Messages)
	if !ok {
		return
	}

	if _, err := p.mem.Store(ctx, note, captureDScore); err != nil {
		p.warn(ctx, "capture skipped: %v", err)
		return
	}
	p.info(ctx, "session memory captured")
}

// SessionNote builds the note captured at the end of a run from the newest
// assistant message with more than 20 characters of text. The note carries
// at most 500 characters of that text.
func SessionNote(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.Role != roleAssistant {
			continue
		}

		text := m.Content.Text()
		if utf8.RuneCountInString(text) <= minCaptureChars {
			continue
		}

		return SessionNotePrefix + strings.TrimSpace(truncateRunes(text, maxCaptureChars)), true
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

func withHookContext(ctx context.Context, hctx HookContext) context.Context {
	if hctx.AgentID != "" {
		ctx = logging.WithAgentID(ctx, hctx.AgentID)
	}
	if hctx.SessionKey != "" {
		ctx = logging.WithSessionKey(ctx, hctx.SessionKey)
	}
	return ctx
}

func (p *Plugin) recoverHook(ctx context.Context, event string, reset func()) {
	if r := recover(); r != nil {
		p.zl.Error().Ctx(ctx).Interface("panic", r).Str("event", event).Msg(panicRecoveredMsg)
		p.warn(ctx, "%s skipped: internal error", event)
		if reset != nil {
			reset()
		}
	}
}

// info and warn go to the host logger when there is one, else to zerolog.
func (p *Plugin) info(ctx context.Context, format string, args ...any) {
	msg := prefixed(format, args...)
	if p.host != nil {
		p.host.Info(msg)
		return
	}
	p.zl.Info().Ctx(ctx).Msg(msg)
}

func (p *Plugin) warn(ctx context.Context, format string, args ...any) {
	msg := prefixed(format, args...)
	if p.host != nil {
		p.host.Warn(msg)
		return
	}
	p.zl.Warn().Ctx(ctx).Msg(msg)
}
