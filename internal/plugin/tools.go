package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/biginformatics/openclaw-wagl/internal/core/logging"
	"github.com/biginformatics/openclaw-wagl/internal/wagl"
)

// Tool names.
const (
	ToolRecall = "wagl_recall"
	ToolStore  = "wagl_store"
)

// d-score bounds accepted by wagl_store.
const (
	MinDScore = -10
	MaxDScore = 10
)

const noMemoriesText = "(no memories found)"

// ToolFunc executes a tool call. It never returns an error: failures are
// reported in the result.
type ToolFunc func(ctx context.Context, callID string, params map[string]any) ToolResult

// Tool is an agent-callable tool.
type Tool struct {
	Name        string
	Label       string
	Description string
	// Parameters is a JSON schema object describing params.
	Parameters map[string]any
	Execute    ToolFunc
}

// ToolResult is what a tool call returns to the host.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Text returns the concatenated text of the result content.
func (r ToolResult) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, b := range r.Content {
		if b.Type == "text" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func textResult(text string, details map[string]any) ToolResult {
	return ToolResult{Content: []ContentBlock{TextBlock(text)}, Details: details}
}

func errorResult(text string) ToolResult {
	return ToolResult{Content: []ContentBlock{TextBlock(text)}, IsError: true}
}

// recallTool describes wagl_recall.
func (p *Plugin) recallTool() Tool {
	return Tool{
		Name:        ToolRecall,
		Label:       "wagl Recall",
		Description: "Recall memories matching a query from the wagl DB.",
		Parameters: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"query"},
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "What to recall"},
			},
		},
		Execute: p.executeRecall,
	}
}

// storeTool describes wagl_store.
func (p *Plugin) storeTool() Tool {
	return Tool{
		Name:        ToolStore,
		Label:       "wagl Store",
		Description: "Store a memory in the wagl DB with an optional d-score (-10 to +10).",
		Parameters: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"content"},
			"properties": map[string]any{
				"content": map[string]any{"type": "string", "description": "Memory content to store"},
				"d_score": map[string]any{
					"type":        "number",
					"description": "Sentiment score -10 to +10 (default 0)",
					"minimum":     MinDScore,
					"maximum":     MaxDScore,
				},
			},
		},
		Execute: p.executeStore,
	}
}

func (p *Plugin) executeRecall(ctx context.Context, callID string, params map[string]any) (result ToolResult) {
	ctx = withToolCall(ctx, callID)
	defer p.recoverTool(ToolRecall, &result)

	query, _ := params["query"].(string)
	query = strings.TrimSpace(query)
	if err := criterio.Run("query", query, required); err != nil {
		return errorResult(argumentMessage(err))
	}

	payload, err := p.mem.Recall(ctx, query)
	if err != nil {
		p.warn(ctx, "recall tool failed: %v", err)
		return errorResult(fmt.Sprintf("Memory recall failed: %v", err))
	}

	if payload == "" {
		return textResult(noMemoriesText, map[string]any{"found": false})
	}
	return textResult(payload, map[string]any{"found": true})
}

func (p *Plugin) executeStore(ctx context.Context, callID string, params map[string]any) (result ToolResult) {
	ctx = withToolCall(ctx, callID)
	defer p.recoverTool(ToolStore, &result)

	content, _ := params["content"].(string)
	content = strings.TrimSpace(content)

	dScore, dErr := dScoreParam(params["d_score"])

	var dScoreErr error
	if dErr != nil {
		dScoreErr = criterio.NewFieldErrors("d_score", dErr)
	}

	err := criterio.ValidateStruct(
		criterio.Run("content", content, required),
		dScoreErr,
	)
	if err != nil {
		return errorResult(argumentMessage(err))
	}

	receipt, err := p.mem.Store(ctx, content, dScore)
	if err != nil {
		p.warn(ctx, "store tool failed: %v", err)
		return errorResult(fmt.Sprintf("Memory store failed: %v", err))
	}

	score := wagl.FormatDScore(dScore)
	details := map[string]any{"d_score": dScore}
	if receipt.ID != "" {
		details["id"] = receipt.ID
		return textResult(fmt.Sprintf("Stored memory %s (d_score=%s)", receipt.ID, score), details)
	}
	return textResult(fmt.Sprintf("Stored memory (d_score=%s)", score), details)
}

func (p *Plugin) recoverTool(name string, result *ToolResult) {
	if r := recover(); r != nil {
		p.zl.Error().Interface("panic", r).Str("tool", name).Msg("tool panicked")
		*result = errorResult(fmt.Sprintf("%s failed: internal error", name))
	}
}

func withToolCall(ctx context.Context, callID string) context.Context {
	if callID == "" {
		return ctx
	}
	return logging.WithToolCallID(ctx, callID)
}

func required(s string) error {
	if s == "" {
		return errors.New("is required")
	}
	return nil
}

// dScoreParam reads the optional d_score argument. Absent means 0.
func dScoreParam(v any) (float64, error) {
	var d float64
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		d = n
	case float32:
		d = float64(n)
	case int:
		d = float64(n)
	case int64:
		d = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.New("must be a number")
		}
		d = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errors.New("must be a number")
		}
		d = f
	default:
		return 0, errors.New("must be a number")
	}

	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, errors.New("must be a finite number")
	}
	if d < MinDScore || d > MaxDScore {
		return 0, fmt.Errorf("must be between %d and %d", MinDScore, MaxDScore)
	}
	return d, nil
}

// argumentMessage renders validation errors as "field is required; ...".
func argumentMessage(err error) string {
	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Field+" "+fe.Err.Error())
	}
	return strings.Join(parts, "; ")
}
