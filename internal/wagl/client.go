// Package wagl is the bridge to the wagl memory binary. It owns the
// command-line contract:
//
//	wagl recall <query> --db <path>
//	wagl put --text <content> --d-score <score> --db <path>
//
// Recall output is normalized into text suitable for context injection.
package wagl

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/biginformatics/openclaw-wagl/pkg/executil"
)

const (
	// DefaultBinary is looked up on PATH when no binary is configured.
	DefaultBinary = "wagl"

	cmdRecall = "recall"
	cmdPut    = "put"
)

// ErrEmptyContent is returned by Store for blank content.
var ErrEmptyContent = errors.New("content is required")

// Options configures a Client. It is fixed for the lifetime of the Client.
type Options struct {
	Binary  string
	DBPath  string
	Env     map[string]string
	Timeout time.Duration
	Logger  *zerolog.Logger
}

// Client issues recall and store commands against the wagl binary.
type Client struct {
	runner executil.Runner
	opts   Options
	log    zerolog.Logger
}

// NewClient creates a Client that runs commands through runner.
func NewClient(runner executil.Runner, opts Options) *Client {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Timeout <= 0 {
		opts.Timeout = executil.DefaultTimeout
	}
	opts.Env = maps.Clone(opts.Env)

	logger := log.With().Str("cmp", "wagl").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{runner: runner, opts: opts, log: logger}
}

// StoreReceipt describes a stored memory. ID is empty when wagl did not
// report one.
type StoreReceipt struct {
	ID string `json:"id,omitempty"`
}

// Recall returns the normalized recall payload for query. An empty string
// with a nil error means there is nothing to inject; a blank query returns
// that without running wagl. Output cut short by the runner's stdout cap is
// never injected.
func (c *Client) Recall(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", nil
	}

	res := c.run(ctx, cmdRecall, query)
	if err := res.Err(); err != nil {
		return "", err
	}
	if res.StdoutTruncated {
		c.log.Warn().Ctx(ctx).
			Int("stdout_bytes", len(res.Stdout)).
			Msg("recall output exceeded the capture limit, skipping")
		return "", nil
	}

	payload, ok := Normalize(res.Stdout)
	if !ok {
		c.log.Debug().Int("stdout_bytes", len(res.Stdout)).Msg("recall returned nothing to inject")
		return "", nil
	}
	return payload, nil
}

// Store saves content with the given d-score. Blank content returns
// ErrEmptyContent without running wagl.
func (c *Client) Store(ctx context.Context, content string, dScore float64) (StoreReceipt, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return StoreReceipt{}, ErrEmptyContent
	}

	res := c.run(ctx, cmdPut, "--text", content, "--d-score", FormatDScore(dScore))
	if err := res.Err(); err != nil {
		return StoreReceipt{}, err
	}

	return StoreReceipt{ID: storedID(res.Stdout)}, nil
}

// Binary returns the configured binary name or path.
func (c *Client) Binary() string { return c.opts.Binary }

// DBPath returns the configured database path.
func (c *Client) DBPath() string { return c.opts.DBPath }

func (c *Client) run(ctx context.Context, args ...string) executil.Result {
	req := executil.Request{
		Binary:  c.opts.Binary,
		Args:    args,
		DBPath:  c.opts.DBPath,
		Env:     c.opts.Env,
		Timeout: c.opts.Timeout,
	}

	res := c.runner.Run(ctx, req)

	ev := c.log.Debug()
	if !res.OK() {
		ev = c.log.Warn()
	}
	ev.Ctx(ctx).
		Str("subcommand", args[0]).
		Str("outcome", res.Outcome.String()).
		Int("exit_code", res.ExitCode).
		Dur("duration", res.Duration).
		Str("stderr", res.Stderr).
		Msg("wagl invocation finished")

	return res
}

// FormatDScore renders a d-score the way it is passed on the command line:
// shortest decimal form, no exponent.
func FormatDScore(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// storedID extracts an identifier from a JSON store response of the form
// {"id": ...} or {"item": {"id": ...}}. Non-JSON output yields "".
func storedID(stdout string) string {
	trimmed := strings.TrimSpace(stdout)
	if !strings.HasPrefix(trimmed, "{") {
		return ""
	}

	var resp struct {
		ID   json.RawMessage `json:"id"`
		Item struct {
			ID json.RawMessage `json:"id"`
		} `json:"item"`
	}
	if err := json.Unmarshal([]byte(trimmed), &resp); err != nil {
		return ""
	}

	if id := idString(resp.ID); id != "" {
		return id
	}
	return idString(resp.Item.ID)
}

func idString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
