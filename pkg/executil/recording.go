package executil

import (
	"context"
	"sync"
)

// RecordingRunner captures requests for testing.
// Configure Results to control what each subcommand returns.
type RecordingRunner struct {
	mu       sync.Mutex
	Requests []Request

	// Results maps the first argument (the subcommand, e.g. "recall") to the
	// Result returned for it.
	Results map[string]Result

	// Default is returned when no entry in Results matches.
	Default Result
}

// Run records the request and returns the configured result.
func (r *RecordingRunner) Run(_ context.Context, req Request) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	req.Args = append([]string(nil), req.Args...)
	r.Requests = append(r.Requests, req)

	res := r.Default
	if len(req.Args) > 0 && r.Results != nil {
		if scripted, ok := r.Results[req.Args[0]]; ok {
			res = scripted
		}
	}
	if res.Binary == "" {
		res.Binary = req.Binary
	}
	return res
}

// Calls returns a copy of the recorded requests.
func (r *RecordingRunner) Calls() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Request(nil), r.Requests...)
}

// Reset clears recorded requests.
func (r *RecordingRunner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Requests = nil
}
