package executil

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound reports that the binary could not be located or launched.
	ErrNotFound = errors.New("binary not found")
	// ErrTimedOut reports that the process was killed after its timeout.
	ErrTimedOut = errors.New("timed out")
)

// Outcome is the terminal classification of a single invocation. Exactly one
// applies to every Result.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeTimedOut
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Request describes one invocation of an external binary.
type Request struct {
	Binary string
	Args   []string
	// DBPath, when set, is appended to Args as a trailing "--db <path>" pair.
	DBPath string
	// Dir is the working directory; empty inherits the current one.
	Dir string
	// Env is merged over the ambient environment for this invocation only.
	Env     map[string]string
	Timeout time.Duration
}

// Argv returns the argument list passed to the binary.
func (r Request) Argv() []string {
	argv := make([]string, 0, len(r.Args)+2)
	argv = append(argv, r.Args...)
	if r.DBPath != "" {
		argv = append(argv, "--db", r.DBPath)
	}
	return argv
}

// Result is the captured outcome of a Request.
type Result struct {
	Binary string
	Stdout string
	// StdoutTruncated is set when stdout exceeded the runner's cap and Stdout
	// holds only its first part.
	StdoutTruncated bool
	// Stderr is trimmed and capped; it is kept for diagnostics only.
	Stderr string
	// ExitCode is -1 when the process did not exit on its own.
	ExitCode int
	Outcome  Outcome
	Duration time.Duration
	Timeout  time.Duration

	cause error
}

// OK reports whether the process exited successfully.
func (r Result) OK() bool { return r.Outcome == OutcomeSuccess }

// Err converts a non-success outcome into an error. It returns nil for
// OutcomeSuccess. NotFound and TimedOut wrap ErrNotFound and ErrTimedOut;
// OutcomeFailed returns an *ExitError.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeSuccess:
		return nil
	case OutcomeNotFound:
		return fmt.Errorf("%s: %w on PATH", r.Binary, ErrNotFound)
	case OutcomeTimedOut:
		return fmt.Errorf("%s: %w after %s", r.Binary, ErrTimedOut, r.Timeout)
	default:
		return &ExitError{
			Binary: r.Binary,
			Code:   r.ExitCode,
			Stderr: r.Stderr,
			cause:  r.cause,
		}
	}
}

// ExitError reports a process that ran but did not succeed.
type ExitError struct {
	Binary string
	Code   int
	Stderr string

	cause error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.Code, e.Stderr)
	}
	if e.Code < 0 && e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Binary, e.cause)
	}
	return fmt.Sprintf("%s exited with code %d", e.Binary, e.Code)
}

func (e *ExitError) Unwrap() error { return e.cause }
