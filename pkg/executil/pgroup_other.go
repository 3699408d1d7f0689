//go:build !unix

package executil

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; the
// default exec.CommandContext cancellation kills the direct child.
func killProcessGroup(_ *exec.Cmd) {}
