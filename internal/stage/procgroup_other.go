//go:build !unix

package stage

import "os/exec"

// setProcessGroup is a no-op where process groups are unavailable; the
// default cancellation kills the direct child and WaitDelay releases the pipe.
func setProcessGroup(*exec.Cmd) {}
