package stage

import (
	"errors"
	"fmt"
	"time"
)

// ErrStageFailed is matched by every *Failure.
var ErrStageFailed = errors.New("stage failed")

// FailureKind classifies why a stage did not succeed.
type FailureKind int

const (
	// FailureExit means the program ran and exited non-zero.
	FailureExit FailureKind = iota + 1
	// FailureLaunch means the program could not be started at all.
	FailureLaunch
	// FailureTimeout means the stage exceeded its deadline and was killed.
	FailureTimeout
	// FailureCanceled means the run was interrupted while the stage ran.
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureExit:
		return "exit"
	case FailureLaunch:
		return "launch"
	case FailureTimeout:
		return "timeout"
	case FailureCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Failure is the exit indicator of an unsuccessful stage.
type Failure struct {
	Program  string
	Kind     FailureKind
	ExitCode int    // -1 when the program never exited on its own
	Output   string // full combined output
	Err      error  // underlying process error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureExit:
		return fmt.Sprintf("%s exited with status %d", f.Program, f.ExitCode)
	case FailureLaunch:
		return fmt.Sprintf("%s could not be started: %v", f.Program, f.Err)
	case FailureTimeout:
		return fmt.Sprintf("%s timed out", f.Program)
	case FailureCanceled:
		return fmt.Sprintf("%s was canceled", f.Program)
	default:
		return fmt.Sprintf("%s failed: %v", f.Program, f.Err)
	}
}

// Unwrap returns the underlying process error.
func (f *Failure) Unwrap() error { return f.Err }

// Is reports ErrStageFailed as a match.
func (f *Failure) Is(target error) bool { return target == ErrStageFailed }

// Result is the outcome of one stage invocation.
type Result struct {
	Output    string
	Succeeded bool
	Err       error // *Failure when !Succeeded
	Duration  time.Duration
}

// Success builds a successful Result.
func Success(output string) Result {
	return Result{Output: output, Succeeded: true}
}

// Failed builds an unsuccessful Result carrying f.
func Failed(f *Failure) Result {
	return Result{Output: f.Output, Succeeded: false, Err: f}
}

// Failure returns the typed exit indicator, if any.
func (r Result) Failure() (*Failure, bool) {
	var f *Failure
	if errors.As(r.Err, &f) {
		return f, true
	}
	return nil, false
}
