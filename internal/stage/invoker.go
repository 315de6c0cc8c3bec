package stage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/banshee-data/lst-products/internal/timeutil"
)

// exitCoder is satisfied by *exec.ExitError and MockExitError.
type exitCoder interface {
	ExitCode() int
}

// Invoker runs stage programs through a CommandBuilder and logs their output.
type Invoker struct {
	builder CommandBuilder
	logger  *slog.Logger
	clock   timeutil.Clock
}

// NewInvoker creates an Invoker. A nil builder uses the real process
// builder; a nil logger discards output.
func NewInvoker(builder CommandBuilder, logger *slog.Logger) *Invoker {
	if builder == nil {
		builder = NewRealCommandBuilder()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{
		builder: builder,
		logger:  logger,
		clock:   timeutil.RealClock{},
	}
}

// WithClock replaces the clock used to time invocations.
func (inv *Invoker) WithClock(c timeutil.Clock) *Invoker {
	if c != nil {
		inv.clock = c
	}
	return inv
}

// Invoke runs spec to completion and returns its Result. Captured output is
// logged at info level whenever it is non-empty, including on failure.
func (inv *Invoker) Invoke(ctx context.Context, spec Spec) Result {
	argv := spec.Argv()
	inv.logger.Info("stage command", "program", spec.Program, "command", spec.String())

	start := inv.clock.Now()
	out, err := inv.builder.BuildCommand(ctx, argv[0], argv[1:]...).Run()
	elapsed := inv.clock.Since(start)

	output := string(out)
	if len(output) > 0 {
		inv.logger.Info("stage output", "program", spec.Program, "output", output)
	}

	var res Result
	if err == nil {
		res = Success(output)
	} else {
		res = Failed(classify(ctx, spec.Program, output, err))
	}
	res.Duration = elapsed
	return res
}

// classify maps a process error onto a Failure. Context errors win over the
// exit status because a killed child reports -1.
func classify(ctx context.Context, program, output string, err error) *Failure {
	f := &Failure{Program: program, ExitCode: -1, Output: output, Err: err}

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		f.Kind = FailureTimeout
		return f
	case errors.Is(ctxErr, context.Canceled):
		f.Kind = FailureCanceled
		return f
	}

	var ec exitCoder
	if errors.As(err, &ec) && ec.ExitCode() >= 0 {
		f.Kind = FailureExit
		f.ExitCode = ec.ExitCode()
		return f
	}

	f.Kind = FailureLaunch
	return f
}
