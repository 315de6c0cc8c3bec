// Package pipeline sequences the LST product generation stages. Stages run
// one at a time in a fixed order and the run stops at the first failure;
// outputs already written by earlier stages are left in place.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/banshee-data/lst-products/internal/stage"
	"github.com/banshee-data/lst-products/internal/timeutil"
)

// State is the orchestrator's position in a run.
type State int

const (
	NotStarted State = iota
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the result of a whole run: Completed, or Failed at one stage.
type Outcome struct {
	State       State
	FailedStage string       // empty unless State == Failed
	Result      stage.Result // result of the failed stage
	Completed   []string     // names of stages that succeeded, in order
	Duration    time.Duration
}

// Err returns nil for a completed run and the failed stage's error otherwise.
func (o Outcome) Err() error {
	if o.State == Completed {
		return nil
	}
	if o.Result.Err != nil {
		return fmt.Errorf("stage %s: %w", o.FailedStage, o.Result.Err)
	}
	return fmt.Errorf("stage %s failed", o.FailedStage)
}

// Options tunes a run.
type Options struct {
	// StageTimeout bounds each stage when positive. Zero waits forever.
	StageTimeout time.Duration
}

// Orchestrator runs a fixed stage list through an Invoker.
type Orchestrator struct {
	stages  []Stage
	invoker Invoker
	logger  *slog.Logger
	opts    Options
	clock   timeutil.Clock

	mu    sync.Mutex
	state State
	index int
}

// New creates an Orchestrator over stages. A nil logger discards records.
func New(stages []Stage, invoker Invoker, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		stages:  stages,
		invoker: invoker,
		logger:  logger,
		opts:    opts,
		clock:   timeutil.RealClock{},
		index:   -1,
	}
}

// WithClock replaces the clock used to time the whole run.
func (o *Orchestrator) WithClock(c timeutil.Clock) *Orchestrator {
	if c != nil {
		o.clock = c
	}
	return o
}

// State returns the current state and, while Running or after Failed, the
// zero-based index of the current stage (-1 otherwise).
func (o *Orchestrator) State() (State, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, o.index
}

func (o *Orchestrator) setState(s State, index int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
	o.index = index
}

// Run executes every stage in order and stops at the first failure. It
// never panics on a stage failure; the failure is reported in the Outcome.
func (o *Orchestrator) Run(ctx context.Context) Outcome {
	start := o.clock.Now()
	o.logger.Info("pipeline started", "stages", len(o.stages))

	completed := make([]string, 0, len(o.stages))
	for i, s := range o.stages {
		o.setState(Running, i)
		log := o.logger.With("stage", s.Name(), "step", fmt.Sprintf("%d/%d", i+1, len(o.stages)))

		var res stage.Result
		if err := ctx.Err(); err != nil {
			res = stage.Failed(&stage.Failure{Program: s.Name(), Kind: stage.FailureCanceled, ExitCode: -1, Err: err})
		} else {
			if _, ok := s.Command(); !ok {
				log.Debug("stage runs no program; placeholder")
			}
			log.Info("stage started")
			res = o.runStage(ctx, s)
		}

		if !res.Succeeded {
			o.setState(Failed, i)
			o.logFailure(log, res)
			return Outcome{
				State:       Failed,
				FailedStage: s.Name(),
				Result:      res,
				Completed:   completed,
				Duration:    o.clock.Since(start),
			}
		}

		log.Info("stage completed", "duration", res.Duration)
		completed = append(completed, s.Name())
	}

	o.setState(Completed, -1)
	elapsed := o.clock.Since(start)
	o.logger.Info("pipeline completed", "stages", len(completed), "duration", elapsed)
	return Outcome{State: Completed, Completed: completed, Duration: elapsed}
}

func (o *Orchestrator) runStage(ctx context.Context, s Stage) stage.Result {
	var cancel context.CancelFunc
	if o.opts.StageTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, o.opts.StageTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()
	return s.Run(ctx, o.invoker)
}

func (o *Orchestrator) logFailure(log *slog.Logger, res stage.Result) {
	attrs := []any{"error", res.Err}
	if f, ok := res.Failure(); ok {
		attrs = append(attrs, "kind", f.Kind.String(), "exit_code", f.ExitCode)
	}
	if res.Output != "" {
		attrs = append(attrs, "output", res.Output)
	}
	log.Error("stage failed", attrs...)
}
