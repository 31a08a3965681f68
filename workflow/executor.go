package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/station"
)

// tracerName is the instrumentation scope name for executor tracing.
const tracerName = "github.com/janvanwassenhove/mity/workflow"

// Executor orchestrates a workflow run: it resolves stations from the
// registry, invokes them in order, persists the execution log after
// every attempt, and supports resuming a failed run from the exact
// point of failure.
//
// Execution within one run is strictly sequential. A station's full
// completion, including log persistence, is a precondition for
// starting the next, which is what makes the persisted log a faithful
// checkpoint. The Executor performs no implicit retries: every
// station-level failure stops the run, and retrying is always an
// explicit Resume.
type Executor struct {
	registry *station.Registry
	store    LogStore
	emitter  Emitter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(emitter Emitter) ExecutorOption {
	return func(e *Executor) { e.emitter = emitter }
}

// WithTracer sets the tracer used for per-station spans. When no
// TracerProvider is installed globally the default tracer is a noop.
func WithTracer(tracer trace.Tracer) ExecutorOption {
	return func(e *Executor) { e.tracer = tracer }
}

// NewExecutor creates an executor over the given registry and store.
func NewExecutor(registry *station.Registry, store LogStore, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		store:    store,
		emitter:  NopEmitter{},
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs a workflow from the first station against the given
// context. The returned log reflects exactly how far execution
// progressed, whether or not err is nil; on failure it has been
// persisted and can be fed back into Resume.
func (e *Executor) Execute(ctx context.Context, wf *Workflow, wc *mity.WorkflowContext) (*ExecutionLog, error) {
	lg := NewExecutionLog(wf.ID, wf.Name, wf.StationNames(), wc)
	if err := e.runFrom(ctx, lg, 0); err != nil {
		return lg, err
	}
	return lg, nil
}

// Resume continues a failed run. The station recorded at
// CurrentStationIndex is retried, not skipped. Resuming a log that is
// not failed (or whose index is out of range) returns an error
// wrapping mity.ErrInvalidState and leaves the log untouched.
func (e *Executor) Resume(ctx context.Context, lg *ExecutionLog) (*ExecutionLog, error) {
	if !lg.CanResume() {
		return lg, fmt.Errorf("workflow %s is not resumable (state=%s): %w",
			lg.WorkflowID, lg.State, mity.ErrInvalidState)
	}

	start := lg.CurrentStationIndex
	e.logger.Info("resuming workflow",
		slog.String("workflow", lg.WorkflowName),
		slog.String("station", lg.Stations[start]),
		slog.Int("index", start),
	)

	// Clear the error since we're retrying, and drop the failed
	// attempt's result entry so len(Results) <= len(Stations) still
	// holds after the retry records its own entry.
	lg.Error = ""
	failed := lg.Stations[start]
	for len(lg.Results) > 0 && lg.Results[len(lg.Results)-1].Station == failed {
		lg.Results = lg.Results[:len(lg.Results)-1]
	}

	if err := e.runFrom(ctx, lg, start); err != nil {
		return lg, err
	}
	return lg, nil
}

// runFrom executes stations from startIndex to the end of the
// workflow, persisting the log after every attempt before continuing.
// A process that restarts after any persisted write can resume from
// exactly the next unattempted station: a succeeded station is never
// silently re-run and a declared failure is never silently skipped.
func (e *Executor) runFrom(ctx context.Context, lg *ExecutionLog, startIndex int) error {
	runStart := time.Now()

	lg.State = StateRunning
	if lg.StartedAt == nil {
		now := time.Now().UTC()
		lg.StartedAt = &now
	}

	e.logger.Info("starting workflow",
		slog.String("workflow", lg.WorkflowName),
		slog.String("workflow_id", lg.WorkflowID),
	)
	e.emitter.EmitWorkflowStarted(ctx, lg)

	for i := startIndex; i < len(lg.Stations); i++ {
		name := lg.Stations[i]
		lg.CurrentStationIndex = i

		st, ok := e.registry.Get(name)
		if !ok {
			// A registry miss is structurally distinct from an
			// execution failure: no entry is appended to Results.
			missErr := fmt.Errorf("station %q: %w", name, mity.ErrStationNotFound)
			if saveErr := e.failRun(ctx, lg, missErr.Error()); saveErr != nil {
				return saveErr
			}
			e.emitter.EmitWorkflowFailed(ctx, lg, missErr)
			return missErr
		}

		if depErr := e.checkDependencies(lg, st); depErr != nil {
			if saveErr := e.failRun(ctx, lg, depErr.Error()); saveErr != nil {
				return saveErr
			}
			e.emitter.EmitWorkflowFailed(ctx, lg, depErr)
			return depErr
		}

		if cond, isCond := st.(station.Conditional); isCond && !cond.ShouldRun(lg.Context) {
			e.logger.Debug("skipping station", slog.String("station", name))
			res := station.NewSuccess(name).WithMessage("skipped")
			lg.Results = append(lg.Results, Entry{Station: name, Result: *res})
			if err := e.store.Save(ctx, lg); err != nil {
				return err
			}
			e.emitter.EmitStationSkipped(ctx, lg, name)
			continue
		}

		e.logger.Info("executing station",
			slog.String("station", name),
			slog.Int("index", i+1),
			slog.Int("total", len(lg.Stations)),
		)

		res, execErr := e.executeStation(ctx, lg, name, i, st)
		if execErr != nil {
			failure := station.NewFailure(name, execErr.Error())
			lg.Results = append(lg.Results, Entry{Station: name, Result: *failure})

			wrapped := fmt.Errorf("station %q: %w: %w", name, mity.ErrStationExecutionFailed, execErr)
			if saveErr := e.failRun(ctx, lg, wrapped.Error()); saveErr != nil {
				return saveErr
			}
			e.emitter.EmitStationFailed(ctx, lg, name, execErr)
			e.emitter.EmitWorkflowFailed(ctx, lg, wrapped)
			return wrapped
		}

		lg.Results = append(lg.Results, Entry{Station: name, Result: *res})

		// Persist after every attempt, success or declared failure,
		// before evaluating further.
		if err := e.store.Save(ctx, lg); err != nil {
			return err
		}

		if !res.Success {
			msg := res.Message
			if msg == "" {
				msg = "station failed"
			}
			wrapped := fmt.Errorf("station %q: %s: %w", name, msg, mity.ErrStationExecutionFailed)
			if saveErr := e.failRun(ctx, lg, msg); saveErr != nil {
				return saveErr
			}
			e.emitter.EmitStationFailed(ctx, lg, name, wrapped)
			e.emitter.EmitWorkflowFailed(ctx, lg, wrapped)
			return wrapped
		}

		e.logger.Info("station completed", slog.String("station", name))
		e.emitter.EmitStationCompleted(ctx, lg, name, res.CompletedAt.Sub(res.StartedAt))
	}

	lg.State = StateCompleted
	now := time.Now().UTC()
	lg.CompletedAt = &now
	if err := e.store.Save(ctx, lg); err != nil {
		return err
	}

	e.logger.Info("workflow completed", slog.String("workflow", lg.WorkflowName))
	e.emitter.EmitWorkflowCompleted(ctx, lg, time.Since(runStart))
	return nil
}

// executeStation invokes one station inside a tracing span. A station
// that returns neither a result nor an error is treated as a fault.
func (e *Executor) executeStation(ctx context.Context, lg *ExecutionLog, name string, index int, st station.Station) (*station.Result, error) {
	ctx, span := e.tracer.Start(ctx, "mity.station.execute",
		trace.WithAttributes(
			attribute.String("mity.workflow.id", lg.WorkflowID),
			attribute.String("mity.station", name),
			attribute.Int("mity.station.index", index),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	res, err := st.Execute(ctx, lg.Context)
	if err == nil && res == nil {
		err = fmt.Errorf("station %q returned no result", name)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if res.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, res.Message)
	}
	return res, nil
}

// checkDependencies evaluates a station's declared dependencies
// against prior recorded results. Only a recorded failed result
// blocks; a dependency with no recorded result does not.
func (e *Executor) checkDependencies(lg *ExecutionLog, st station.Station) error {
	dep, isDep := st.(station.Dependent)
	if !isDep {
		return nil
	}
	for _, name := range dep.Dependencies() {
		if res, ok := lg.Result(name); ok && !res.Success {
			return fmt.Errorf("dependency %q failed: %w", name, mity.ErrDependencyNotSatisfied)
		}
	}
	return nil
}

// failRun marks the log failed with the given message and persists it.
// Persistence errors are returned unchanged and take precedence over
// the failure being recorded.
func (e *Executor) failRun(ctx context.Context, lg *ExecutionLog, message string) error {
	e.logger.Error("workflow failed",
		slog.String("workflow", lg.WorkflowName),
		slog.String("error", message),
	)
	lg.State = StateFailed
	lg.Error = message
	now := time.Now().UTC()
	lg.CompletedAt = &now
	return e.store.Save(ctx, lg)
}
