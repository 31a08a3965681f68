// Package engine provides the legacy fixed-pipeline execution engine.
//
// It predates the string-keyed workflow executor: stations are
// identified by the fixed SDLC Stage enum, dependencies are checked
// against in-memory results, and nothing is persisted, so a failed
// pipeline cannot be resumed. Kept for backward compatibility; new
// code should use the workflow package.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/station"
)

// Station is the legacy station contract keyed by the fixed Stage
// enum rather than a free-form name.
type Station interface {
	ID() station.Stage
	Description() string
	Execute(ctx context.Context, wc *mity.WorkflowContext) (*station.Result, error)
}

// Dependent is implemented by legacy stations that require earlier
// stages to have succeeded.
type Dependent interface {
	Dependencies() []station.Stage
}

// Conditional is implemented by legacy stations that may be skipped.
type Conditional interface {
	ShouldRun(wc *mity.WorkflowContext) bool
}

// State is the lifecycle state of a legacy pipeline run.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Workflow is a legacy pipeline: a fixed ordered list of SDLC stages
// with in-memory results. Unlike workflow.ExecutionLog it is never
// persisted.
type Workflow struct {
	ID             uuid.UUID                        `json:"id"`
	Name           string                           `json:"name"`
	Description    string                           `json:"description,omitempty"`
	Stations       []station.Stage                  `json:"stations"`
	State          State                            `json:"state"`
	CreatedAt      time.Time                        `json:"created_at"`
	StartedAt      *time.Time                       `json:"started_at,omitempty"`
	CompletedAt    *time.Time                       `json:"completed_at,omitempty"`
	StationResults map[station.Stage]station.Result `json:"station_results"`
	CurrentStation *station.Stage                   `json:"current_station,omitempty"`
	Metadata       map[string]json.RawMessage       `json:"metadata"`
}

// NewWorkflow creates a pending legacy pipeline over the given stages.
func NewWorkflow(name string, stations []station.Stage) *Workflow {
	return &Workflow{
		ID:             uuid.New(),
		Name:           name,
		Stations:       stations,
		State:          StatePending,
		CreatedAt:      time.Now().UTC(),
		StationResults: make(map[station.Stage]station.Result),
		Metadata:       make(map[string]json.RawMessage),
	}
}

// IsTerminal reports whether the pipeline reached a final state.
func (w *Workflow) IsTerminal() bool {
	return w.State == StateCompleted || w.State == StateFailed || w.State == StateCancelled
}

// NextStation returns the first stage with no recorded result.
func (w *Workflow) NextStation() (station.Stage, bool) {
	for _, s := range w.Stations {
		if _, ok := w.StationResults[s]; !ok {
			return s, true
		}
	}
	return "", false
}

// AllSucceeded reports whether every stage recorded a successful
// result.
func (w *Workflow) AllSucceeded() bool {
	for _, s := range w.Stations {
		res, ok := w.StationResults[s]
		if !ok || !res.Success {
			return false
		}
	}
	return true
}

// clone returns a copy safe to hand to external observers.
func (w *Workflow) clone() *Workflow {
	cp := *w
	cp.Stations = append([]station.Stage(nil), w.Stations...)
	cp.StationResults = make(map[station.Stage]station.Result, len(w.StationResults))
	for k, v := range w.StationResults {
		cp.StationResults[k] = v
	}
	cp.Metadata = make(map[string]json.RawMessage, len(w.Metadata))
	for k, v := range w.Metadata {
		cp.Metadata[k] = v
	}
	if w.CurrentStation != nil {
		cur := *w.CurrentStation
		cp.CurrentStation = &cur
	}
	return &cp
}

// Engine executes legacy pipelines. Stations are registered per
// engine; active pipelines are tracked in memory for observers.
type Engine struct {
	mu       sync.RWMutex
	stations map[station.Stage]Station
	active   map[uuid.UUID]*Workflow
	logger   *slog.Logger
}

// New creates an empty legacy engine.
func New() *Engine {
	return &Engine{
		stations: make(map[station.Stage]Station),
		active:   make(map[uuid.UUID]*Workflow),
		logger:   slog.Default(),
	}
}

// WithLogger sets the engine's logger.
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// RegisterStation adds a legacy station keyed by its stage.
func (e *Engine) RegisterStation(s Station) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logger.Debug("registering station", slog.String("stage", s.ID().String()))
	e.stations[s.ID()] = s
}

// Execute runs a legacy pipeline to completion or first failure.
//
// Behavior preserved from the historical engine: an unregistered stage
// is skipped with a warning rather than failing the run, a recorded
// failed dependency aborts with ErrDependencyNotSatisfied, and a
// declared station failure stops the run without returning an error —
// the caller inspects the returned workflow state.
func (e *Engine) Execute(ctx context.Context, wf *Workflow, wc *mity.WorkflowContext) (*Workflow, error) {
	e.logger.Info("starting pipeline",
		slog.String("workflow", wf.Name),
		slog.String("workflow_id", wf.ID.String()),
	)

	wf.State = StateRunning
	now := time.Now().UTC()
	wf.StartedAt = &now
	e.storeWorkflow(wf)

	for _, stage := range wf.Stations {
		cur := stage
		wf.CurrentStation = &cur

		if e.isCancelled(wf.ID) {
			// Cancellation is observed only between stations; an
			// executing station is never interrupted.
			wf.State = StateCancelled
			completed := time.Now().UTC()
			wf.CompletedAt = &completed
			e.storeWorkflow(wf)
			return wf, nil
		}

		st, ok := e.getStation(stage)
		if !ok {
			e.logger.Warn("station not registered, skipping", slog.String("stage", stage.String()))
			continue
		}

		if dep, isDep := st.(Dependent); isDep {
			for _, d := range dep.Dependencies() {
				if res, recorded := wf.StationResults[d]; recorded && !res.Success {
					e.logger.Error("dependency failed",
						slog.String("stage", stage.String()),
						slog.String("dependency", d.String()),
					)
					e.finish(wf, StateFailed)
					return wf, fmt.Errorf("stage %q requires %q: %w",
						stage, d, mity.ErrDependencyNotSatisfied)
				}
			}
		}

		if cond, isCond := st.(Conditional); isCond && !cond.ShouldRun(wc) {
			e.logger.Debug("station skipped", slog.String("stage", stage.String()))
			continue
		}

		e.logger.Info("executing station", slog.String("stage", stage.String()))

		res, err := st.Execute(ctx, wc)
		if err != nil {
			e.logger.Error("station execution error",
				slog.String("stage", stage.String()),
				slog.String("error", err.Error()),
			)
			e.finish(wf, StateFailed)
			return wf, fmt.Errorf("stage %q: %w: %w", stage, mity.ErrStationExecutionFailed, err)
		}

		wf.StationResults[stage] = *res
		if !res.Success {
			e.logger.Error("station failed", slog.String("stage", stage.String()))
			e.finish(wf, StateFailed)
			return wf, nil
		}

		e.logger.Info("station completed", slog.String("stage", stage.String()))
	}

	wf.CurrentStation = nil
	e.finish(wf, StateCompleted)
	e.logger.Info("pipeline completed", slog.String("workflow", wf.Name))
	return wf, nil
}

// Workflow returns a snapshot of a tracked pipeline.
func (e *Engine) Workflow(workflowID uuid.UUID) (*Workflow, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wf, ok := e.active[workflowID]
	if !ok {
		return nil, false
	}
	return wf.clone(), true
}

// Cancel marks a running pipeline cancelled.
//
// Known limitation, preserved from the historical engine: Cancel only
// flips the status flag for external observers and takes effect
// between stations. It does not interrupt a station that is already
// executing.
func (e *Engine) Cancel(workflowID uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	wf, ok := e.active[workflowID]
	if !ok {
		return fmt.Errorf("workflow %s: %w", workflowID, mity.ErrWorkflowNotFound)
	}
	if wf.State == StateRunning {
		wf.State = StateCancelled
		now := time.Now().UTC()
		wf.CompletedAt = &now
		e.logger.Info("pipeline cancelled", slog.String("workflow_id", workflowID.String()))
	}
	return nil
}

func (e *Engine) getStation(stage station.Stage) (Station, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.stations[stage]
	return s, ok
}

func (e *Engine) storeWorkflow(wf *Workflow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active[wf.ID] = wf.clone()
}

func (e *Engine) isCancelled(workflowID uuid.UUID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	wf, ok := e.active[workflowID]
	return ok && wf.State == StateCancelled
}

func (e *Engine) finish(wf *Workflow, state State) {
	wf.State = state
	now := time.Now().UTC()
	wf.CompletedAt = &now
	e.storeWorkflow(wf)
}
