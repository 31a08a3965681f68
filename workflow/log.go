package workflow

import (
	"time"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/station"
)

// State is the lifecycle state of a workflow run.
//
// State is monotonic: once Completed or Cancelled the log is terminal
// and no further mutation occurs. Failed is the only state from which
// forward progress (Resume) is possible.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Entry pairs a station name with the result of one attempt.
type Entry struct {
	Station string         `json:"station"`
	Result  station.Result `json:"result"`
}

// ExecutionLog is the persisted, resumable record of one workflow
// run's progress. It is created at the start of Execute, mutated
// in place station by station, and persisted after every attempt, so
// the durable copy is never more than one station-attempt stale
// relative to memory.
//
// Invariants: len(Results) <= len(Stations), and CurrentStationIndex
// always equals the index of the most recently attempted station (not
// necessarily succeeded).
type ExecutionLog struct {
	WorkflowID   string `json:"workflow_id"`
	WorkflowName string `json:"workflow_name"`
	State        State  `json:"state"`
	// CurrentStationIndex is the index of the current/last station
	// attempted.
	CurrentStationIndex int `json:"current_station_index"`
	// Stations is the ordered list of station names in the workflow.
	Stations []string `json:"stations"`
	// Results holds the outcome of each attempted station.
	Results     []Entry    `json:"results"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// Error holds the failure message when State is failed.
	Error string `json:"error,omitempty"`
	// Context is the workflow context snapshot, persisted with the
	// log so a resumed run sees every output earlier stations set.
	Context *mity.WorkflowContext `json:"context"`
}

// NewExecutionLog creates a pending log for the given workflow and
// context.
func NewExecutionLog(workflowID, workflowName string, stations []string, wc *mity.WorkflowContext) *ExecutionLog {
	return &ExecutionLog{
		WorkflowID:   workflowID,
		WorkflowName: workflowName,
		State:        StatePending,
		Stations:     stations,
		Results:      []Entry{},
		Context:      wc,
	}
}

// CanResume reports whether the run can be resumed: it failed and the
// failed station index is still in range.
func (l *ExecutionLog) CanResume() bool {
	return l.State == StateFailed && l.CurrentStationIndex < len(l.Stations)
}

// FailedStation returns the name of the station the run failed at, or
// "" when the run is not failed.
func (l *ExecutionLog) FailedStation() string {
	if l.State != StateFailed {
		return ""
	}
	if l.CurrentStationIndex >= len(l.Stations) {
		return ""
	}
	return l.Stations[l.CurrentStationIndex]
}

// IsTerminal reports whether the log reached a state that permits no
// further mutation.
func (l *ExecutionLog) IsTerminal() bool {
	return l.State == StateCompleted || l.State == StateCancelled
}

// Result returns the recorded result for the named station and whether
// one exists. When a station was attempted more than once (resume),
// the most recent attempt wins.
func (l *ExecutionLog) Result(stationName string) (station.Result, bool) {
	for i := len(l.Results) - 1; i >= 0; i-- {
		if l.Results[i].Station == stationName {
			return l.Results[i].Result, true
		}
	}
	return station.Result{}, false
}
