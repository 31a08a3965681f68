package workflow

import (
	"context"
	"time"
)

// Emitter receives workflow and station lifecycle notifications from
// the executor. Implementations must not block; the executor calls
// them synchronously between station attempts.
type Emitter interface {
	EmitWorkflowStarted(ctx context.Context, log *ExecutionLog)
	EmitWorkflowCompleted(ctx context.Context, log *ExecutionLog, elapsed time.Duration)
	EmitWorkflowFailed(ctx context.Context, log *ExecutionLog, err error)

	EmitStationCompleted(ctx context.Context, log *ExecutionLog, stationName string, elapsed time.Duration)
	EmitStationFailed(ctx context.Context, log *ExecutionLog, stationName string, err error)
	EmitStationSkipped(ctx context.Context, log *ExecutionLog, stationName string)
}

// NopEmitter is an Emitter that ignores every event.
type NopEmitter struct{}

func (NopEmitter) EmitWorkflowStarted(context.Context, *ExecutionLog)                  {}
func (NopEmitter) EmitWorkflowCompleted(context.Context, *ExecutionLog, time.Duration) {}
func (NopEmitter) EmitWorkflowFailed(context.Context, *ExecutionLog, error)            {}
func (NopEmitter) EmitStationCompleted(context.Context, *ExecutionLog, string, time.Duration) {
}
func (NopEmitter) EmitStationFailed(context.Context, *ExecutionLog, string, error) {}
func (NopEmitter) EmitStationSkipped(context.Context, *ExecutionLog, string)       {}
