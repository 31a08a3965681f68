package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/station"
	"github.com/janvanwassenhove/mity/store/fs"
	"github.com/janvanwassenhove/mity/store/memory"
	"github.com/janvanwassenhove/mity/workflow"
)

// fakeStation is a configurable test station. failUntil makes the
// first N executions return execErr or a declared failure, after
// which it succeeds, simulating a transient fault fixed before
// resuming.
type fakeStation struct {
	name      string
	execErr   error
	declared  bool
	failUntil int
	deps      []string
	skip      bool
	calls     int
	output    string
}

func (s *fakeStation) Name() string        { return s.name }
func (s *fakeStation) Description() string { return "fake " + s.name }

func (s *fakeStation) Execute(_ context.Context, wc *mity.WorkflowContext) (*station.Result, error) {
	s.calls++
	if s.output != "" {
		if err := wc.SetOutput(s.name, s.output); err != nil {
			return nil, err
		}
	}
	if s.calls <= s.failUntil {
		if s.execErr != nil {
			return nil, s.execErr
		}
		if s.declared {
			return station.NewFailure(s.name, "declared failure"), nil
		}
	}
	return station.NewSuccess(s.name), nil
}

type skippingStation struct {
	fakeStation
}

func (s *skippingStation) ShouldRun(_ *mity.WorkflowContext) bool { return !s.skip }

type dependentStation struct {
	fakeStation
}

func (s *dependentStation) Dependencies() []string { return s.deps }

func newTestContext(t *testing.T) *mity.WorkflowContext {
	t.Helper()
	return mity.NewWorkflowContext(t.TempDir(), "testapp", mity.StackPythonFastAPI)
}

func threeStationWorkflow() *workflow.Workflow {
	return workflow.New("create-app", "Create App").
		Station("scaffold").
		Station("validate").
		Station("commit")
}

func TestExecuteAllStationsSucceed(t *testing.T) {
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(&fakeStation{name: "validate"})
	reg.Register(&fakeStation{name: "commit"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, err := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if lg.State != workflow.StateCompleted {
		t.Errorf("state = %q, want %q", lg.State, workflow.StateCompleted)
	}
	if len(lg.Results) != 3 {
		t.Errorf("results = %d, want 3", len(lg.Results))
	}
	if lg.Error != "" {
		t.Errorf("error = %q, want empty", lg.Error)
	}
	if lg.StartedAt == nil || lg.CompletedAt == nil {
		t.Error("timestamps not set")
	}
	// One save per station attempt plus the final completion save.
	if got := store.SaveCount("create-app"); got != 4 {
		t.Errorf("saves = %d, want 4", got)
	}
}

func TestExecuteStationFaultStopsRun(t *testing.T) {
	boom := errors.New("template render failed")
	commit := &fakeStation{name: "commit"}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(&fakeStation{name: "validate", execErr: boom, failUntil: 1})
	reg.Register(commit)
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, err := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if !errors.Is(err, mity.ErrStationExecutionFailed) {
		t.Fatalf("err = %v, want ErrStationExecutionFailed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped cause", err)
	}

	if lg.State != workflow.StateFailed {
		t.Errorf("state = %q, want %q", lg.State, workflow.StateFailed)
	}
	if lg.CurrentStationIndex != 1 {
		t.Errorf("index = %d, want 1", lg.CurrentStationIndex)
	}
	if got := lg.FailedStation(); got != "validate" {
		t.Errorf("FailedStation() = %q, want %q", got, "validate")
	}
	if !lg.CanResume() {
		t.Error("CanResume() = false")
	}
	if lg.Error == "" {
		t.Error("error not recorded")
	}
	if lg.CompletedAt == nil {
		t.Error("CompletedAt not set on failure")
	}
	// Scaffold success entry plus the failed validate attempt.
	if len(lg.Results) != 2 {
		t.Errorf("results = %d, want 2", len(lg.Results))
	}
	if commit.calls != 0 {
		t.Errorf("commit executed %d times after failure", commit.calls)
	}

	// The failure made it to the durable copy.
	persisted, loadErr := store.Load(context.Background(), "create-app")
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if persisted.State != workflow.StateFailed {
		t.Errorf("persisted state = %q", persisted.State)
	}
}

func TestExecuteDeclaredFailureStopsRun(t *testing.T) {
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(&fakeStation{name: "validate", declared: true, failUntil: 1})
	reg.Register(&fakeStation{name: "commit"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, err := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if !errors.Is(err, mity.ErrStationExecutionFailed) {
		t.Fatalf("err = %v, want ErrStationExecutionFailed", err)
	}

	res, ok := lg.Result("validate")
	if !ok || res.Success {
		t.Error("failed result not recorded")
	}
	if res.Message != "declared failure" {
		t.Errorf("message = %q", res.Message)
	}
	if !lg.CanResume() {
		t.Error("CanResume() = false")
	}
}

func TestExecuteUnregisteredStation(t *testing.T) {
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	// validate is never registered.
	reg.Register(&fakeStation{name: "commit"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, err := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if !errors.Is(err, mity.ErrStationNotFound) {
		t.Fatalf("err = %v, want ErrStationNotFound", err)
	}

	if lg.State != workflow.StateFailed {
		t.Errorf("state = %q, want %q", lg.State, workflow.StateFailed)
	}
	// A registry miss records no result entry for the missing station.
	if len(lg.Results) != 1 {
		t.Errorf("results = %d, want 1", len(lg.Results))
	}
	if lg.Error == "" {
		t.Error("error not recorded")
	}
	if lg.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
}

func TestResumeRetriesFailedStation(t *testing.T) {
	validate := &fakeStation{name: "validate", execErr: errors.New("flaky"), failUntil: 1}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(validate)
	reg.Register(&fakeStation{name: "commit"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, err := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if err == nil {
		t.Fatal("Execute succeeded, want failure")
	}

	lg, err = exec.Resume(context.Background(), lg)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if lg.State != workflow.StateCompleted {
		t.Errorf("state = %q, want %q", lg.State, workflow.StateCompleted)
	}
	if lg.Error != "" {
		t.Errorf("error = %q, want cleared", lg.Error)
	}
	// The failed attempt's entry was replaced, not accumulated.
	if len(lg.Results) != 3 {
		t.Errorf("results = %d, want 3", len(lg.Results))
	}
	res, _ := lg.Result("validate")
	if !res.Success {
		t.Error("retried result not successful")
	}
	// Exactly one retry: the failing attempt plus the resumed one.
	if validate.calls != 2 {
		t.Errorf("validate executed %d times, want 2", validate.calls)
	}
}

func TestResumeDoesNotRerunEarlierStations(t *testing.T) {
	scaffold := &fakeStation{name: "scaffold", output: "scaffold-done"}
	reg := station.NewRegistry()
	reg.Register(scaffold)
	reg.Register(&fakeStation{name: "validate", declared: true, failUntil: 1})
	reg.Register(&fakeStation{name: "commit"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, _ := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if _, err := exec.Resume(context.Background(), lg); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if scaffold.calls != 1 {
		t.Errorf("scaffold executed %d times, want 1", scaffold.calls)
	}
	// Context outputs from before the failure survive the resume.
	var out string
	if !lg.Context.GetOutput("scaffold", &out) || out != "scaffold-done" {
		t.Errorf("scaffold output = %q", out)
	}
}

func TestResumeNonFailedLog(t *testing.T) {
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	wf := workflow.New("single", "Single").Station("scaffold")
	lg, err := exec.Execute(context.Background(), wf, newTestContext(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	before := len(lg.Results)
	_, err = exec.Resume(context.Background(), lg)
	if !errors.Is(err, mity.ErrInvalidState) {
		t.Fatalf("err = %v, want ErrInvalidState", err)
	}
	if lg.State != workflow.StateCompleted || len(lg.Results) != before {
		t.Error("rejected resume mutated the log")
	}
}

func TestDependencyOnRecordedFailureBlocks(t *testing.T) {
	deploy := &dependentStation{fakeStation{name: "deploy", deps: []string{"tests"}}}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "tests", declared: true, failUntil: 999})
	reg.Register(deploy)
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	// Construct a failed log positioned at deploy with a recorded
	// failed tests result, as a store crash-recovery path would.
	lg := workflow.NewExecutionLog("release", "Release", []string{"tests", "deploy"}, newTestContext(t))
	lg.State = workflow.StateFailed
	lg.CurrentStationIndex = 1
	lg.Results = append(lg.Results, workflow.Entry{
		Station: "tests",
		Result:  *station.NewFailure("tests", "unit tests failed"),
	})

	_, err := exec.Resume(context.Background(), lg)
	if !errors.Is(err, mity.ErrDependencyNotSatisfied) {
		t.Fatalf("err = %v, want ErrDependencyNotSatisfied", err)
	}
	if deploy.calls != 0 {
		t.Errorf("deploy executed %d times", deploy.calls)
	}
}

func TestDependencyWithoutRecordedResultDoesNotBlock(t *testing.T) {
	// commit depends on a station that is not part of this workflow;
	// with no recorded failure the dependency does not block.
	commit := &dependentStation{fakeStation{name: "commit", deps: []string{"review"}}}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(commit)
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	wf := workflow.New("quick", "Quick").Station("scaffold").Station("commit")
	lg, err := exec.Execute(context.Background(), wf, newTestContext(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if lg.State != workflow.StateCompleted {
		t.Errorf("state = %q", lg.State)
	}
}

func TestConditionalSkipRecordsEntry(t *testing.T) {
	skipped := &skippingStation{fakeStation{name: "validate", skip: true}}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(skipped)
	reg.Register(&fakeStation{name: "commit"})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	lg, err := exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if skipped.calls != 0 {
		t.Errorf("skipped station executed %d times", skipped.calls)
	}
	res, ok := lg.Result("validate")
	if !ok {
		t.Fatal("skip did not record an entry")
	}
	if !res.Success || res.Message != "skipped" {
		t.Errorf("skip entry = success %v, message %q", res.Success, res.Message)
	}
	if len(lg.Results) != 3 {
		t.Errorf("results = %d, want 3", len(lg.Results))
	}
}

type brokenStore struct {
	err error
}

func (s *brokenStore) Save(context.Context, *workflow.ExecutionLog) error { return s.err }
func (s *brokenStore) Load(context.Context, string) (*workflow.ExecutionLog, error) {
	return nil, s.err
}
func (s *brokenStore) Exists(context.Context, string) (bool, error) { return false, s.err }
func (s *brokenStore) Delete(context.Context, string) error         { return s.err }

func TestPersistenceErrorPropagatesUnchanged(t *testing.T) {
	diskFull := errors.New("disk full")
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	exec := workflow.NewExecutor(reg, &brokenStore{err: diskFull})

	wf := workflow.New("single", "Single").Station("scaffold")
	_, err := exec.Execute(context.Background(), wf, newTestContext(t))
	if !errors.Is(err, diskFull) {
		t.Fatalf("err = %v, want store error", err)
	}
	if errors.Is(err, mity.ErrStationExecutionFailed) {
		t.Error("store error wrapped as an execution failure")
	}
}

func TestNilResultNilErrorIsFault(t *testing.T) {
	reg := station.NewRegistry()
	reg.RegisterAs("broken", nilStation{})
	store := memory.New()
	exec := workflow.NewExecutor(reg, store)

	wf := workflow.New("broken-wf", "Broken").Station("broken")
	lg, err := exec.Execute(context.Background(), wf, newTestContext(t))
	if !errors.Is(err, mity.ErrStationExecutionFailed) {
		t.Fatalf("err = %v, want ErrStationExecutionFailed", err)
	}
	if lg.State != workflow.StateFailed {
		t.Errorf("state = %q", lg.State)
	}
}

type nilStation struct{}

func (nilStation) Name() string        { return "broken" }
func (nilStation) Description() string { return "returns nothing" }
func (nilStation) Execute(context.Context, *mity.WorkflowContext) (*station.Result, error) {
	return nil, nil
}

// Crash recovery: fail with a durable store, reload the log from disk
// in a fresh executor, and resume to completion.
func TestCrashRecoveryViaFileStore(t *testing.T) {
	workspace := t.TempDir()
	validate := &fakeStation{name: "validate", execErr: errors.New("transient"), failUntil: 1}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(validate)
	reg.Register(&fakeStation{name: "commit"})

	store := fs.New(workspace)
	exec := workflow.NewExecutor(reg, store)
	wc := mity.NewWorkflowContext(workspace, "testapp", mity.StackRustAPI)

	if _, err := exec.Execute(context.Background(), threeStationWorkflow(), wc); err == nil {
		t.Fatal("Execute succeeded, want failure")
	}

	// Simulate a process restart: fresh executor, log loaded from disk.
	store2 := fs.New(workspace)
	exec2 := workflow.NewExecutor(reg, store2)
	lg, err := store2.Load(context.Background(), "create-app")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !lg.CanResume() {
		t.Fatal("reloaded log not resumable")
	}

	lg, err = exec2.Resume(context.Background(), lg)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if lg.State != workflow.StateCompleted {
		t.Errorf("state = %q, want %q", lg.State, workflow.StateCompleted)
	}
}

// recordingEmitter captures lifecycle events in order.
type recordingEmitter struct {
	events []string
}

func (r *recordingEmitter) EmitWorkflowStarted(_ context.Context, lg *workflow.ExecutionLog) {
	r.events = append(r.events, "workflow_started")
}

func (r *recordingEmitter) EmitWorkflowCompleted(_ context.Context, _ *workflow.ExecutionLog, _ time.Duration) {
	r.events = append(r.events, "workflow_completed")
}

func (r *recordingEmitter) EmitWorkflowFailed(_ context.Context, _ *workflow.ExecutionLog, _ error) {
	r.events = append(r.events, "workflow_failed")
}

func (r *recordingEmitter) EmitStationCompleted(_ context.Context, _ *workflow.ExecutionLog, name string, _ time.Duration) {
	r.events = append(r.events, "station_completed:"+name)
}

func (r *recordingEmitter) EmitStationFailed(_ context.Context, _ *workflow.ExecutionLog, name string, _ error) {
	r.events = append(r.events, "station_failed:"+name)
}

func (r *recordingEmitter) EmitStationSkipped(_ context.Context, _ *workflow.ExecutionLog, name string) {
	r.events = append(r.events, "station_skipped:"+name)
}

func TestEmitterReceivesLifecycleEvents(t *testing.T) {
	emitter := &recordingEmitter{}
	reg := station.NewRegistry()
	reg.Register(&fakeStation{name: "scaffold"})
	reg.Register(&fakeStation{name: "validate", declared: true, failUntil: 1})
	reg.Register(&fakeStation{name: "commit"})
	exec := workflow.NewExecutor(reg, memory.New(), workflow.WithEmitter(emitter))

	_, _ = exec.Execute(context.Background(), threeStationWorkflow(), newTestContext(t))

	want := []string{
		"workflow_started",
		"station_completed:scaffold",
		"station_failed:validate",
		"workflow_failed",
	}
	if fmt.Sprint(emitter.events) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", emitter.events, want)
	}
}
