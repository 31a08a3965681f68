package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/runner"
)

func newTestContext(t *testing.T) *mity.WorkflowContext {
	t.Helper()
	return mity.NewWorkflowContext(t.TempDir(), "testapp", mity.StackRustAPI)
}

func TestMockScriptsInOrder(t *testing.T) {
	m := runner.NewMock().
		Script(runner.Result{ExitCode: 0, Stdout: "first"}).
		Script(runner.Result{ExitCode: 2, Stderr: "second"})

	r1, err := m.Run(context.Background(), runner.Spec{Command: []string{"make", "build"}})
	require.NoError(t, err)
	assert.Equal(t, "first", r1.Stdout)
	assert.True(t, r1.OK())

	r2, err := m.Run(context.Background(), runner.Spec{Command: []string{"make", "test"}})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.ExitCode)
	assert.False(t, r2.OK())

	// Exhausted script yields the zero result.
	r3, err := m.Run(context.Background(), runner.Spec{Command: []string{"make", "lint"}})
	require.NoError(t, err)
	assert.True(t, r3.OK())

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, []string{"make", "build"}, calls[0].Command)
	assert.Equal(t, []string{"make", "test"}, calls[1].Command)
}

func TestCommandStationSuccess(t *testing.T) {
	m := runner.NewMock().Script(runner.Result{
		ExitCode: 0,
		Stdout:   "all tests passed",
		Duration: 3 * time.Second,
	})
	st := runner.NewCommandStation("test", runner.Spec{
		Image:   "golang:1.23",
		Command: []string{"go", "test", "./..."},
	}, m)

	res, err := st.Execute(context.Background(), newTestContext(t))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "test", res.StationID)
	require.Len(t, res.Logs, 1)
	assert.Equal(t, "all tests passed", res.Logs[0].Message)
}

func TestCommandStationNonZeroExitIsDeclaredFailure(t *testing.T) {
	m := runner.NewMock().Script(runner.Result{
		ExitCode: 1,
		Stderr:   "FAIL: TestParse",
	})
	st := runner.NewCommandStation("test", runner.Spec{
		Command: []string{"go", "test", "./..."},
	}, m)

	res, err := st.Execute(context.Background(), newTestContext(t))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "FAIL: TestParse", res.Message)
}

func TestCommandStationRunnerErrorIsFault(t *testing.T) {
	boom := errors.New("image pull failed")
	m := runner.NewMock().ScriptError(boom)
	st := runner.NewCommandStation("build", runner.Spec{
		Command: []string{"make"},
	}, m)

	res, err := st.Execute(context.Background(), newTestContext(t))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
}

func TestCommandStationDefaultsWorkingDir(t *testing.T) {
	m := runner.NewMock()
	wc := newTestContext(t)
	st := runner.NewCommandStation("build", runner.Spec{
		Command: []string{"make"},
	}, m)

	_, err := st.Execute(context.Background(), wc)
	require.NoError(t, err)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, wc.OutputPath, calls[0].WorkingDir)
}

func TestCommandStationDescription(t *testing.T) {
	st := runner.NewCommandStation("lint", runner.Spec{
		Command: []string{"golangci-lint", "run"},
	}, runner.NewMock())
	assert.Contains(t, st.Description(), "golangci-lint run")

	st = st.WithDescription("runs the linter")
	assert.Equal(t, "runs the linter", st.Description())
}
