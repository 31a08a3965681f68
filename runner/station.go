package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/station"
)

// CommandStation adapts a single Runner invocation into a station.
// A runner-level error is an execution fault; a non-zero exit code is
// a declared station failure carrying the command's stderr.
type CommandStation struct {
	name        string
	description string
	spec        Spec
	runner      Runner
}

var _ station.Station = (*CommandStation)(nil)

// NewCommandStation creates a station that runs spec via r.
func NewCommandStation(name string, spec Spec, r Runner) *CommandStation {
	return &CommandStation{
		name:   name,
		spec:   spec,
		runner: r,
	}
}

// WithDescription sets the station description.
func (s *CommandStation) WithDescription(desc string) *CommandStation {
	s.description = desc
	return s
}

func (s *CommandStation) Name() string { return s.name }

func (s *CommandStation) Description() string {
	if s.description != "" {
		return s.description
	}
	return fmt.Sprintf("runs %q", strings.Join(s.spec.Command, " "))
}

func (s *CommandStation) Execute(ctx context.Context, wc *mity.WorkflowContext) (*station.Result, error) {
	spec := s.spec
	if spec.WorkingDir == "" {
		spec.WorkingDir = wc.OutputPath
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	runRes, err := s.runner.Run(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", strings.Join(spec.Command, " "), err)
	}

	if !runRes.OK() {
		msg := strings.TrimSpace(runRes.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("exit code %d", runRes.ExitCode)
		}
		res := station.NewFailure(s.name, msg)
		if runRes.Stdout != "" {
			res = res.WithLog(station.InfoLog(runRes.Stdout))
		}
		return res, nil
	}

	res := station.NewSuccess(s.name).
		WithMessage(fmt.Sprintf("completed in %s", runRes.Duration))
	if runRes.Stdout != "" {
		res = res.WithLog(station.InfoLog(runRes.Stdout))
	}
	return res, nil
}
