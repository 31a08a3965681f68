// Package runner defines the boundary to the command-execution
// backend that stations delegate real work to.
//
// The engine never runs build or test commands itself; a Runner
// implementation (container backed in production) does. This package
// carries the contract, a scripted Mock for tests, and an adapter
// that exposes a single command as a station.
package runner

import (
	"context"
	"time"
)

// Spec describes a single command invocation.
type Spec struct {
	// Image names the container image the command runs in. Empty
	// means the backend's default environment.
	Image      string            `json:"image,omitempty"`
	Command    []string          `json:"command"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	Timeout    time.Duration     `json:"timeout,omitempty"`
}

// Result captures the observable outcome of a command.
type Result struct {
	ExitCode int           `json:"exit_code"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	Duration time.Duration `json:"duration"`
}

// OK reports whether the command exited zero.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Runner executes command specs. An error return means the command
// could not be run at all; a non-zero exit code is reported through
// the Result.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}
