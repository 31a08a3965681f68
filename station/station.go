// Package station defines the contract every unit of work implements,
// the result and artifact types stations produce, and the name-keyed
// registry the workflow executor resolves stations from.
package station

import (
	"context"

	"github.com/janvanwassenhove/mity"
)

// Station is a single named, pluggable unit of work.
//
// Execute is the only side-effecting operation; it may perform blocking
// I/O such as waiting on a containerized process. Returning an error
// signals an execution-time fault. Returning a Result with
// Success == false signals a declared business failure. The executor
// treats both as run-terminating.
//
// Stations own no persistent state of their own and must be safe for
// use by concurrently running workflow executors.
type Station interface {
	// Name returns the unique identifier used to look the station up
	// in the registry. It must match the name used in workflow
	// definitions.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Execute performs the station's work against the shared context.
	// The context is mutable so stations can hand outputs to
	// subsequent stations; keys set by earlier stations must not be
	// removed, so re-execution on resume stays safe.
	Execute(ctx context.Context, wc *mity.WorkflowContext) (*Result, error)
}

// Conditional is implemented by stations that may be skipped depending
// on the workflow context. Stations without it always run.
type Conditional interface {
	ShouldRun(wc *mity.WorkflowContext) bool
}

// Dependent is implemented by stations that require other stations to
// have succeeded earlier in the same run. The executor checks each
// named dependency against the recorded results: a recorded failure
// aborts the run before the station executes.
type Dependent interface {
	Dependencies() []string
}

// Declarer is implemented by stations that declare their context-key
// and artifact contract. The declarations are informational; the
// engine does not enforce them.
type Declarer interface {
	Input() Input
	Output() Output
}

// Input describes what a station consumes.
type Input struct {
	// RequiredKeys are context keys that must be present.
	RequiredKeys []string `json:"required_keys,omitempty"`
	// OptionalKeys are context keys the station uses when present.
	OptionalKeys []string `json:"optional_keys,omitempty"`
	// RequiredArtifacts are artifact names from earlier stations.
	RequiredArtifacts []string `json:"required_artifacts,omitempty"`
}

// Output describes what a station produces.
type Output struct {
	ProducesKeys      []string `json:"produces_keys,omitempty"`
	ProducesArtifacts []string `json:"produces_artifacts,omitempty"`
}

// Stage is one of the fixed SDLC stage identifiers used by the legacy
// fixed-pipeline engine. New code uses free-form station names instead.
type Stage string

const (
	StageAnalyze   Stage = "analyze"
	StageArchitect Stage = "architect"
	StageImplement Stage = "implement"
	StageTest      Stage = "test"
	StageReview    Stage = "review"
	StageSecure    Stage = "secure"
	StageDevOps    Stage = "devops"
	StageIac       Stage = "iac"
	StageGate      Stage = "gate"
)

func (s Stage) String() string { return string(s) }

// DefaultStageOrder returns the canonical order of SDLC stages.
func DefaultStageOrder() []Stage {
	return []Stage{
		StageAnalyze,
		StageArchitect,
		StageImplement,
		StageTest,
		StageReview,
		StageSecure,
		StageDevOps,
		StageIac,
		StageGate,
	}
}
