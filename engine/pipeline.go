package engine

import "github.com/janvanwassenhove/mity/station"

// Builder assembles a legacy pipeline stage by stage.
type Builder struct {
	name        string
	description string
	stations    []station.Stage
}

// NewBuilder starts a pipeline definition with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Description sets the pipeline description.
func (b *Builder) Description(desc string) *Builder {
	b.description = desc
	return b
}

// Stage appends a stage to the pipeline.
func (b *Builder) Stage(s station.Stage) *Builder {
	b.stations = append(b.stations, s)
	return b
}

// Stages appends multiple stages in order.
func (b *Builder) Stages(stages ...station.Stage) *Builder {
	b.stations = append(b.stations, stages...)
	return b
}

// Build produces the pipeline.
func (b *Builder) Build() *Workflow {
	wf := NewWorkflow(b.name, append([]station.Stage(nil), b.stations...))
	wf.Description = b.description
	return wf
}

// FeatureWorkflow is the full SDLC pipeline used for feature
// development.
func FeatureWorkflow() *Workflow {
	return NewBuilder("feature").
		Description("Full feature development pipeline").
		Stages(
			station.StageAnalyze,
			station.StageArchitect,
			station.StageImplement,
			station.StageTest,
			station.StageReview,
			station.StageSecure,
			station.StageDevOps,
			station.StageGate,
		).
		Build()
}

// ValidationWorkflow checks an existing workspace without modifying it.
func ValidationWorkflow() *Workflow {
	return NewBuilder("validation").
		Description("Validate and security-scan an existing workspace").
		Stages(
			station.StageTest,
			station.StageReview,
			station.StageSecure,
		).
		Build()
}

// IacWorkflow provisions infrastructure definitions.
func IacWorkflow() *Workflow {
	return NewBuilder("iac").
		Description("Generate and validate infrastructure as code").
		Stages(
			station.StageIac,
			station.StageSecure,
			station.StageGate,
		).
		Build()
}

// SmokeTestWorkflow is the minimal pipeline exercising only the gate.
func SmokeTestWorkflow() *Workflow {
	return NewBuilder("smoke-test").
		Description("Minimal end-to-end check").
		Stages(
			station.StageTest,
			station.StageGate,
		).
		Build()
}
