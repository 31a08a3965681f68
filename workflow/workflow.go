package workflow

import "encoding/json"

// Station references a registered station by name, with optional
// per-station configuration.
type Station struct {
	Name   string          `json:"name"`
	Config json.RawMessage `json:"config,omitempty"`
}

// Workflow is an ordered, named list of station references. It is a
// flat sequence, not a graph: ordering alone encodes sequencing.
// A Workflow is constructed once per logical pipeline and immutable
// thereafter by convention.
type Workflow struct {
	// ID uniquely identifies the logical pipeline. Reusing an ID for
	// execution continues the same logical run.
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Stations    []Station `json:"stations"`
}

// New creates an empty workflow with the given id and display name.
func New(workflowID, name string) *Workflow {
	return &Workflow{ID: workflowID, Name: name}
}

// WithDescription sets the workflow description.
func (w *Workflow) WithDescription(desc string) *Workflow {
	w.Description = desc
	return w
}

// Station appends a station reference by name.
func (w *Workflow) Station(name string) *Workflow {
	w.Stations = append(w.Stations, Station{Name: name})
	return w
}

// StationWithConfig appends a station reference carrying configuration.
func (w *Workflow) StationWithConfig(name string, config json.RawMessage) *Workflow {
	w.Stations = append(w.Stations, Station{Name: name, Config: config})
	return w
}

// StationNames returns the ordered station names.
func (w *Workflow) StationNames() []string {
	names := make([]string, len(w.Stations))
	for i, s := range w.Stations {
		names[i] = s.Name
	}
	return names
}

// CreateApp is the application scaffolding pipeline:
// scaffold → validate → commit.
func CreateApp() *Workflow {
	return New("create-app", "Create Application").
		WithDescription("Creates a new application from a template").
		Station("scaffold").
		Station("validate").
		Station("commit")
}

// AddFeature is the feature development pipeline:
// analyze → architect → implement → test → review → commit.
func AddFeature() *Workflow {
	return New("add-feature", "Add Feature").
		WithDescription("Implements a new feature through the SDLC").
		Station("analyze").
		Station("architect").
		Station("implement").
		Station("test").
		Station("review").
		Station("commit")
}

// Validate is the validation pipeline: validate → secure.
func Validate() *Workflow {
	return New("validate", "Validate").
		WithDescription("Validates code and security").
		Station("validate").
		Station("secure")
}

// IaC is the infrastructure pipeline: scaffold-iac → validate-iac.
func IaC() *Workflow {
	return New("iac", "Infrastructure as Code").
		WithDescription("Generates and validates IaC").
		Station("scaffold-iac").
		Station("validate-iac")
}
