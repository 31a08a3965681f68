package mity

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/janvanwassenhove/mity/id"
)

// StackType identifies the technology stack of the application being
// built. Unknown values are carried through verbatim as custom stacks.
type StackType string

const (
	StackPythonFastAPI   StackType = "python-fastapi"
	StackJavaSpringBoot  StackType = "java-springboot"
	StackJavaQuarkus     StackType = "java-quarkus"
	StackDotnetWebAPI    StackType = "dotnet-webapi"
	StackRustAPI         StackType = "rust-api"
	StackFrontendReact   StackType = "frontend-react"
	StackFrontendAngular StackType = "frontend-angular"
	StackFrontendVue     StackType = "frontend-vue"
	StackElectronApp     StackType = "electron-app"
)

// ParseStackType normalizes a stack name. Names outside the known set
// are returned lowercased as a custom stack.
func ParseStackType(s string) StackType {
	return StackType(strings.ToLower(strings.TrimSpace(s)))
}

func (s StackType) String() string { return string(s) }

// IacConfig holds infrastructure-as-code settings for a workflow run.
type IacConfig struct {
	Enabled  bool   `json:"enabled"`
	Provider string `json:"provider,omitempty"`
	Cloud    string `json:"cloud,omitempty"`
}

// Terraform returns an enabled IacConfig targeting the given cloud.
func Terraform(cloud string) IacConfig {
	return IacConfig{Enabled: true, Provider: "terraform", Cloud: cloud}
}

// WorkflowContext carries all execution parameters and accumulated
// state for a single workflow run. It is the only channel by which
// stations communicate with each other and with the caller.
//
// A WorkflowContext is exclusively owned by one Execute or Resume
// invocation. Stations mutate it in place (primarily Outputs) but must
// never remove keys set by earlier stations; that discipline is what
// makes resuming a failed run safe.
//
// Input, output, and metadata values are stored as raw JSON so the
// context snapshot embedded in the execution log round-trips exactly.
type WorkflowContext struct {
	// ExecutionID uniquely identifies this run of the context.
	ExecutionID id.ExecutionID `json:"execution_id"`
	// WorkspacePath is the factory workspace root.
	WorkspacePath string `json:"workspace_path"`
	// OutputPath is where the generated application lives.
	OutputPath string `json:"output_path"`
	// AppName is the application being built.
	AppName string `json:"app_name"`
	// Stack is the application's technology stack.
	Stack StackType `json:"stack"`
	// Iac holds infrastructure-as-code settings.
	Iac IacConfig `json:"iac"`
	// FeatureID is set when the run processes a specific feature.
	FeatureID *id.FeatureID `json:"feature_id,omitempty"`
	// EnvVars are passed to containerized command execution.
	EnvVars map[string]string `json:"env_vars"`
	// Inputs is caller-provided data available to all stations.
	Inputs map[string]json.RawMessage `json:"inputs"`
	// Outputs is data accumulated by stations during execution.
	Outputs map[string]json.RawMessage `json:"outputs"`
	// Metadata is free-form annotation data.
	Metadata map[string]json.RawMessage `json:"metadata"`
}

// NewWorkflowContext creates a context rooted at the given workspace.
// The output path defaults to <workspace>/workspaces/<appName>.
func NewWorkflowContext(workspacePath, appName string, stack StackType) *WorkflowContext {
	return &WorkflowContext{
		ExecutionID:   id.NewExecutionID(),
		WorkspacePath: workspacePath,
		OutputPath:    filepath.Join(workspacePath, "workspaces", appName),
		AppName:       appName,
		Stack:         stack,
		EnvVars:       make(map[string]string),
		Inputs:        make(map[string]json.RawMessage),
		Outputs:       make(map[string]json.RawMessage),
		Metadata:      make(map[string]json.RawMessage),
	}
}

// WithOutputPath overrides the default output path.
func (c *WorkflowContext) WithOutputPath(path string) *WorkflowContext {
	c.OutputPath = path
	return c
}

// WithIac enables infrastructure-as-code with the given configuration.
func (c *WorkflowContext) WithIac(iac IacConfig) *WorkflowContext {
	c.Iac = iac
	return c
}

// WithFeature associates the run with a feature.
func (c *WorkflowContext) WithFeature(featureID id.FeatureID) *WorkflowContext {
	c.FeatureID = &featureID
	return c
}

// WithEnv adds an environment variable for container execution.
func (c *WorkflowContext) WithEnv(key, value string) *WorkflowContext {
	c.EnvVars[key] = value
	return c
}

// SetInput JSON-marshals v and stores it under key.
func (c *WorkflowContext) SetInput(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("context: marshal input %q: %w", key, err)
	}
	c.Inputs[key] = data
	return nil
}

// Input returns the raw JSON stored under key.
func (c *WorkflowContext) Input(key string) (json.RawMessage, bool) {
	v, ok := c.Inputs[key]
	return v, ok
}

// GetInput unmarshals the input stored under key into out. It reports
// false when the key is absent or the value does not fit out.
func (c *WorkflowContext) GetInput(key string, out any) bool {
	v, ok := c.Inputs[key]
	if !ok {
		return false
	}
	return json.Unmarshal(v, out) == nil
}

// SetOutput JSON-marshals v and stores it under key. Used by stations
// to hand data to subsequent stations.
func (c *WorkflowContext) SetOutput(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("context: marshal output %q: %w", key, err)
	}
	c.Outputs[key] = data
	return nil
}

// Output returns the raw JSON stored under key.
func (c *WorkflowContext) Output(key string) (json.RawMessage, bool) {
	v, ok := c.Outputs[key]
	return v, ok
}

// GetOutput unmarshals the output stored under key into out. It
// reports false when the key is absent or the value does not fit out.
func (c *WorkflowContext) GetOutput(key string, out any) bool {
	v, ok := c.Outputs[key]
	if !ok {
		return false
	}
	return json.Unmarshal(v, out) == nil
}

// SetMetadata JSON-marshals v and stores it under key.
func (c *WorkflowContext) SetMetadata(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("context: marshal metadata %q: %w", key, err)
	}
	c.Metadata[key] = data
	return nil
}

// TemplatesPath returns the workspace templates directory.
func (c *WorkflowContext) TemplatesPath() string {
	return filepath.Join(c.WorkspacePath, "templates")
}

// IacTemplatesPath returns the workspace IaC templates directory.
func (c *WorkflowContext) IacTemplatesPath() string {
	return filepath.Join(c.WorkspacePath, "iac", "terraform")
}
