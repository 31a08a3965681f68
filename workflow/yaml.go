package workflow

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlStation is the on-disk form of a station reference. Config is an
// arbitrary YAML mapping converted to JSON for the in-memory Station.
type yamlStation struct {
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config,omitempty"`
}

// yamlWorkflow is the on-disk form of a workflow definition.
type yamlWorkflow struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Stations    []yamlStation `yaml:"stations"`
}

// ParseYAML decodes a workflow definition document.
func ParseYAML(data []byte) (*Workflow, error) {
	var doc yamlWorkflow
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("workflow: parse yaml: %w", err)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("workflow: definition is missing an id")
	}
	if len(doc.Stations) == 0 {
		return nil, fmt.Errorf("workflow %q: definition has no stations", doc.ID)
	}

	wf := New(doc.ID, doc.Name).WithDescription(doc.Description)
	for i, s := range doc.Stations {
		if s.Name == "" {
			return nil, fmt.Errorf("workflow %q: station %d has no name", doc.ID, i)
		}
		if s.Config == nil {
			wf.Station(s.Name)
			continue
		}
		cfg, err := json.Marshal(s.Config)
		if err != nil {
			return nil, fmt.Errorf("workflow %q: station %q config: %w", doc.ID, s.Name, err)
		}
		wf.StationWithConfig(s.Name, cfg)
	}
	return wf, nil
}

// LoadFile reads and parses a workflow definition from path.
func LoadFile(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read %s: %w", path, err)
	}
	return ParseYAML(data)
}
