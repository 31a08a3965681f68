package station

import (
	"time"

	"github.com/janvanwassenhove/mity/id"
)

// Result is the immutable outcome record of one station invocation.
type Result struct {
	// StationID names the station that produced this result.
	StationID string `json:"station_id"`
	// Success distinguishes a declared business failure from success.
	Success bool `json:"success"`
	// Message carries failure details or informational text.
	Message string `json:"message,omitempty"`
	// Artifacts produced by the station.
	Artifacts []Artifact `json:"artifacts"`
	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`
	// CompletedAt is when execution finished.
	CompletedAt time.Time `json:"completed_at"`
	// Logs captured during execution.
	Logs []LogEntry `json:"logs"`
}

// NewSuccess creates a successful result for the named station.
func NewSuccess(stationID string) *Result {
	now := time.Now().UTC()
	return &Result{
		StationID:   stationID,
		Success:     true,
		Artifacts:   []Artifact{},
		StartedAt:   now,
		CompletedAt: now,
		Logs:        []LogEntry{},
	}
}

// NewFailure creates a failed result with the given message.
func NewFailure(stationID, message string) *Result {
	now := time.Now().UTC()
	return &Result{
		StationID:   stationID,
		Success:     false,
		Message:     message,
		Artifacts:   []Artifact{},
		StartedAt:   now,
		CompletedAt: now,
		Logs:        []LogEntry{},
	}
}

// WithMessage sets an informational message.
func (r *Result) WithMessage(message string) *Result {
	r.Message = message
	return r
}

// WithArtifact appends an artifact.
func (r *Result) WithArtifact(a Artifact) *Result {
	r.Artifacts = append(r.Artifacts, a)
	return r
}

// WithLog appends a log entry.
func (r *Result) WithLog(entry LogEntry) *Result {
	r.Logs = append(r.Logs, entry)
	return r
}

// ArtifactType classifies station-produced artifacts.
type ArtifactType string

const (
	ArtifactSourceCode    ArtifactType = "source_code"
	ArtifactTest          ArtifactType = "test"
	ArtifactBinary        ArtifactType = "binary"
	ArtifactContainer     ArtifactType = "container"
	ArtifactConfiguration ArtifactType = "configuration"
	ArtifactDocumentation ArtifactType = "documentation"
	ArtifactReport        ArtifactType = "report"
	ArtifactIacModule     ArtifactType = "iac_module"
)

// Artifact is a file or object produced by a station.
type Artifact struct {
	ID       id.ArtifactID     `json:"id"`
	Name     string            `json:"name"`
	Type     ArtifactType      `json:"artifact_type"`
	Path     string            `json:"path"`
	Checksum string            `json:"checksum,omitempty"`
	Metadata map[string]string `json:"metadata"`
}

// NewArtifact creates an artifact with a fresh ID and empty metadata.
func NewArtifact(name string, artifactType ArtifactType, path string) Artifact {
	return Artifact{
		ID:       id.NewArtifactID(),
		Name:     name,
		Type:     artifactType,
		Path:     path,
		Metadata: make(map[string]string),
	}
}

// LogLevel is the severity of a captured log entry.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogEntry is one log line captured during station execution.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
}

// InfoLog creates an info-level log entry stamped now.
func InfoLog(message string) LogEntry {
	return LogEntry{Timestamp: time.Now().UTC(), Level: LevelInfo, Message: message}
}

// ErrorLog creates an error-level log entry stamped now.
func ErrorLog(message string) LogEntry {
	return LogEntry{Timestamp: time.Now().UTC(), Level: LevelError, Message: message}
}
