// Package fs provides the durable filesystem LogStore. Each workflow
// id maps to one JSON document at <workspace>/.mity/logs/<id>.json;
// saving replaces the document atomically via a rename.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/workflow"
)

// Ensure Store implements workflow.LogStore at compile time.
var _ workflow.LogStore = (*Store)(nil)

// defaultLogsDir is the logs directory relative to the workspace root.
const defaultLogsDir = ".mity/logs"

// Store persists execution logs as JSON files under a workspace root.
type Store struct {
	root    string
	logsDir string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogsDir overrides the logs directory relative to the workspace
// root (default ".mity/logs").
func WithLogsDir(dir string) Option {
	return func(s *Store) { s.logsDir = dir }
}

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a store rooted at the given workspace directory.
func New(workspaceRoot string, opts ...Option) *Store {
	s := &Store{
		root:    workspaceRoot,
		logsDir: defaultLogsDir,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LogPath returns the on-disk path for a workflow id.
func (s *Store) LogPath(workflowID string) string {
	return filepath.Join(s.root, filepath.FromSlash(s.logsDir), workflowID+".json")
}

// Save writes the log to disk, replacing any previous snapshot for the
// same workflow id. The write goes through a temp file and rename so a
// crash mid-write never leaves a truncated log behind.
func (s *Store) Save(_ context.Context, lg *workflow.ExecutionLog) error {
	path := s.LogPath(lg.WorkflowID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("fs: create logs dir: %w", err)
	}

	data, err := json.MarshalIndent(lg, "", "  ")
	if err != nil {
		return fmt.Errorf("fs: marshal log %s: %w", lg.WorkflowID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("fs: write log %s: %w", lg.WorkflowID, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("fs: replace log %s: %w", lg.WorkflowID, err)
	}

	s.logger.Debug("saved execution log", slog.String("path", path))
	return nil
}

// Load reads the log for a workflow id from disk.
func (s *Store) Load(_ context.Context, workflowID string) (*workflow.ExecutionLog, error) {
	data, err := os.ReadFile(s.LogPath(workflowID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("workflow %q: %w", workflowID, mity.ErrLogNotFound)
		}
		return nil, fmt.Errorf("fs: read log %s: %w", workflowID, err)
	}

	var lg workflow.ExecutionLog
	if err := json.Unmarshal(data, &lg); err != nil {
		return nil, fmt.Errorf("fs: unmarshal log %s: %w", workflowID, err)
	}
	return &lg, nil
}

// Exists reports whether a log file exists for the workflow id.
func (s *Store) Exists(_ context.Context, workflowID string) (bool, error) {
	_, err := os.Stat(s.LogPath(workflowID))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("fs: stat log %s: %w", workflowID, err)
}

// Delete removes the log file for a workflow id. Deleting a missing
// log is not an error.
func (s *Store) Delete(_ context.Context, workflowID string) error {
	err := os.Remove(s.LogPath(workflowID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("fs: delete log %s: %w", workflowID, err)
	}
	return nil
}
