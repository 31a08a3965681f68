// Package memory provides an in-memory LogStore for unit testing and
// development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/janvanwassenhove/mity"
	"github.com/janvanwassenhove/mity/workflow"
)

// Ensure Store implements workflow.LogStore at compile time.
var _ workflow.LogStore = (*Store)(nil)

// Store keeps execution logs in memory. Safe for concurrent access.
//
// Logs are stored as serialized snapshots, so what Load returns is
// exactly what a durable store would have persisted: later mutation of
// a saved log is invisible until the next Save. That makes the store
// usable for crash-recovery tests.
type Store struct {
	mu   sync.RWMutex
	logs map[string][]byte
	// saves counts Save calls per workflow id, for tests asserting
	// the persist-after-every-attempt discipline.
	saves map[string]int
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		logs:  make(map[string][]byte),
		saves: make(map[string]int),
	}
}

// Save snapshots the log under its workflow id.
func (s *Store) Save(_ context.Context, lg *workflow.ExecutionLog) error {
	data, err := json.Marshal(lg)
	if err != nil {
		return fmt.Errorf("memory: marshal log %s: %w", lg.WorkflowID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[lg.WorkflowID] = data
	s.saves[lg.WorkflowID]++
	return nil
}

// Load returns the last saved snapshot for the workflow id.
func (s *Store) Load(_ context.Context, workflowID string) (*workflow.ExecutionLog, error) {
	s.mu.RLock()
	data, ok := s.logs[workflowID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("workflow %q: %w", workflowID, mity.ErrLogNotFound)
	}

	var lg workflow.ExecutionLog
	if err := json.Unmarshal(data, &lg); err != nil {
		return nil, fmt.Errorf("memory: unmarshal log %s: %w", workflowID, err)
	}
	return &lg, nil
}

// Exists reports whether a snapshot is stored for the workflow id.
func (s *Store) Exists(_ context.Context, workflowID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.logs[workflowID]
	return ok, nil
}

// Delete removes the stored snapshot for a workflow id.
func (s *Store) Delete(_ context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, workflowID)
	return nil
}

// SaveCount returns how many times the workflow id has been saved.
func (s *Store) SaveCount(workflowID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves[workflowID]
}
