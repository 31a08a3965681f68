package runner

import (
	"context"
	"sync"
)

// Mock is a scripted Runner for tests. Results are consumed in FIFO
// order; once the script is exhausted every call returns the zero
// Result.
type Mock struct {
	mu      sync.Mutex
	scripts []scripted
	calls   []Spec
}

type scripted struct {
	result Result
	err    error
}

// NewMock creates an empty mock.
func NewMock() *Mock {
	return &Mock{}
}

// Script queues a result for the next unconsumed call.
func (m *Mock) Script(res Result) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, scripted{result: res})
	return m
}

// ScriptError queues a runner-level failure.
func (m *Mock) ScriptError(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, scripted{err: err})
	return m
}

// Run records the spec and pops the next scripted outcome.
func (m *Mock) Run(_ context.Context, spec Spec) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, spec)
	if len(m.scripts) == 0 {
		return Result{}, nil
	}
	next := m.scripts[0]
	m.scripts = m.scripts[1:]
	return next.result, next.err
}

// Calls returns a copy of every spec the mock received.
func (m *Mock) Calls() []Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Spec(nil), m.calls...)
}
