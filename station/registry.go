package station

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/janvanwassenhove/mity"
)

// Registry maps station names to implementations. It is the one
// resource shared across concurrently running workflow executors, so
// reads are lock-protected; registration is expected to happen at
// startup, not during active runs.
type Registry struct {
	mu       sync.RWMutex
	stations map[string]Station
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		stations: make(map[string]Station),
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger used for registration events.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a station keyed by its Name. A station registered
// under an existing name silently replaces the previous one.
func (r *Registry) Register(s Station) {
	name := s.Name()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("registering station", slog.String("station", name))
	r.stations[name] = s
}

// RegisterAs adds a station under an explicit alias instead of its
// own Name.
func (r *Registry) RegisterAs(name string, s Station) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("registering station alias", slog.String("station", name))
	r.stations[name] = s
}

// Get returns the station registered under name.
func (r *Registry) Get(name string) (Station, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stations[name]
	return s, ok
}

// GetRequired returns the station registered under name, or an error
// wrapping mity.ErrStationNotFound.
func (r *Registry) GetRequired(name string) (Station, error) {
	s, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("station %q: %w", name, mity.ErrStationNotFound)
	}
	return s, nil
}

// Contains reports whether a station is registered under name.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.stations[name]
	return ok
}

// Names returns all registered station names in no particular order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.stations))
	for name := range r.stations {
		names = append(names, name)
	}
	return names
}

// Len returns the number of registered stations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stations)
}

// Unregister removes the station registered under name and returns it.
func (r *Registry) Unregister(name string) (Station, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stations[name]
	if ok {
		r.logger.Debug("unregistering station", slog.String("station", name))
		delete(r.stations, name)
	}
	return s, ok
}

// Clear removes all registered stations.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stations = make(map[string]Station)
}
