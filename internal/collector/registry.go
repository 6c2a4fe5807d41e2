package collector

import (
	"sort"
	"sync"

	"github.com/rotisserie/eris"
)

// Registry holds the known collectors keyed by name. Iteration order is
// name order so runs are reproducible regardless of registration order.
type Registry struct {
	mu   sync.Mutex
	byID map[string]Collector
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Collector)}
}

// Register adds a collector. Registering a duplicate name is an error.
func (r *Registry) Register(c Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := c.Name()
	if _, ok := r.byID[name]; ok {
		return eris.Errorf("collector: duplicate source %q", name)
	}
	r.byID[name] = c
	return nil
}

// Get returns the collector for name.
func (r *Registry) Get(name string) (Collector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[name]
	if !ok {
		return nil, eris.Errorf("collector: unknown source %q", name)
	}
	return c, nil
}

// Names lists the registered sources in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.byID))
	for name := range r.byID {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered collector in name order.
func (r *Registry) All() []Collector {
	out, _ := r.Select(nil)
	return out
}

// Select resolves the requested source names, or every registered source
// when names is empty.
func (r *Registry) Select(names []string) ([]Collector, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	out := make([]Collector, 0, len(names))
	for _, name := range names {
		c, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
