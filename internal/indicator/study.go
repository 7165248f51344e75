package indicator

import (
	"sort"

	"stockgrid/internal/domain"
)

// Study is a named indicator that turns a bar series into one or more
// output series, each keyed by the record field it fills.
type Study interface {
	// Name returns the unique identifier for this study, e.g. "macd".
	Name() string

	// Fields lists the keys Compute returns, in display order.
	Fields() []string

	// Compute evaluates the study over bars. Every returned series has
	// len(bars) entries.
	Compute(bars []domain.Bar) map[string][]float64
}

// Registry holds a named collection of studies for lookup and enumeration.
type Registry struct {
	studies map[string]Study
}

// NewRegistry creates an empty study Registry.
func NewRegistry() *Registry {
	return &Registry{
		studies: make(map[string]Study),
	}
}

// Register adds a study to the registry, keyed by its Name(). A later
// registration under the same name replaces the earlier one.
func (r *Registry) Register(s Study) {
	r.studies[s.Name()] = s
}

// Get retrieves a study by name.
func (r *Registry) Get(name string) (Study, bool) {
	s, ok := r.studies[name]
	return s, ok
}

// List returns a sorted slice of all registered study names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.studies))
	for name := range r.studies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs the named studies over bars and merges their outputs. Unknown
// names are skipped.
func (r *Registry) Apply(bars []domain.Bar, names ...string) map[string][]float64 {
	out := make(map[string][]float64)
	for _, name := range names {
		s, ok := r.studies[name]
		if !ok {
			continue
		}
		for k, v := range s.Compute(bars) {
			out[k] = v
		}
	}
	return out
}
