package validator

import "fakturscan/internal/validator/faktur"

// Registry holds validators keyed by rule key. Iteration follows
// registration order so results are deterministic.
type Registry struct {
	order []Validator
	index map[string]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// DefaultRegistry returns a Registry with every built-in Faktur Pajak rule.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, v := range faktur.AllBuiltinValidators() {
		r.Register(v)
	}
	return r
}

// Register adds a validator. Registering an existing key replaces it in place.
func (r *Registry) Register(v Validator) {
	if i, ok := r.index[v.RuleKey()]; ok {
		r.order[i] = v
		return
	}
	r.index[v.RuleKey()] = len(r.order)
	r.order = append(r.order, v)
}

// Get returns the validator for a given rule key, or nil if not found.
func (r *Registry) Get(key string) Validator {
	i, ok := r.index[key]
	if !ok {
		return nil
	}
	return r.order[i]
}

// All returns all registered validators in registration order.
func (r *Registry) All() []Validator {
	out := make([]Validator, len(r.order))
	copy(out, r.order)
	return out
}
