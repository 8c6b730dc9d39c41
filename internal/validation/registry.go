package validation

import (
	"sort"
	"sync"

	"github.com/slok/inferctl/internal/model"
)

// Validator validates a single field value.
type Validator func(value string) model.ValidationResult

// Registry aggregates per field validators into a field keyed error map.
//
// Fields are validated one at a time as they are edited so the aggregate
// validity can be read at any moment without running every validator again.
type Registry struct {
	validators map[string]Validator
	errors     model.ValidationErrors
	mu         sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		validators: map[string]Validator{},
		errors:     model.ValidationErrors{},
	}
}

// Register registers the validator of a field, replacing any previous one.
func (r *Registry) Register(field string, v Validator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.validators[field] = v
	delete(r.errors, field)
}

// Fields returns the registered field names sorted.
func (r *Registry) Fields() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fields := make([]string, 0, len(r.validators))
	for f := range r.validators {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Validate runs the validator of a field and updates its entry. A passing
// validator clears the entry. Fields without validator are always valid.
func (r *Registry) Validate(field, value string) model.ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.validate(field, value)
}

// ValidateAll runs every registered validator with the values of opts, missing
// values are validated as empty.
func (r *Registry) ValidateAll(opts model.ContainerOptions) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for field := range r.validators {
		r.validate(field, opts[field])
	}
	return r.isValid()
}

// Errors returns a copy of the current error map.
func (r *Registry) Errors() model.ValidationErrors {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := make(model.ValidationErrors, len(r.errors))
	for f, res := range r.errors {
		c := *res
		errs[f] = &c
	}
	return errs
}

// IsValid returns true when no field has a failed entry.
func (r *Registry) IsValid() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.isValid()
}

// Reset clears every error entry, validators are kept.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = model.ValidationErrors{}
}

func (r *Registry) validate(field, value string) model.ValidationResult {
	v, ok := r.validators[field]
	if !ok {
		return model.ValidationResult{OK: true}
	}

	res := v(value)
	if res.OK {
		delete(r.errors, field)
		return res
	}

	r.errors[field] = &res
	return res
}

func (r *Registry) isValid() bool {
	for _, res := range r.errors {
		if res != nil && !res.OK {
			return false
		}
	}
	return true
}
