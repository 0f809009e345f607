package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

type validatorEntry struct {
	name      string
	priority  int
	validator Validator
}

// ValidatorRegistry is a single priority-ordered set of late-stage validators.
type ValidatorRegistry struct {
	mu         sync.RWMutex
	validators []validatorEntry
}

func NewValidatorRegistry() *ValidatorRegistry {
	return &ValidatorRegistry{}
}

func (r *ValidatorRegistry) Register(ctx context.Context, v Validator) error {
	if err := v.Initialize(ctx); err != nil {
		return errorkind.NewPlugin(v.Name(), "initialize", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators = append(r.validators, validatorEntry{name: v.Name(), priority: v.Priority(), validator: v})
	sort.SliceStable(r.validators, func(i, j int) bool { return r.validators[i].priority > r.validators[j].priority })
	return nil
}

// All returns validators in descending priority order.
func (r *ValidatorRegistry) All() []Validator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Validator, len(r.validators))
	for i, e := range r.validators {
		result[i] = e.validator
	}
	return result
}

func (r *ValidatorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.validators))
	for i, e := range r.validators {
		names[i] = e.name
	}
	return names
}

func (r *ValidatorRegistry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	var toShutdown Validator
	filtered := r.validators[:0]
	for _, e := range r.validators {
		if e.name == name {
			toShutdown = e.validator
			continue
		}
		filtered = append(filtered, e)
	}
	r.validators = filtered
	r.mu.Unlock()

	if toShutdown == nil {
		return nil
	}
	if err := toShutdown.Shutdown(ctx); err != nil {
		return errorkind.NewPlugin(name, "shutdown", err)
	}
	return nil
}

func (r *ValidatorRegistry) ShutdownAll(ctx context.Context) error {
	for _, name := range r.List() {
		if err := r.Remove(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
