package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

// OCRBackendRegistry maps backend name to an OCRBackend and additionally supports
// "find the first backend that claims a language" lookup (GetForLanguage). The
// orchestrator and the cascade backend select backends by name, not through it.
type OCRBackendRegistry struct {
	mu       sync.RWMutex
	backends map[string]OCRBackend
	order    []string // registration order, for deterministic GetForLanguage scans
}

func NewOCRBackendRegistry() *OCRBackendRegistry {
	return &OCRBackendRegistry{backends: make(map[string]OCRBackend)}
}

func (r *OCRBackendRegistry) Register(ctx context.Context, backend OCRBackend) error {
	if err := backend.Initialize(ctx); err != nil {
		return errorkind.NewPlugin(backend.Name(), "initialize", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.backends[backend.Name()]; !exists {
		r.order = append(r.order, backend.Name())
	}
	r.backends[backend.Name()] = backend
	return nil
}

func (r *OCRBackendRegistry) Get(name string) (OCRBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, errorkind.NewPlugin(name, "lookup", nil)
	}
	return b, nil
}

// GetForLanguage returns the first backend, in registration order, that claims
// to support lang.
func (r *OCRBackendRegistry) GetForLanguage(lang string) (OCRBackend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if b := r.backends[name]; b.SupportsLanguage(lang) {
			return b, nil
		}
	}
	return nil, errorkind.NewPlugin(lang, "no OCR backend supports language", nil)
}

func (r *OCRBackendRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

func (r *OCRBackendRegistry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	b, ok := r.backends[name]
	if ok {
		delete(r.backends, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := b.Shutdown(ctx); err != nil {
		return errorkind.NewPlugin(name, "shutdown", err)
	}
	return nil
}

func (r *OCRBackendRegistry) ShutdownAll(ctx context.Context) error {
	for _, name := range r.List() {
		if err := r.Remove(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
