package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/adverant/kreuzberg/internal/errorkind"
)

type postProcessorEntry struct {
	name      string
	priority  int
	processor PostProcessor
}

// PostProcessorRegistry groups post-processors by ProcessingStage, each stage
// ordered by descending priority, mirroring the stage -> priority -> processor
// registry shape.
type PostProcessorRegistry struct {
	mu      sync.RWMutex
	byStage map[ProcessingStage][]postProcessorEntry
}

func NewPostProcessorRegistry() *PostProcessorRegistry {
	return &PostProcessorRegistry{byStage: make(map[ProcessingStage][]postProcessorEntry)}
}

// Register adds processor under its own ProcessingStage() at the given priority
// (higher runs first within the stage).
func (r *PostProcessorRegistry) Register(ctx context.Context, processor PostProcessor, priority int) error {
	if err := processor.Initialize(ctx); err != nil {
		return errorkind.NewPlugin(processor.Name(), "initialize", err)
	}
	stage := processor.ProcessingStage()
	r.mu.Lock()
	defer r.mu.Unlock()
	bucket := append(r.byStage[stage], postProcessorEntry{name: processor.Name(), priority: priority, processor: processor})
	sort.SliceStable(bucket, func(i, j int) bool { return bucket[i].priority > bucket[j].priority })
	r.byStage[stage] = bucket
	return nil
}

// GetForStage returns the processors registered for stage, highest priority
// first.
func (r *PostProcessorRegistry) GetForStage(stage ProcessingStage) []PostProcessor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bucket := r.byStage[stage]
	result := make([]PostProcessor, len(bucket))
	for i, e := range bucket {
		result[i] = e.processor
	}
	return result
}

func (r *PostProcessorRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, bucket := range r.byStage {
		for _, e := range bucket {
			seen[e.name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *PostProcessorRegistry) Remove(ctx context.Context, name string) error {
	r.mu.Lock()
	var toShutdown PostProcessor
	for stage, bucket := range r.byStage {
		filtered := bucket[:0]
		for _, e := range bucket {
			if e.name == name {
				if toShutdown == nil {
					toShutdown = e.processor
				}
				continue
			}
			filtered = append(filtered, e)
		}
		if len(filtered) == 0 {
			delete(r.byStage, stage)
		} else {
			r.byStage[stage] = filtered
		}
	}
	r.mu.Unlock()

	if toShutdown == nil {
		return nil
	}
	if err := toShutdown.Shutdown(ctx); err != nil {
		return errorkind.NewPlugin(name, "shutdown", err)
	}
	return nil
}

func (r *PostProcessorRegistry) ShutdownAll(ctx context.Context) error {
	for _, name := range r.List() {
		if err := r.Remove(ctx, name); err != nil {
			return err
		}
	}
	return nil
}
