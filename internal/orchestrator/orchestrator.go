package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adverant/kreuzberg/internal/cache"
	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/logging"
	"github.com/adverant/kreuzberg/internal/mimetype"
	"github.com/adverant/kreuzberg/internal/postprocess"
	"github.com/adverant/kreuzberg/internal/registry"
)

// Orchestrator runs the cache -> dispatch -> extract -> post-process -> cache
// pipeline, and the bounded-concurrency batch variant in batch.go.
type Orchestrator struct {
	Registries   *registry.Registries
	ExtractCache *cache.Engine // nil disables the extraction result cache
	Pipeline     *postprocess.Pipeline
	Log          *logging.Logger
	BatchWorkers int
}

// New builds an Orchestrator. extractCache may be nil to run with caching
// permanently disabled regardless of per-call config.
func New(registries *registry.Registries, extractCache *cache.Engine, log *logging.Logger, batchWorkers int) *Orchestrator {
	if log == nil {
		log = logging.Default("orchestrator")
	}
	if batchWorkers <= 0 {
		batchWorkers = defaultBatchWorkers()
	}
	var plugins postprocess.PluginSource
	if registries != nil {
		plugins = registryPlugins{regs: registries}
	}
	return &Orchestrator{
		Registries:   registries,
		ExtractCache: extractCache,
		Pipeline:     postprocess.New(plugins, log),
		Log:          log,
		BatchWorkers: batchWorkers,
	}
}

// registryPlugins adapts the plugin registries to the post-processing
// pipeline's PluginSource; registry.PostProcessor and registry.Validator
// satisfy the pipeline's Plugin/Validator interfaces structurally, so the
// adaptation is just a slice conversion per stage.
type registryPlugins struct {
	regs *registry.Registries
}

func (r registryPlugins) EarlyPlugins() []postprocess.Plugin {
	return r.stagePlugins(registry.StageEarly)
}

func (r registryPlugins) MiddlePlugins() []postprocess.Plugin {
	return r.stagePlugins(registry.StageMiddle)
}

func (r registryPlugins) LatePlugins() []postprocess.Plugin {
	return r.stagePlugins(registry.StageLate)
}

func (r registryPlugins) stagePlugins(stage registry.ProcessingStage) []postprocess.Plugin {
	procs := r.regs.PostProcessors.GetForStage(stage)
	out := make([]postprocess.Plugin, len(procs))
	for i, p := range procs {
		out[i] = p
	}
	return out
}

func (r registryPlugins) LateValidators() []postprocess.Validator {
	vals := r.regs.Validators.All()
	out := make([]postprocess.Validator, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

// ExtractFile runs the single-file pipeline: stat, MIME resolution, cache
// lookup, extractor dispatch, post-processing, cache insertion.
func (o *Orchestrator) ExtractFile(ctx context.Context, path, mimeHint string, cfg extract.Config) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errorkind.NewValidation("path does not exist: "+path, err)
	}

	mime, err := mimetype.DetectOrValidate(path, mimeHint)
	if err != nil {
		return nil, err
	}

	canonical, err := filepath.Abs(path)
	if err != nil {
		canonical = path
	}

	var key string
	if cfg.UseCache && o.ExtractCache != nil {
		key = fileCacheKey(canonical, info.Size(), info.ModTime().Unix(), mime, cfg)
		if payload, ok := o.ExtractCache.Get(key, path); ok {
			if res, decErr := decodeResult(payload); decErr == nil {
				return res, nil
			}
		}
		if o.ExtractCache.IsProcessing(key) {
			// Another caller is already producing this entry; do the work
			// anyway (single-flight guards insertion, not computation) but
			// skip the duplicate cache write.
			key = ""
		} else {
			o.ExtractCache.MarkProcessing(key)
			defer o.ExtractCache.MarkComplete(key)
		}
	}

	out, ranOCR, err := o.maybeForceOCRFile(ctx, path, mime, cfg)
	if err != nil {
		return nil, err
	}
	if !ranOCR {
		extractor, err := o.Registries.Extractors.Get(mime)
		if err != nil {
			return nil, err
		}
		out, err = extractor.ExtractFile(ctx, path, mime, cfg)
		if err != nil {
			return nil, err
		}
	}

	res, err := o.postProcess(ctx, out, mime, cfg)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if payload, encErr := encodeResult(res); encErr == nil {
			if setErr := o.ExtractCache.Set(key, payload, path); setErr != nil {
				o.Log.Warn("failed to write extraction cache entry", "key", key, "error", setErr)
			}
		}
	}
	return res, nil
}

// ExtractBytes runs the bytes pipeline: MIME resolution (hint or sniff, no
// extension table since there's no path), cache lookup keyed by content
// hash (no source-file invalidation sidecar), extractor dispatch,
// post-processing, cache insertion.
func (o *Orchestrator) ExtractBytes(ctx context.Context, buf []byte, mimeHint string, cfg extract.Config) (*Result, error) {
	mime, err := mimetype.DetectOrValidateBytes(buf, "", mimeHint)
	if err != nil {
		return nil, err
	}

	var key string
	if cfg.UseCache && o.ExtractCache != nil {
		key = bytesCacheKey(buf, mime, cfg)
		if payload, ok := o.ExtractCache.Get(key, ""); ok {
			if res, decErr := decodeResult(payload); decErr == nil {
				return res, nil
			}
		}
		if o.ExtractCache.IsProcessing(key) {
			key = ""
		} else {
			o.ExtractCache.MarkProcessing(key)
			defer o.ExtractCache.MarkComplete(key)
		}
	}

	out, ranOCR, err := o.forceOCR(ctx, buf, mime, cfg)
	if err != nil {
		return nil, err
	}
	if !ranOCR {
		extractor, err := o.Registries.Extractors.Get(mime)
		if err != nil {
			return nil, err
		}
		out, err = extractor.ExtractBytes(ctx, buf, mime, cfg)
		if err != nil {
			return nil, err
		}
	}

	res, err := o.postProcess(ctx, out, mime, cfg)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if payload, encErr := encodeResult(res); encErr == nil {
			if setErr := o.ExtractCache.Set(key, payload, ""); setErr != nil {
				o.Log.Warn("failed to write extraction cache entry", "key", key, "error", setErr)
			}
		}
	}
	return res, nil
}

// postProcess runs the post-processing pipeline over an extractor's raw
// output and assembles the final Result.
func (o *Orchestrator) postProcess(ctx context.Context, out *extract.Output, mimeType string, cfg extract.Config) (*Result, error) {
	ppCfg := postprocess.Config{
		Chunking:      cfg.Chunking,
		Language:      cfg.LanguageDetection,
		EnableQuality: cfg.EnableQualityProcessing,
	}
	if cfg.TokenReduction != nil && cfg.TokenReduction.Level != postprocess.ReductionOff {
		ppCfg.TokenReduction = cfg.TokenReduction
	}

	ppRes, err := o.Pipeline.Run(ctx, out.Content, out.Metadata, ppCfg)
	if err != nil {
		return nil, err
	}

	metadata := ppRes.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if ppRes.QualityScore != nil {
		metadata["quality_score"] = *ppRes.QualityScore
	}
	if len(ppRes.StageErrors) > 0 {
		metadata["stage_errors"] = ppRes.StageErrors
		if _, exists := metadata["error"]; !exists {
			stages := make([]string, 0, len(ppRes.StageErrors))
			for stage := range ppRes.StageErrors {
				stages = append(stages, stage)
			}
			sort.Strings(stages)
			parts := make([]string, len(stages))
			for i, stage := range stages {
				parts[i] = stage + ": " + ppRes.StageErrors[stage]
			}
			metadata["error"] = map[string]interface{}{"type": string(errorkind.Other), "message": strings.Join(parts, "; ")}
		}
	}

	var chunks []Chunk
	for _, c := range ppRes.Chunks {
		tc := c.TokenCount
		chunks = append(chunks, Chunk{Content: c.Content, CharStart: c.CharStart, CharEnd: c.CharEnd, TokenCount: &tc})
	}

	return &Result{
		Content:           ppRes.Content,
		MimeType:          mimeType,
		Metadata:          metadata,
		Tables:            out.Tables,
		DetectedLanguages: ppRes.DetectedLanguages,
		Chunks:            chunks,
	}, nil
}
