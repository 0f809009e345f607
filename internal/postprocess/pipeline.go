// Package postprocess implements the ordered post-processing pipeline that
// runs after extraction and before cache insertion: early normalization
// hooks, chunking, middle hooks, language detection, quality scoring, token
// reduction, late hooks, and validators.
package postprocess

import (
	"context"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/logging"
)

// Plugin is the early/middle/late-stage hook contract the pipeline consumes. The
// registry's PostProcessor satisfies it structurally, so the orchestrator can
// hand registry-held plugins to the pipeline without this package importing
// the registry (which would close an import cycle through internal/extract).
type Plugin interface {
	Name() string
	Process(ctx context.Context, content string, metadata map[string]interface{}) (string, map[string]interface{}, error)
}

// Validator is the late-stage contract; the registry's Validator satisfies it
// the same way.
type Validator interface {
	Name() string
	Validate(ctx context.Context, result interface{}) error
}

// PluginSource supplies the plugin-contributed stages for one pipeline run:
// early hooks before the built-in stages, middle hooks between chunking and
// language detection, late hooks immediately before the validators.
type PluginSource interface {
	EarlyPlugins() []Plugin
	MiddlePlugins() []Plugin
	LatePlugins() []Plugin
	LateValidators() []Validator
}

// Config bundles the optional, independently-toggled settings for a single
// pipeline run. A nil pointer means the corresponding stage is skipped.
type Config struct {
	Chunking       *ChunkingConfig
	Language       *LanguageDetectionConfig
	EnableQuality  bool
	TokenReduction *TokenReductionConfig
}

// Result is the mutable state threaded through the pipeline stages.
type Result struct {
	Content           string
	Metadata          map[string]interface{}
	Chunks            []Chunk
	DetectedLanguages []string
	QualityScore      *float64
	// StageErrors records non-critical stage failures (chunking, language
	// detection) keyed by stage name; the caller folds these into
	// metadata.error rather than failing the whole extraction.
	StageErrors map[string]string
}

// Pipeline runs the ordered post-processing stages, consuming
// plugin-registered early/middle/late hooks and validators from its
// PluginSource.
type Pipeline struct {
	plugins PluginSource
	log     *logging.Logger
}

// New builds a Pipeline. plugins may be nil when no plugin-contributed stages
// exist (the built-in stages still run).
func New(plugins PluginSource, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Default("postprocess")
	}
	return &Pipeline{plugins: plugins, log: log}
}

// Run executes every configured stage in declared order: Early hooks,
// Chunking, Middle hooks, Language detection, Quality scoring, Token
// reduction, Late hooks, Validators. Chunking and language-detection
// failures, like individual hook failures, are recorded in
// Result.StageErrors and do not abort the run; a validator failure aborts
// and is returned as a ValidationError. Middle/late hooks and token
// reduction mutate content after chunking, so chunk offsets describe the
// content as it stood at the chunking stage.
func (p *Pipeline) Run(ctx context.Context, content string, metadata map[string]interface{}, cfg Config) (Result, error) {
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	res := Result{Content: content, Metadata: metadata, StageErrors: map[string]string{}}

	var early, middle, late []Plugin
	var validators []Validator
	if p.plugins != nil {
		early = p.plugins.EarlyPlugins()
		middle = p.plugins.MiddlePlugins()
		late = p.plugins.LatePlugins()
		validators = p.plugins.LateValidators()
	}

	p.runPlugins(ctx, &res, "early", early)

	if cfg.Chunking != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					res.StageErrors["chunking"] = "panic during chunking"
				}
			}()
			res.Chunks = ChunkText(res.Content, *cfg.Chunking)
			if res.Chunks != nil {
				res.Metadata["chunk_count"] = len(res.Chunks)
			}
		}()
	}

	p.runPlugins(ctx, &res, "middle", middle)

	if cfg.Language != nil && cfg.Language.MinConfidence >= 0 {
		func() {
			defer func() {
				if r := recover(); r != nil {
					res.StageErrors["language_detection"] = "panic during language detection"
				}
			}()
			langs := DetectLanguages(res.Content, *cfg.Language)
			for _, l := range langs {
				res.DetectedLanguages = append(res.DetectedLanguages, l.Code)
			}
		}()
	}

	if cfg.EnableQuality {
		score := QualityScore(res.Content, res.Metadata)
		res.QualityScore = &score
	}

	if cfg.TokenReduction != nil {
		res.Content = Reduce(res.Content, *cfg.TokenReduction)
	}

	p.runPlugins(ctx, &res, "late", late)

	for _, v := range validators {
		if err := v.Validate(ctx, &res); err != nil {
			return res, errorkind.NewValidation("validator "+v.Name()+" rejected result", err)
		}
	}

	return res, nil
}

// runPlugins runs one stage's hooks in order. A failing hook is recorded in
// StageErrors and skipped; it never aborts the run.
func (p *Pipeline) runPlugins(ctx context.Context, res *Result, stage string, plugins []Plugin) {
	for _, proc := range plugins {
		content, metadata, err := proc.Process(ctx, res.Content, res.Metadata)
		if err != nil {
			p.log.Warn("post-processor failed, skipping", "stage", stage, "processor", proc.Name(), "error", err.Error())
			res.StageErrors[stage+":"+proc.Name()] = err.Error()
			continue
		}
		res.Content = content
		if metadata != nil {
			res.Metadata = metadata
		}
	}
}
