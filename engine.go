package kreuzberg

import (
	"context"

	"github.com/adverant/kreuzberg/internal/cache"
	"github.com/adverant/kreuzberg/internal/config"
	"github.com/adverant/kreuzberg/internal/extractors"
	"github.com/adverant/kreuzberg/internal/logging"
	"github.com/adverant/kreuzberg/internal/ocr"
	"github.com/adverant/kreuzberg/internal/orchestrator"
	"github.com/adverant/kreuzberg/internal/registry"
)

// Engine is the top-level entry point: it owns the plugin registries, the
// extract-result and OCR caches, and the orchestrator that ties them
// together into the cache -> dispatch -> extract -> post-process -> cache
// pipeline.
type Engine struct {
	orch         *orchestrator.Orchestrator
	registries   *registry.Registries
	extractCache *cache.Engine
	ocrCache     *cache.Engine
	log          *logging.Logger
}

// Option configures New.
type Option func(*engineOptions)

type engineOptions struct {
	processConfig *config.ProcessConfig
	log           *logging.Logger
	skipDefaults  bool
}

// WithProcessConfig overrides the environment-derived ProcessConfig (cache
// directory, worker count, ...). Its TesseractDataPath is not read by the
// Engine; the Tesseract backend takes its data path from TESSDATA_PREFIX.
func WithProcessConfig(cfg *config.ProcessConfig) Option {
	return func(o *engineOptions) { o.processConfig = cfg }
}

// WithLogger overrides the default logging.New("kreuzberg") logger.
func WithLogger(log *logging.Logger) Option {
	return func(o *engineOptions) { o.log = log }
}

// WithoutDefaultPlugins skips registering the bundled plaintext/HTML/archive
// extractors and the Tesseract/cascade OCR backends, for callers that want a
// bare Engine onto which they register everything themselves.
func WithoutDefaultPlugins() Option {
	return func(o *engineOptions) { o.skipDefaults = true }
}

// New builds an Engine: it loads process configuration from the environment
// (unless overridden), opens the extract and OCR cache directories, and
// registers the bundled extractors and OCR backends.
func New(opts ...Option) (*Engine, error) {
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.log == nil {
		options.log = logging.New("kreuzberg")
	}
	if options.processConfig == nil {
		options.processConfig = config.LoadProcessConfig()
	}
	procCfg := options.processConfig
	log := options.log

	extractCache, err := cache.New(cache.Config{
		RootDir:        procCfg.CacheDir,
		Type:           "extract",
		MaxAgeDays:     procCfg.CacheMaxAgeDays,
		MaxSizeMB:      procCfg.CacheMaxSizeMB,
		MinFreeSpaceMB: procCfg.CacheMinFreeMB,
	}, log)
	if err != nil {
		return nil, err
	}

	ocrCache, err := cache.New(cache.Config{
		RootDir:        procCfg.CacheDir,
		Type:           "ocr",
		MaxAgeDays:     procCfg.CacheMaxAgeDays,
		MaxSizeMB:      procCfg.CacheMaxSizeMB,
		MinFreeSpaceMB: procCfg.CacheMinFreeMB,
	}, log)
	if err != nil {
		return nil, err
	}

	regs := registry.New()
	ctx := context.Background()

	if !options.skipDefaults {
		if err := registerDefaultExtractors(ctx, regs); err != nil {
			return nil, err
		}
		if err := registerDefaultOCRBackends(ctx, regs, ocrCache, log); err != nil {
			return nil, err
		}
	}

	orch := orchestrator.New(regs, extractCache, log, procCfg.BatchWorkers)

	return &Engine{
		orch:         orch,
		registries:   regs,
		extractCache: extractCache,
		ocrCache:     ocrCache,
		log:          log,
	}, nil
}

func registerDefaultExtractors(ctx context.Context, regs *registry.Registries) error {
	for _, e := range []registry.Extractor{
		extractors.NewPlainTextExtractor(),
		extractors.NewHTMLExtractor(),
		extractors.NewArchiveExtractor(),
	} {
		if err := regs.Extractors.Register(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func registerDefaultOCRBackends(ctx context.Context, regs *registry.Registries, ocrCache *cache.Engine, log *logging.Logger) error {
	tesseract := ocr.NewTesseractBackend(ocrCache, log)
	if err := regs.OCRBackends.Register(ctx, tesseract); err != nil {
		return err
	}
	cascade := ocr.NewCascadeBackend(log).AddTier(tesseract, 0.6)
	if err := regs.OCRBackends.Register(ctx, cascade); err != nil {
		return err
	}
	return nil
}

// RegisterExtractor adds a document-format extractor to the registry, the
// way a caller plugs in a PDF/Office/email parser the core doesn't ship.
func (e *Engine) RegisterExtractor(ctx context.Context, extractor registry.Extractor) error {
	return e.registries.Extractors.Register(ctx, extractor)
}

// RegisterOCRBackend adds an OCR backend (e.g. a remote-vision-model tier for
// a CascadeBackend) to the registry.
func (e *Engine) RegisterOCRBackend(ctx context.Context, backend registry.OCRBackend) error {
	return e.registries.OCRBackends.Register(ctx, backend)
}

// RegisterPostProcessor adds a post-processing plugin hook at priority
// (higher runs first within its declared stage).
func (e *Engine) RegisterPostProcessor(ctx context.Context, processor registry.PostProcessor, priority int) error {
	return e.registries.PostProcessors.Register(ctx, processor, priority)
}

// RegisterValidator adds a late-stage result validator.
func (e *Engine) RegisterValidator(ctx context.Context, validator registry.Validator) error {
	return e.registries.Validators.Register(ctx, validator)
}

// Shutdown tears down every registered plugin in reverse dependency order:
// validators, post-processors, OCR backends, extractors.
func (e *Engine) Shutdown(ctx context.Context) error {
	if err := e.registries.Validators.ShutdownAll(ctx); err != nil {
		return err
	}
	if err := e.registries.PostProcessors.ShutdownAll(ctx); err != nil {
		return err
	}
	if err := e.registries.OCRBackends.ShutdownAll(ctx); err != nil {
		return err
	}
	return e.registries.Extractors.ShutdownAll(ctx)
}
