package registry

// Registries bundles the four plugin registries the orchestrator depends on,
// so one struct is threaded through every extraction path instead of four
// loose globals.
type Registries struct {
	Extractors     *ExtractorRegistry
	OCRBackends    *OCRBackendRegistry
	PostProcessors *PostProcessorRegistry
	Validators     *ValidatorRegistry
}

// New builds an empty Registries. Callers register built-in plugins (see
// internal/extractors, internal/ocr) before first use.
func New() *Registries {
	return &Registries{
		Extractors:     NewExtractorRegistry(),
		OCRBackends:    NewOCRBackendRegistry(),
		PostProcessors: NewPostProcessorRegistry(),
		Validators:     NewValidatorRegistry(),
	}
}
