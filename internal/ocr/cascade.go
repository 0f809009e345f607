package ocr

import (
	"context"
	"sort"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/logging"
)

// Processor is implemented by every concrete backend able to run Process
// (currently only TesseractBackend, but the cascade generalizes beyond one).
type Processor interface {
	Name() string
	Process(ctx context.Context, image []byte, cfg Config) (Result, error)
}

// confidenceOf reads a float64 "confidence" key out of a Result's metadata; a
// backend that doesn't report one is treated as fully confident so it never
// gets displaced by a tier that also doesn't report confidence.
func confidenceOf(r Result) float64 {
	if v, ok := r.Metadata["confidence"].(float64); ok {
		return v
	}
	return 1.0
}

// tier is one member of a CascadeBackend, ordered cheapest/fastest first.
type tier struct {
	processor     Processor
	minConfidence float64 // escalate to the next tier if this tier's result scores below this
}

// CascadeBackend chains Processor implementations cheapest-first and
// escalates only when confidence is low. Each tier runs in order; the first
// result meeting its own minConfidence is returned, otherwise the
// best-scoring result seen so far is returned once every tier has been
// tried.
type CascadeBackend struct {
	tiers []tier
	log   *logging.Logger
}

// NewCascadeBackend builds an empty cascade; call AddTier to append engines in
// cheapest-first order.
func NewCascadeBackend(log *logging.Logger) *CascadeBackend {
	if log == nil {
		log = logging.Default("ocr")
	}
	return &CascadeBackend{log: log}
}

// AddTier appends processor to the end of the cascade with the confidence floor
// below which the cascade escalates to the next tier.
func (c *CascadeBackend) AddTier(processor Processor, minConfidence float64) *CascadeBackend {
	c.tiers = append(c.tiers, tier{processor: processor, minConfidence: minConfidence})
	return c
}

func (c *CascadeBackend) Name() string { return "cascade" }

func (c *CascadeBackend) SupportsLanguage(lang string) bool { return lang != "" }

func (c *CascadeBackend) Initialize(ctx context.Context) error { return nil }
func (c *CascadeBackend) Shutdown(ctx context.Context) error { return nil }

// Process runs each tier until one clears its confidence floor, falling back
// to the highest-confidence result observed if none does.
func (c *CascadeBackend) Process(ctx context.Context, image []byte, cfg Config) (Result, error) {
	if len(c.tiers) == 0 {
		return Result{}, errorkind.NewOCR("cascade", nil)
	}

	type attempt struct {
		result     Result
		confidence float64
	}
	var attempts []attempt
	var lastErr error

	for _, t := range c.tiers {
		res, err := t.processor.Process(ctx, image, cfg)
		if err != nil {
			lastErr = err
			c.log.Warn("ocr cascade tier failed, escalating", "tier", t.processor.Name(), "error", err)
			continue
		}
		conf := confidenceOf(res)
		if res.Metadata == nil {
			res.Metadata = map[string]interface{}{}
		}
		res.Metadata["cascade_tier"] = t.processor.Name()
		attempts = append(attempts, attempt{result: res, confidence: conf})
		if conf >= t.minConfidence {
			return res, nil
		}
	}

	if len(attempts) == 0 {
		if lastErr != nil {
			return Result{}, lastErr
		}
		return Result{}, errorkind.NewOCR("cascade", nil)
	}

	sort.Slice(attempts, func(i, j int) bool { return attempts[i].confidence > attempts[j].confidence })
	return attempts[0].result, nil
}
