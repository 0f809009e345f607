package ocr

import (
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/adverant/kreuzberg/internal/cache"
)

// cachedResult is the msgpack-serializable projection of Result stored in the
// OCR cache; Duration is excluded since a cached result's timing is meaningless
// on replay.
type cachedResult struct {
	Text       string
	Table      *Table
	Language   string
	PSM        int
	OutputForm string
	Metadata   map[string]interface{}
}

func ocrCacheKey(image []byte, cfg Config) string {
	imageHash := cache.FastHash(image)
	return cache.GenerateKey([]cache.Pair{
		{Name: "image_hash", Value: strconv.FormatUint(imageHash, 16)},
		{Name: "language", Value: cfg.Language},
		{Name: "output_form", Value: string(cfg.OutputForm)},
		{Name: "psm", Value: strconv.Itoa(cfg.PSM)},
		{Name: "table_detection", Value: strconv.FormatBool(cfg.EnableTableDetection)},
		{Name: "whitelist", Value: cfg.Whitelist},
	})
}

func encodeCachedResult(r Result) ([]byte, bool) {
	payload, err := msgpack.Marshal(cachedResult{
		Text: r.Text, Table: r.Table, Language: r.Language, PSM: r.PSM,
		OutputForm: string(r.OutputForm), Metadata: r.Metadata,
	})
	if err != nil {
		return nil, false
	}
	return payload, true
}

func decodeCachedResult(payload []byte) (Result, bool) {
	var cr cachedResult
	if err := msgpack.Unmarshal(payload, &cr); err != nil {
		return Result{}, false
	}
	return Result{
		Text: cr.Text, Table: cr.Table, Language: cr.Language, PSM: cr.PSM,
		OutputForm: OutputForm(cr.OutputForm), Metadata: cr.Metadata,
	}, true
}
