package kreuzberg

import (
	"context"

	"github.com/adverant/kreuzberg/internal/mimetype"
)

// ExtractFile runs the single-file pipeline: stat, MIME resolution, cache
// lookup, extractor dispatch, post-processing, cache insertion. mimeHint may
// be empty to rely on extension/content sniffing.
func (e *Engine) ExtractFile(ctx context.Context, path, mimeHint string, cfg ExtractionConfig) (*ExtractionResult, error) {
	res, err := e.orch.ExtractFile(ctx, path, mimeHint, cfg)
	if err != nil {
		return nil, err
	}
	return fromInternalResult(res), nil
}

// ExtractFileSync is ExtractFile over context.Background(), for callers with
// no context to thread through.
func (e *Engine) ExtractFileSync(path, mimeHint string, cfg ExtractionConfig) (*ExtractionResult, error) {
	return e.ExtractFile(context.Background(), path, mimeHint, cfg)
}

// ExtractBytes runs the bytes pipeline: MIME resolution (hint or sniff, no
// extension table since there's no path), cache lookup keyed by content
// hash, extractor dispatch, post-processing, cache insertion.
func (e *Engine) ExtractBytes(ctx context.Context, buf []byte, mimeHint string, cfg ExtractionConfig) (*ExtractionResult, error) {
	res, err := e.orch.ExtractBytes(ctx, buf, mimeHint, cfg)
	if err != nil {
		return nil, err
	}
	return fromInternalResult(res), nil
}

// ExtractBytesSync is ExtractBytes over context.Background().
func (e *Engine) ExtractBytesSync(buf []byte, mimeHint string, cfg ExtractionConfig) (*ExtractionResult, error) {
	return e.ExtractBytes(context.Background(), buf, mimeHint, cfg)
}

// BatchExtractFile runs the bounded-concurrency batch pipeline: the returned
// slice has the same length and order as paths; a system-class error (IO,
// OOM, panic) aborts the entire batch, any other per-item error is demoted
// to a Result carrying metadata.error.
func (e *Engine) BatchExtractFile(ctx context.Context, paths []string, cfg ExtractionConfig) ([]*ExtractionResult, error) {
	internalResults, err := e.orch.BatchExtractFile(ctx, paths, cfg)
	if err != nil {
		return nil, err
	}
	results := make([]*ExtractionResult, len(internalResults))
	for i, r := range internalResults {
		if r != nil {
			results[i] = fromInternalResult(r)
		}
	}
	return results, nil
}

// BatchExtractFileSync is BatchExtractFile over context.Background().
func (e *Engine) BatchExtractFileSync(paths []string, cfg ExtractionConfig) ([]*ExtractionResult, error) {
	return e.BatchExtractFile(context.Background(), paths, cfg)
}

// DetectMimeType resolves path's MIME type the way ExtractFile would, without
// running extraction: a syntactically valid mimeHint is returned as-is;
// otherwise the extension table is consulted first, then magic-byte content
// sniffing.
func DetectMimeType(path, mimeHint string) (string, error) {
	return mimetype.DetectOrValidate(path, mimeHint)
}

// DetectMimeTypeBytes is DetectMimeType for an in-memory buffer with no
// backing path.
func DetectMimeTypeBytes(buf []byte, nameHint, mimeHint string) (string, error) {
	return mimetype.DetectOrValidateBytes(buf, nameHint, mimeHint)
}

// CacheStats reports the current footprint of the extraction-result cache.
func (e *Engine) CacheStats() (CacheStats, error) {
	return e.extractCache.Stats()
}

// CacheClear deletes every entry in the extraction-result cache, reporting
// how many entries were removed and how many megabytes were freed.
func (e *Engine) CacheClear() (count int, freedMB float64, err error) {
	return e.extractCache.Clear()
}

// OCRCacheStats reports the current footprint of the OCR result cache.
func (e *Engine) OCRCacheStats() (CacheStats, error) {
	return e.ocrCache.Stats()
}

// OCRCacheClear deletes every entry in the OCR result cache.
func (e *Engine) OCRCacheClear() (count int, freedMB float64, err error) {
	return e.ocrCache.Clear()
}
