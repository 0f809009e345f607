package orchestrator

import (
	"fmt"
	"strconv"

	"github.com/adverant/kreuzberg/internal/cache"
	"github.com/adverant/kreuzberg/internal/extract"
)

// fileCacheKey builds the cache.GenerateKey input for ExtractFile: canonical
// path, source size/mtime, MIME and a digest of the config fields that affect
// extraction output.
func fileCacheKey(canonicalPath string, size, mtimeUnix int64, mimeType string, cfg extract.Config) string {
	return cache.GenerateKey([]cache.Pair{
		{Name: "path", Value: canonicalPath},
		{Name: "size", Value: strconv.FormatInt(size, 10)},
		{Name: "mtime", Value: strconv.FormatInt(mtimeUnix, 10)},
		{Name: "mime", Value: mimeType},
		{Name: "config", Value: configDigest(cfg)},
	})
}

// bytesCacheKey mirrors fileCacheKey for ExtractBytes: the source identity is
// the content hash itself rather than a path/size/mtime triple, so no sidecar
// invalidation is meaningful.
func bytesCacheKey(buf []byte, mimeType string, cfg extract.Config) string {
	return cache.GenerateKey([]cache.Pair{
		{Name: "content_hash", Value: strconv.FormatUint(cache.FastHash(buf), 16)},
		{Name: "mime", Value: mimeType},
		{Name: "config", Value: configDigest(cfg)},
	})
}

// configDigest renders the subset of ExtractionConfig that changes extraction
// output into a deterministic string. Pointer fields are dereferenced
// explicitly (never %v'd directly) so the digest is a function of config
// values, not pointer identity.
func configDigest(cfg extract.Config) string {
	d := fmt.Sprintf("cache=%t|force_ocr=%t|quality=%t", cfg.UseCache, cfg.ForceOCR, cfg.EnableQualityProcessing)
	if cfg.OCR != nil {
		d += fmt.Sprintf("|ocr=%s,%d,%s,%t", cfg.OCR.Language, cfg.OCR.PSM, cfg.OCR.OutputForm, cfg.OCR.EnableTableDetection)
	}
	if cfg.Chunking != nil {
		d += fmt.Sprintf("|chunk=%d,%d", cfg.Chunking.MaxChars, cfg.Chunking.MaxOverlap)
	}
	if cfg.LanguageDetection != nil {
		d += fmt.Sprintf("|lang=%f,%t", cfg.LanguageDetection.MinConfidence, cfg.LanguageDetection.DetectMultiple)
	}
	if cfg.PDFOptions != nil {
		d += fmt.Sprintf("|pdf=%t,%s", cfg.PDFOptions.ExtractImages, cfg.PDFOptions.PasswordHint)
	}
	if cfg.TokenReduction != nil {
		d += fmt.Sprintf("|tr=%s,%s", cfg.TokenReduction.Level, cfg.TokenReduction.Language)
	}
	return d
}
