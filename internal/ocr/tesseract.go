package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/kreuzberg/internal/cache"
	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/logging"
)

// candidateTessdataDirs is probed when TESSDATA_PREFIX is unset: these
// well-known install locations are tried in order and the first that exists
// wins.
var candidateTessdataDirs = []string{
	"/opt/homebrew/share/tessdata",
	"/opt/homebrew/opt/tesseract/share/tessdata",
	"/usr/local/opt/tesseract/share/tessdata",
	"/usr/share/tessdata",
	"/usr/local/share/tessdata",
	`C:\Program Files\Tesseract-OCR\tessdata`,
	`C:\ProgramData\Tesseract-OCR\tessdata`,
}

var controlCharStrip = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)

// TesseractBackend is the default OCR backend: gosseract (cgo bindings to
// libtesseract) serves the text/hOCR paths, while TSV acquisition shells out
// to the tesseract CLI binary directly, since gosseract has no TSV accessor.
// Both paths run on the shared bounded worker pool.
type TesseractBackend struct {
	cache *cache.Engine
	log   *logging.Logger
}

// NewTesseractBackend wires an optional OCR result cache and a logger.
func NewTesseractBackend(ocrCache *cache.Engine, log *logging.Logger) *TesseractBackend {
	if log == nil {
		log = logging.Default("ocr")
	}
	return &TesseractBackend{cache: ocrCache, log: log}
}

func (b *TesseractBackend) Name() string { return "tesseract" }

func (b *TesseractBackend) SupportsLanguage(lang string) bool {
	// Tesseract ships data files per language; we can't enumerate installed
	// traineddata without shelling out, so optimistically claim every language
	// and let Process surface an OCR error if the data file is absent.
	return lang != ""
}

func (b *TesseractBackend) Initialize(ctx context.Context) error { return nil }
func (b *TesseractBackend) Shutdown(ctx context.Context) error { return nil }

// debugStage emits one structured diagnostic line per pipeline stage on stderr
// when KREUZBERG_OCR_DEBUG is set; the slog handler supplies the timestamp.
func (b *TesseractBackend) debugStage(stage string, kv ...interface{}) {
	if !logging.OCRDebugEnabled() {
		return
	}
	b.log.Info("ocr stage", append([]interface{}{"stage", stage}, kv...)...)
}

// Process runs the OCR flow described for the Tesseract backend: validate,
// check cache, decode dimensions (left to gosseract internally), offload to the
// worker pool, optionally acquire TSV for table reconstruction, strip control
// characters, and cache the result.
func (b *TesseractBackend) Process(ctx context.Context, image []byte, cfg Config) (Result, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	b.debugStage("validate", "language", cfg.Language, "psm", cfg.PSM)

	cacheKey := ""
	if cfg.UseCache && b.cache != nil {
		cacheKey = ocrCacheKey(image, cfg)
		if payload, ok := b.cache.Get(cacheKey, ""); ok {
			if res, ok := decodeCachedResult(payload); ok {
				b.debugStage("cache_hit", "key", cacheKey)
				return res, nil
			}
		}
	}

	b.debugStage("worker_pool_submit", "image_bytes", len(image))
	start := time.Now()
	res, err := defaultWorkerPool().run(ctx, func() (Result, error) {
		return b.processBlocking(image, cfg)
	})
	if err != nil {
		return Result{}, err
	}
	res.Duration = time.Since(start)

	if cacheKey != "" {
		if payload, ok := encodeCachedResult(res); ok {
			_ = b.cache.Set(cacheKey, payload, "")
			b.debugStage("cache_store", "key", cacheKey)
		}
	}
	return res, nil
}

func (b *TesseractBackend) processBlocking(image []byte, cfg Config) (Result, error) {
	dataPath := resolveTessdataPrefix()

	client := gosseract.NewClient()
	defer client.Close()

	if dataPath != "" {
		if err := client.SetTessdataPrefix(dataPath); err != nil {
			return Result{}, errorkind.NewMissingDependency("tesseract data directory", err)
		}
	}
	if err := client.SetLanguage(cfg.Language); err != nil {
		return Result{}, errorkind.NewOCR("set-language", err)
	}
	if cfg.PSM > 0 {
		_ = client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM))
	}
	if cfg.Whitelist != "" {
		_ = client.SetWhitelist(cfg.Whitelist)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return Result{}, errorkind.NewOCR("set-image", err)
	}

	metadata := map[string]interface{}{
		"language":    cfg.Language,
		"psm":         cfg.PSM,
		"output_form": string(cfg.OutputForm),
	}

	var text string
	needsTSV := cfg.EnableTableDetection || cfg.OutputForm == OutputTSV
	var table *Table

	switch cfg.OutputForm {
	case OutputMarkdown:
		hocr, err := client.HOCRText()
		if err != nil {
			return Result{}, errorkind.NewOCR("hocr", err)
		}
		text = hocrToMarkdown(hocr)
	case OutputHOCR:
		hocr, err := client.HOCRText()
		if err != nil {
			return Result{}, errorkind.NewOCR("hocr", err)
		}
		text = hocr
	default:
		plain, err := client.Text()
		if err != nil {
			return Result{}, errorkind.NewOCR("text", err)
		}
		text = plain
	}

	if needsTSV {
		b.debugStage("tsv_acquire")
		tsv, err := tesseractCLITSV(image, cfg)
		if err != nil {
			b.log.Warn("tsv acquisition failed, table reconstruction skipped", "error", err)
		} else {
			words := parseTSV(tsv, cfg.TableMinConfidence)
			b.debugStage("tsv_parsed", "tsv_lines", strings.Count(tsv, "\n"), "words", len(words))
			if cfg.OutputForm == OutputTSV {
				text = tsv
			}
			table = reconstructTable(words, cfg.TableColumnThreshold, cfg.TableRowThresholdRatio)
			metadata["table_word_count"] = len(words)
			if table != nil {
				metadata["table_row_count"] = len(table.Rows)
			}
		}
	}

	text = controlCharStrip.ReplaceAllString(text, "")

	return Result{
		Text:       text,
		Table:      table,
		Language:   cfg.Language,
		PSM:        cfg.PSM,
		OutputForm: cfg.OutputForm,
		Metadata:   metadata,
	}, nil
}

// tesseractCLITSV shells out to the tesseract CLI binary for literal TSV
// output, since gosseract exposes no TSV accessor (only Text/HOCRText). The
// image is piped to the binary via a temp file because the CLI only accepts a
// path or "-" for stdin image data depending on build, and writing to a
// predictable temp path keeps this portable across Tesseract builds.
func tesseractCLITSV(image []byte, cfg Config) (string, error) {
	tmp, err := os.CreateTemp("", "kreuzberg-ocr-*.png")
	if err != nil {
		return "", errorkind.NewIO("failed to create temp image for tsv acquisition", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", errorkind.NewIO("failed to write temp image for tsv acquisition", err)
	}
	tmp.Close()

	args := []string{tmp.Name(), "stdout", "-l", cfg.Language}
	if cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(cfg.PSM))
	}
	args = append(args, "tsv")

	cmd := exec.Command("tesseract", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if _, lookErr := exec.LookPath("tesseract"); lookErr != nil {
			return "", errorkind.NewMissingDependency("tesseract CLI binary", lookErr)
		}
		return "", errorkind.NewOCR("tsv", err)
	}
	return stdout.String(), nil
}

func resolveTessdataPrefix() string {
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" {
		return v
	}
	for _, dir := range candidateTessdataDirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

