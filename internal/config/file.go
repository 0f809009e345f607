package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"

	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/ocr"
	"github.com/adverant/kreuzberg/internal/postprocess"
)

// configFileNames is the closed list of discoverable config file names, tried
// in this order at each directory level while walking from CWD toward the
// filesystem root.
var configFileNames = []string{"kreuzberg.toml", "kreuzberg.yaml", "kreuzberg.yml", "kreuzberg.json"}

// DiscoverConfigFile walks from startDir toward the filesystem root, returning
// the first kreuzberg.(toml|yaml|yml|json) it finds.
func DiscoverConfigFile(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for {
		for _, name := range configFileNames {
			candidate := filepath.Join(dir, name)
			if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
				return candidate, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// FileConfig mirrors ExtractionConfig's field set for the on-disk schema,
// one wire-format pointer per field so callers can tell "absent" from
// "false"/"zero".
type FileConfig struct {
	UseCache                *bool                  `toml:"use_cache" yaml:"use_cache" json:"use_cache"`
	ForceOCR                *bool                  `toml:"force_ocr" yaml:"force_ocr" json:"force_ocr"`
	EnableQualityProcessing *bool                  `toml:"enable_quality_processing" yaml:"enable_quality_processing" json:"enable_quality_processing"`
	OCR                     *OCRFileConfig         `toml:"ocr" yaml:"ocr" json:"ocr"`
	Chunking                *ChunkingFileConfig    `toml:"chunking" yaml:"chunking" json:"chunking"`
	LanguageDetection       *LanguageFileConfig    `toml:"language_detection" yaml:"language_detection" json:"language_detection"`
	TokenReduction          *TokenReductionFileCfg `toml:"token_reduction" yaml:"token_reduction" json:"token_reduction"`
}

type OCRFileConfig struct {
	Backend                string  `toml:"backend" yaml:"backend" json:"backend"`
	Language               string  `toml:"language" yaml:"language" json:"language"`
	PSM                    int     `toml:"psm" yaml:"psm" json:"psm"`
	OutputForm             string  `toml:"output_form" yaml:"output_form" json:"output_form"`
	Whitelist              string  `toml:"whitelist" yaml:"whitelist" json:"whitelist"`
	EnableTableDetection   bool    `toml:"enable_table_detection" yaml:"enable_table_detection" json:"enable_table_detection"`
	TableMinConfidence     float64 `toml:"table_min_confidence" yaml:"table_min_confidence" json:"table_min_confidence"`
	TableColumnThreshold   int     `toml:"table_column_threshold" yaml:"table_column_threshold" json:"table_column_threshold"`
	TableRowThresholdRatio float64 `toml:"table_row_threshold_ratio" yaml:"table_row_threshold_ratio" json:"table_row_threshold_ratio"`
}

type ChunkingFileConfig struct {
	MaxChars   int `toml:"max_chars" yaml:"max_chars" json:"max_chars"`
	MaxOverlap int `toml:"max_overlap" yaml:"max_overlap" json:"max_overlap"`
}

type LanguageFileConfig struct {
	Enabled        bool    `toml:"enabled" yaml:"enabled" json:"enabled"`
	MinConfidence  float64 `toml:"min_confidence" yaml:"min_confidence" json:"min_confidence"`
	DetectMultiple bool    `toml:"detect_multiple" yaml:"detect_multiple" json:"detect_multiple"`
}

type TokenReductionFileCfg struct {
	Mode             string   `toml:"mode" yaml:"mode" json:"mode"`
	Language         string   `toml:"language" yaml:"language" json:"language"`
	PreserveMarkdown bool     `toml:"preserve_markdown" yaml:"preserve_markdown" json:"preserve_markdown"`
	PreserveCode     bool     `toml:"preserve_code" yaml:"preserve_code" json:"preserve_code"`
	PreservePatterns []string `toml:"preserve_patterns" yaml:"preserve_patterns" json:"preserve_patterns"`
}

// LoadFileConfig parses path according to its extension: .toml with
// go-toml/v2, .yaml/.yml with yaml.v3, .json with encoding/json.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	case ".json":
		err = json.Unmarshal(data, &fc)
	default:
		return nil, fmt.Errorf("unrecognized config file extension: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &fc, nil
}

// ToExtractionConfig converts the on-disk, optional-pointer schema into the
// pipeline's extract.Config, applying documented zero-value defaults for any
// absent field.
func (fc *FileConfig) ToExtractionConfig() extract.Config {
	cfg := extract.Config{UseCache: true}
	if fc == nil {
		return cfg
	}
	if fc.UseCache != nil {
		cfg.UseCache = *fc.UseCache
	}
	if fc.ForceOCR != nil {
		cfg.ForceOCR = *fc.ForceOCR
	}
	if fc.EnableQualityProcessing != nil {
		cfg.EnableQualityProcessing = *fc.EnableQualityProcessing
	}
	if fc.OCR != nil {
		cfg.OCR = &ocr.Config{
			Backend:                fc.OCR.Backend,
			Language:               fc.OCR.Language,
			PSM:                    fc.OCR.PSM,
			OutputForm:             ocr.OutputForm(fc.OCR.OutputForm),
			Whitelist:              fc.OCR.Whitelist,
			EnableTableDetection:   fc.OCR.EnableTableDetection,
			TableMinConfidence:     fc.OCR.TableMinConfidence,
			TableColumnThreshold:   fc.OCR.TableColumnThreshold,
			TableRowThresholdRatio: fc.OCR.TableRowThresholdRatio,
			UseCache:               cfg.UseCache,
		}
	}
	if fc.Chunking != nil {
		cfg.Chunking = &postprocess.ChunkingConfig{MaxChars: fc.Chunking.MaxChars, MaxOverlap: fc.Chunking.MaxOverlap}
	}
	if fc.LanguageDetection != nil && fc.LanguageDetection.Enabled {
		cfg.LanguageDetection = &postprocess.LanguageDetectionConfig{
			MinConfidence:  fc.LanguageDetection.MinConfidence,
			DetectMultiple: fc.LanguageDetection.DetectMultiple,
		}
	}
	if fc.TokenReduction != nil {
		cfg.TokenReduction = &postprocess.TokenReductionConfig{
			Level:            postprocess.ReductionLevel(fc.TokenReduction.Mode),
			Language:         fc.TokenReduction.Language,
			PreserveMarkdown: fc.TokenReduction.PreserveMarkdown,
			PreserveCode:     fc.TokenReduction.PreserveCode,
			PreservePatterns: fc.TokenReduction.PreservePatterns,
		}
	}
	return cfg
}
