// Command kreuzberg is the thin CLI adapter over the Engine: extract, batch,
// detect, version, cache stats|clear, plus a serve-queue subcommand that
// starts the asynq/Redis queue front-end.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/adverant/kreuzberg"
	"github.com/adverant/kreuzberg/internal/config"
	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/jobstore"
	"github.com/adverant/kreuzberg/internal/logging"
	"github.com/adverant/kreuzberg/internal/queue"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "kreuzberg",
		Usage:   "Extract text, tables and metadata from documents",
		Version: version,
		Commands: []*cli.Command{
			extractCommand(),
			batchCommand(),
			detectCommand(),
			versionCommand(),
			cacheCommand(),
			serveQueueCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kreuzberg: %v\n", err)
		if errorkind.KindOf(err).IsSystemClass() {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func buildEngine() (*kreuzberg.Engine, error) {
	return kreuzberg.New(kreuzberg.WithLogger(logging.New("kreuzberg-cli")))
}

func extractConfigFromFlags(c *cli.Context) kreuzberg.ExtractionConfig {
	cfg := kreuzberg.ExtractionConfig{UseCache: !c.Bool("no-cache")}

	if c.Bool("ocr") || c.Bool("force-ocr") {
		cfg.ForceOCR = c.Bool("force-ocr")
		cfg.OCR = &kreuzberg.OCRConfig{UseCache: cfg.UseCache}
	}
	if c.Bool("quality") {
		cfg.EnableQualityProcessing = true
	}
	if c.Bool("chunk") {
		cfg.Chunking = &kreuzberg.ChunkingConfig{
			MaxChars:   c.Int("chunk-size"),
			MaxOverlap: c.Int("chunk-overlap"),
		}
	}
	if c.Bool("detect-language") {
		cfg.LanguageDetection = &kreuzberg.LanguageDetectionConfig{MinConfidence: 0.5}
	}
	return cfg
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract content from a single file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mime", Usage: "MIME type hint"},
			&cli.StringFlag{Name: "format", Usage: "Output format: text|json", Value: "text"},
			&cli.BoolFlag{Name: "ocr", Usage: "Attach OCR settings for extractors that run OCR (does not force OCR; see --force-ocr)"},
			&cli.BoolFlag{Name: "force-ocr", Usage: "Force OCR regardless of extractor confidence"},
			&cli.BoolFlag{Name: "no-cache", Usage: "Bypass the extraction cache"},
			&cli.BoolFlag{Name: "chunk", Usage: "Split content into chunks"},
			&cli.IntFlag{Name: "chunk-size", Usage: "Maximum characters per chunk", Value: 2000},
			&cli.IntFlag{Name: "chunk-overlap", Usage: "Characters of overlap between chunks", Value: 200},
			&cli.BoolFlag{Name: "quality", Usage: "Run quality scoring post-processing"},
			&cli.BoolFlag{Name: "detect-language", Usage: "Detect the content's language(s)"},
			&cli.BoolFlag{Name: "async", Usage: "Submit to the queue instead of extracting in-process (requires serve-queue running)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return errors.New("usage: kreuzberg extract <path>")
			}
			path := c.Args().First()
			cfg := extractConfigFromFlags(c)

			if c.Bool("async") {
				redisURL, err := config.RequireEnv("REDIS_URL")
				if err != nil {
					redisURL = "redis://localhost:6379"
				}
				client, err := queue.NewClient(redisURL)
				if err != nil {
					return err
				}
				defer client.Close()
				jobID, err := client.Enqueue(c.Context, path, c.String("mime"), cfg)
				if err != nil {
					return err
				}
				fmt.Printf("job submitted: %s\n", jobID)
				return nil
			}

			engine, err := buildEngine()
			if err != nil {
				return err
			}
			defer engine.Shutdown(c.Context)

			result, err := engine.ExtractFile(c.Context, path, c.String("mime"), cfg)
			if err != nil {
				return err
			}
			return printResult(c, result)
		},
	}
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Extract content from multiple files",
		ArgsUsage: "<paths...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Usage: "Output format: text|json", Value: "json"},
			&cli.BoolFlag{Name: "no-cache", Usage: "Bypass the extraction cache"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return errors.New("usage: kreuzberg batch <paths...>")
			}
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			defer engine.Shutdown(c.Context)

			cfg := kreuzberg.ExtractionConfig{UseCache: !c.Bool("no-cache")}
			results, err := engine.BatchExtractFile(c.Context, c.Args().Slice(), cfg)
			if err != nil {
				return err
			}
			for _, result := range results {
				if err := printResult(c, result); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Detect a file's MIME type without extracting it",
		ArgsUsage: "<path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return errors.New("usage: kreuzberg detect <path>")
			}
			mime, err := kreuzberg.DetectMimeType(c.Args().First(), "")
			if err != nil {
				return err
			}
			fmt.Println(mime)
			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the kreuzberg version",
		Action: func(c *cli.Context) error {
			fmt.Println(version)
			return nil
		},
	}
}

func cacheCommand() *cli.Command {
	cacheDirFlag := &cli.StringFlag{Name: "cache-dir", Usage: "Override the cache root directory"}
	formatFlag := &cli.StringFlag{Name: "format", Usage: "Output format: text|json", Value: "text"}

	withCacheDir := func(c *cli.Context) []kreuzberg.Option {
		if dir := c.String("cache-dir"); dir != "" {
			procCfg := config.LoadProcessConfig()
			procCfg.CacheDir = dir
			return []kreuzberg.Option{kreuzberg.WithProcessConfig(procCfg)}
		}
		return nil
	}

	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the extraction cache",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache footprint",
				Flags: []cli.Flag{cacheDirFlag, formatFlag},
				Action: func(c *cli.Context) error {
					engine, err := kreuzberg.New(withCacheDir(c)...)
					if err != nil {
						return err
					}
					defer engine.Shutdown(c.Context)
					stats, err := engine.CacheStats()
					if err != nil {
						return err
					}
					if c.String("format") == "json" {
						return json.NewEncoder(os.Stdout).Encode(stats)
					}
					fmt.Printf("files: %d  size: %.2fMB  free: %.2fMB  oldest: %.1fd  newest: %.1fd\n",
						stats.TotalFiles, stats.TotalSizeMB, stats.AvailableSpaceMB,
						stats.OldestFileAgeDays, stats.NewestFileAgeDays)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every extraction cache entry",
				Flags: []cli.Flag{cacheDirFlag},
				Action: func(c *cli.Context) error {
					engine, err := kreuzberg.New(withCacheDir(c)...)
					if err != nil {
						return err
					}
					defer engine.Shutdown(c.Context)
					count, freedMB, err := engine.CacheClear()
					if err != nil {
						return err
					}
					fmt.Printf("cleared %d entries, freed %.2fMB\n", count, freedMB)
					return nil
				},
			},
		},
	}
}

// serveQueueCommand starts the asynq/Redis consumer against a configured
// Engine, for deployments that want queue-backed batch submission instead of
// calling the library in-process.
func serveQueueCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve-queue",
		Usage: "(additive) run the Redis-backed extraction job consumer",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "concurrency", Usage: "Number of concurrent extraction workers", Value: 0},
		},
		Action: func(c *cli.Context) error {
			procCfg := config.LoadProcessConfig()
			log := logging.New("kreuzberg-serve-queue")

			engine, err := kreuzberg.New(kreuzberg.WithProcessConfig(procCfg), kreuzberg.WithLogger(log))
			if err != nil {
				return err
			}
			defer engine.Shutdown(c.Context)

			var jobs *jobstore.Store
			if procCfg.DatabaseURL != "" {
				jobs, err = jobstore.New(c.Context, procCfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer jobs.Close()
				if err := jobs.Migrate(c.Context); err != nil {
					return err
				}
			}

			extractFn := func(ctx context.Context, path, mimeHint string, cfg kreuzberg.ExtractionConfig) (map[string]interface{}, error) {
				result, err := engine.ExtractFile(ctx, path, mimeHint, cfg)
				if err != nil {
					return nil, err
				}
				return map[string]interface{}{
					"mime_type":   result.MimeType,
					"chunk_count": len(result.Chunks),
				}, nil
			}

			lock, err := queue.NewDistributedLock(procCfg.RedisURL, 5*time.Minute)
			if err != nil {
				log.Warn("distributed lock unavailable, duplicate extractions across workers are possible", "error", err)
			} else {
				defer lock.Close()
			}

			consumer, err := queue.NewConsumer(queue.ConsumerConfig{
				RedisURL:    procCfg.RedisURL,
				Concurrency: c.Int("concurrency"),
				Extract:     extractFn,
				Jobs:        jobs,
				Lock:        lock,
				Log:         log,
			})
			if err != nil {
				return err
			}
			if err := consumer.Start(); err != nil {
				return err
			}
			log.Info("serve-queue ready", "queue", queue.QueueName)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
			<-sigCh
			return consumer.Stop()
		},
	}
}

func printResult(c *cli.Context, result *kreuzberg.ExtractionResult) error {
	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Println(result.Content)
	if len(result.Chunks) > 0 {
		fmt.Fprintf(os.Stderr, "(%d chunks)\n", len(result.Chunks))
	}
	return nil
}
