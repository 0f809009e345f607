package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/adverant/kreuzberg/internal/extract"
	"github.com/adverant/kreuzberg/internal/jobstore"
	"github.com/adverant/kreuzberg/internal/logging"
)

// QueueName is the single asynq queue every extraction job is submitted to.
const QueueName = "kreuzberg:extract"

// ExtractFunc runs one extraction and reduces it to a result-ledger summary;
// cmd/kreuzberg (serve-queue) and cmd/kreuzberg-worker supply this as a
// closure over a *kreuzberg.Engine so this package never needs to import the
// root package.
type ExtractFunc func(ctx context.Context, path, mimeHint string, cfg extract.Config) (map[string]interface{}, error)

// Client submits extraction jobs onto the queue.
type Client struct {
	inner *asynq.Client
}

// NewClient connects to Redis at redisURL for task submission.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &Client{inner: asynq.NewClient(opt)}, nil
}

// Enqueue submits an extraction job, returning the generated job ID.
func (c *Client) Enqueue(ctx context.Context, path, mimeHint string, cfg extract.Config) (string, error) {
	payload := NewExtractPayload(path, mimeHint, cfg)
	body, err := payload.Marshal()
	if err != nil {
		return "", err
	}
	task := asynq.NewTask(TaskTypeExtract, body)
	if _, err := c.inner.EnqueueContext(ctx, task, asynq.Queue(QueueName)); err != nil {
		return "", fmt.Errorf("failed to enqueue extraction job: %w", err)
	}
	return payload.JobID, nil
}

// Close releases the client's Redis connection.
func (c *Client) Close() error { return c.inner.Close() }

// Consumer runs an asynq server that pulls kreuzberg:extract tasks, runs
// them through the configured ExtractFunc, and records status transitions in
// the job ledger.
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	client *asynq.Client
	log    *logging.Logger
}

// ConsumerConfig configures NewConsumer.
type ConsumerConfig struct {
	RedisURL          string
	Concurrency       int
	Extract           ExtractFunc
	Jobs              *jobstore.Store  // nil disables ledger updates
	Lock              *DistributedLock // nil disables the cross-process in-flight guard
	ProcessingTimeout time.Duration    // default 5 minutes
	Log               *logging.Logger
}

// NewConsumer builds a Consumer ready to Start.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	if cfg.Extract == nil {
		return nil, fmt.Errorf("extract func is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = 5 * time.Minute
	}
	log := cfg.Log
	if log == nil {
		log = logging.Default("queue")
	}

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueName: 10, "default": 1},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			delay := time.Duration(5*(1<<uint(n))) * time.Second
			if delay > 60*time.Second {
				delay = 60 * time.Second
			}
			return delay
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task processing failed", "type", task.Type(), "error", err)
		}),
	})

	mux := asynq.NewServeMux()
	c := &Consumer{server: server, mux: mux, client: client, log: log}
	mux.HandleFunc(TaskTypeExtract, c.handler(cfg))
	return c, nil
}

func (c *Consumer) handler(cfg ConsumerConfig) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := UnmarshalExtractPayload(task.Payload())
		if err != nil {
			return fmt.Errorf("failed to unmarshal extraction job: %w", err)
		}

		if cfg.Lock != nil {
			acquired, lockErr := cfg.Lock.TryAcquire(ctx, payload.Path)
			switch {
			case lockErr != nil:
				c.log.Warn("distributed lock unavailable, proceeding without it", "job_id", payload.JobID, "error", lockErr)
			case !acquired:
				// Another worker process is already extracting this path;
				// returning an error hands the task back to asynq's retry
				// schedule, by which time the winner's cache entry exists.
				c.log.Info("path is being extracted by another worker, deferring", "job_id", payload.JobID, "path", payload.Path)
				return fmt.Errorf("path %s is being extracted by another worker", payload.Path)
			default:
				defer func() {
					if relErr := cfg.Lock.Release(context.Background(), payload.Path); relErr != nil {
						c.log.Warn("failed to release distributed lock", "job_id", payload.JobID, "error", relErr)
					}
				}()
			}
		}

		c.log.Info("processing extraction job", "job_id", payload.JobID, "path", payload.Path)
		c.recordStatus(ctx, cfg.Jobs, payload.JobID, jobstore.StatusProcessing, 0, nil)

		procCtx, cancel := context.WithTimeout(ctx, cfg.ProcessingTimeout)
		defer cancel()

		start := time.Now()
		summary, err := cfg.Extract(procCtx, payload.Path, payload.MimeHint, payload.Config)
		duration := time.Since(start)

		if err != nil {
			c.log.Error("extraction job failed", "job_id", payload.JobID, "error", err, "duration", duration)
			c.recordStatus(ctx, cfg.Jobs, payload.JobID, jobstore.StatusFailed, 100, map[string]interface{}{
				"error": err.Error(),
			})
			return fmt.Errorf("extraction failed: %w", err)
		}
		if summary == nil {
			summary = map[string]interface{}{}
		}
		summary["processing_time_ms"] = duration.Milliseconds()
		c.recordStatus(ctx, cfg.Jobs, payload.JobID, jobstore.StatusCompleted, 100, summary)
		c.log.Info("extraction job completed", "job_id", payload.JobID, "duration", duration)
		return nil
	}
}

func (c *Consumer) recordStatus(ctx context.Context, store *jobstore.Store, jobID string, status jobstore.Status, progress int, summary map[string]interface{}) {
	if store == nil {
		return
	}
	if err := store.Upsert(ctx, jobstore.Update{JobID: jobID, Status: status, Progress: progress, ResultSummary: summary}); err != nil {
		c.log.Warn("failed to record job status", "job_id", jobID, "status", status, "error", err)
	}
}

// Start runs the asynq server in a background goroutine.
func (c *Consumer) Start() error {
	c.log.Info("starting queue consumer", "queue", QueueName)
	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.log.Error("queue consumer exited", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts the server down and closes its client.
func (c *Consumer) Stop() error {
	c.log.Info("stopping queue consumer")
	c.server.Shutdown()
	return c.client.Close()
}
