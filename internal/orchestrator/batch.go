package orchestrator

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/adverant/kreuzberg/internal/errorkind"
	"github.com/adverant/kreuzberg/internal/extract"
)

func defaultBatchWorkers() int {
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}

// BatchExtractFile runs the bounded-concurrency batch pipeline: output has
// the same length and order as paths; completion order is not observable. A
// system-class error (IO, OOM, panic) aborts the entire batch; any other
// error is demoted to a per-item Result carrying metadata.error.
func (o *Orchestrator) BatchExtractFile(ctx context.Context, paths []string, cfg extract.Config) ([]*Result, error) {
	if len(paths) == 0 {
		return []*Result{}, nil
	}

	results := make([]*Result, len(paths))
	sem := semaphore.NewWeighted(int64(o.BatchWorkers))
	g, gctx := errgroup.WithContext(ctx)

	for i, p := range paths {
		i, p := i, p
		g.Go(func() (err error) {
			if acqErr := sem.Acquire(gctx, 1); acqErr != nil {
				return acqErr
			}
			defer sem.Release(1)

			defer func() {
				if r := recover(); r != nil {
					err = errorkind.NewSystem("panic during batch extraction", nil)
				}
			}()

			res, extractErr := o.ExtractFile(gctx, p, "", cfg)
			if extractErr == nil {
				results[i] = res
				return nil
			}

			kind := errorkind.KindOf(extractErr)
			if kind.IsSystemClass() {
				return extractErr
			}
			results[i] = errorResult(kind, extractErr)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// errorResult builds the per-item error Result: content "Error: <message>",
// mime_type "text/plain", metadata.error set.
func errorResult(kind errorkind.Kind, err error) *Result {
	return &Result{
		Content:  "Error: " + err.Error(),
		MimeType: "text/plain",
		Metadata: map[string]interface{}{
			"error": map[string]interface{}{
				"type":    string(kind),
				"message": err.Error(),
			},
		},
	}
}
