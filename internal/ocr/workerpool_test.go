package ocr

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunExecutesFunction(t *testing.T) {
	p := &pool{sem: make(chan struct{}, 2)}
	res, err := p.run(context.Background(), func() (Result, error) {
		return Result{Text: "done"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", res.Text)
}

func TestPool_RunBoundsConcurrency(t *testing.T) {
	p := &pool{sem: make(chan struct{}, 1)}
	var active int32
	var maxActive int32

	done := make(chan struct{})
	go func() {
		p.run(context.Background(), func() (Result, error) {
			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return Result{}, nil
		})
		close(done)
	}()

	_, _ = p.run(context.Background(), func() (Result, error) {
		n := atomic.AddInt32(&active, 1)
		if n > atomic.LoadInt32(&maxActive) {
			atomic.StoreInt32(&maxActive, n)
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return Result{}, nil
	})
	<-done

	assert.LessOrEqual(t, atomic.LoadInt32(&maxActive), int32(1))
}

func TestPool_RunRespectsCancellation(t *testing.T) {
	p := &pool{sem: make(chan struct{}, 1)}
	p.sem <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.run(ctx, func() (Result, error) {
		t.Fatal("fn must not run once the context is already cancelled and the pool is full")
		return Result{}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultWorkerPool_ReturnsSingleton(t *testing.T) {
	a := defaultWorkerPool()
	b := defaultWorkerPool()
	assert.Same(t, a, b)
}
