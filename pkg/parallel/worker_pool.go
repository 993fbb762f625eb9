// Package parallel provides the bounded fan-out used to run many
// independent reductions at once. The engine itself is single-threaded
// per heap; what this package parallelizes is whole-heap runs — the
// convergence sweep across gas limits and the benchmark suite — each on
// its own Heap, never sharing one.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// PoolConfig bounds a fan-out: how many goroutines run at once and how
// long the whole batch may take.
type PoolConfig struct {
	// MaxWorkers caps concurrent goroutines. Zero or negative means
	// DefaultPoolConfig's choice.
	MaxWorkers int

	// Timeout bounds the entire batch; zero means no bound. Work items
	// already running when the deadline passes still finish — the pool
	// stops handing out new ones.
	Timeout time.Duration
}

// DefaultPoolConfig sizes the pool to the machine, capped at 8 workers:
// each worker runs a full reduction with its own heap, so past a
// handful of workers the memory-bandwidth cost outweighs the extra
// parallelism.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a copy of c with MaxWorkers replaced.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy of c with Timeout replaced.
func (c PoolConfig) WithTimeout(d time.Duration) PoolConfig {
	c.Timeout = d
	return c
}

func (c PoolConfig) workers(jobs int) int {
	n := c.MaxWorkers
	if n <= 0 {
		n = DefaultPoolConfig().MaxWorkers
	}
	if n > jobs {
		n = jobs
	}
	return n
}

// Result pairs one input with what running it produced.
type Result[T, R any] struct {
	Input    T
	Value    R
	Err      error
	Duration time.Duration
}

// Run executes fn over every input with at most config.MaxWorkers
// goroutines in flight, returning results in input order. A canceled or
// timed-out context leaves the remaining results zero-valued with the
// context's error.
func Run[T, R any](ctx context.Context, config PoolConfig, inputs []T, fn func(ctx context.Context, input T) (R, error)) []Result[T, R] {
	if len(inputs) == 0 {
		return nil
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	results := make([]Result[T, R], len(inputs))
	var next atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < config.workers(len(inputs)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= len(inputs) {
					return
				}
				if err := ctx.Err(); err != nil {
					results[i] = Result[T, R]{Input: inputs[i], Err: err}
					continue
				}
				start := time.Now()
				value, err := fn(ctx, inputs[i])
				results[i] = Result[T, R]{
					Input:    inputs[i],
					Value:    value,
					Err:      err,
					Duration: time.Since(start),
				}
			}
		}()
	}
	wg.Wait()
	return results
}

// MapReduce maps every item concurrently, then reduces the mapped
// values (in input order) on the calling goroutine.
func MapReduce[T, M, R any](
	ctx context.Context,
	items []T,
	config PoolConfig,
	mapper func(ctx context.Context, item T) M,
	reducer func(mapped []M) R,
) R {
	if len(items) == 0 {
		var zero R
		return zero
	}
	results := Run(ctx, config, items, func(ctx context.Context, item T) (M, error) {
		return mapper(ctx, item), nil
	})
	mapped := make([]M, len(results))
	for i, r := range results {
		mapped[i] = r.Value
	}
	return reducer(mapped)
}

// ForEach runs fn over every item concurrently, returning how many
// calls succeeded and the error from the first (by input order) that
// failed.
func ForEach[T any](
	ctx context.Context,
	items []T,
	config PoolConfig,
	fn func(ctx context.Context, item T) error,
) (succeeded int64, firstErr error) {
	results := Run(ctx, config, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		} else if firstErr == nil {
			firstErr = r.Err
		}
	}
	return succeeded, firstErr
}
