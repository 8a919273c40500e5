// Package parallel is the stock parallel backend used by resampling and
// tuning: it chunks independent units of work (folds, grid candidates, rows)
// across a bounded number of goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// maxWorkers caps the worker count for all Parallelize calls. Zero means
// runtime.NumCPU().
var maxWorkers int64

// SetMaxWorkers registers the backend width. This is the single knob the
// analyses expose for parallelism; n <= 0 restores the NumCPU default.
func SetMaxWorkers(n int) {
	if n < 0 {
		n = 0
	}
	atomic.StoreInt64(&maxWorkers, int64(n))
}

// MaxWorkers returns the effective worker cap.
func MaxWorkers() int {
	n := int(atomic.LoadInt64(&maxWorkers))
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Parallelize splits items across workers and calls fn once per contiguous
// range [start, end). It blocks until all ranges complete.
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := MaxWorkers()
	if numWorkers > items {
		numWorkers = items
	}

	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold parallelizes only when items exceeds threshold;
// below it the work runs sequentially on the calling goroutine.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach runs fn once per index in [0, items), fanned out across the
// backend. It is the per-unit variant used for fold-by-fold work where each
// unit is expensive.
func ForEach(items int, fn func(i int)) {
	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}
