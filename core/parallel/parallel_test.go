package parallel

import (
	"sync/atomic"
	"testing"
)

func TestParallelizeCoversAllItems(t *testing.T) {
	const items = 1000
	var hits [items]int32

	Parallelize(items, func(start, end int) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&hits[i], 1)
		}
	})

	for i, h := range hits {
		if h != 1 {
			t.Fatalf("item %d visited %d times, want 1", i, h)
		}
	}
}

func TestParallelizeZeroItems(t *testing.T) {
	called := false
	Parallelize(0, func(start, end int) { called = true })
	if called {
		t.Error("fn must not run for zero items")
	}
}

func TestSetMaxWorkers(t *testing.T) {
	defer SetMaxWorkers(0)

	SetMaxWorkers(2)
	if got := MaxWorkers(); got != 2 {
		t.Errorf("MaxWorkers() = %d, want 2", got)
	}

	SetMaxWorkers(-5)
	if got := MaxWorkers(); got < 1 {
		t.Errorf("MaxWorkers() = %d, want NumCPU default", got)
	}
}

func TestParallelizeWithThreshold(t *testing.T) {
	var count int32
	ParallelizeWithThreshold(4, 10, func(start, end int) {
		// Below threshold: a single sequential range.
		if start != 0 || end != 4 {
			t.Errorf("range = [%d, %d), want [0, 4)", start, end)
		}
		atomic.AddInt32(&count, 1)
	})
	if count != 1 {
		t.Errorf("fn ran %d times, want 1", count)
	}
}

func TestForEach(t *testing.T) {
	var sum int64
	ForEach(100, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	if sum != 4950 {
		t.Errorf("sum = %d, want 4950", sum)
	}
}
