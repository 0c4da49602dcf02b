package thermal

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestParallelForCoversAllIndices(t *testing.T) {
	SetParallelConfig(ParallelConfig{NumWorkers: 4, GrainSize: 1})
	defer SetParallelConfig(DefaultParallelConfig())

	const n = 1000
	var hits [n]int32
	ParallelFor(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	})
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, h)
		}
	}
}

func TestParallelForSequentialSmallN(t *testing.T) {
	// Below the grain threshold the order must be sequential.
	var order []int
	ParallelFor(8, func(i int) {
		order = append(order, i)
	})
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestParallelForWithError(t *testing.T) {
	SetParallelConfig(ParallelConfig{NumWorkers: 4, GrainSize: 1})
	defer SetParallelConfig(DefaultParallelConfig())

	boom := errors.New("boom")
	err := ParallelForWithError(500, func(i int) error {
		if i == 250 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}

	if err := ParallelForWithError(500, func(i int) error { return nil }); err != nil {
		t.Fatalf("error = %v, want nil", err)
	}
}
