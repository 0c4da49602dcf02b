package thermal

import (
	"runtime"
	"sync"
)

// ParallelConfig configures how the element-wise transforms split work
// across goroutines.
type ParallelConfig struct {
	// NumWorkers is the number of worker goroutines. 0 means
	// runtime.GOMAXPROCS(0).
	NumWorkers int

	// GrainSize is the minimum rows per worker before parallelization.
	// If total rows < GrainSize * NumWorkers, the work runs
	// sequentially.
	GrainSize int
}

// DefaultParallelConfig returns the default parallel configuration.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		NumWorkers: 0,
		GrainSize:  16, // a 60x80 Lepton frame stays sequential on most machines
	}
}

var (
	parallelConfig   = DefaultParallelConfig()
	parallelConfigMu sync.RWMutex
)

// SetParallelConfig sets the global parallel configuration.
func SetParallelConfig(config ParallelConfig) {
	parallelConfigMu.Lock()
	defer parallelConfigMu.Unlock()
	parallelConfig = config
}

// GetParallelConfig returns the current parallel configuration.
func GetParallelConfig() ParallelConfig {
	parallelConfigMu.RLock()
	defer parallelConfigMu.RUnlock()
	return parallelConfig
}

func effectiveWorkers(config ParallelConfig) int {
	if config.NumWorkers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return config.NumWorkers
}

// ParallelFor runs fn(i) for i in [0, n) across the configured number
// of workers. If n is small or there is only one worker, it runs
// sequentially.
func ParallelFor(n int, fn func(i int)) {
	config := GetParallelConfig()
	numWorkers := effectiveWorkers(config)

	if n <= config.GrainSize*numWorkers || numWorkers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				fn(i)
			}
		}(start, end)
	}

	wg.Wait()
}

// ParallelForWithError runs fn(i) for i in [0, n) in parallel and
// returns the first error encountered (order not guaranteed). Workers
// stop their own chunk on error; other chunks run to completion.
func ParallelForWithError(n int, fn func(i int) error) error {
	config := GetParallelConfig()
	numWorkers := effectiveWorkers(config)

	if n <= config.GrainSize*numWorkers || numWorkers == 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if err := fn(i); err != nil {
					errOnce.Do(func() {
						firstErr = err
					})
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}
