// Package parallel splits index ranges across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Workers returns the number of goroutines used for items: one per CPU, never
// more than items.
func Workers(items int) int {
	n := runtime.NumCPU()
	if n > items {
		n = items
	}
	return n
}

// Parallelize splits [0, items) into one contiguous chunk per worker and runs
// fn(start, end) for each chunk concurrently. It returns when every chunk is
// done.
func Parallelize(items int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	workers := Workers(items)
	chunk := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunk {
		end := min(start+chunk, items)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, items) on the calling goroutine when
// items ≤ threshold and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach calls fn for every index in [0, items), concurrently unless
// sequential is set, and returns the errors indexed like the items. The
// slice is nil when every call succeeded.
func ForEach(items int, sequential bool, fn func(i int) error) []error {
	errs := make([]error, items)
	var failed bool
	var mu sync.Mutex

	body := func(start, end int) {
		for i := start; i < end; i++ {
			if err := fn(i); err != nil {
				errs[i] = err
				mu.Lock()
				failed = true
				mu.Unlock()
			}
		}
	}
	if sequential {
		body(0, items)
	} else {
		Parallelize(items, body)
	}

	if !failed {
		return nil
	}
	return errs
}
