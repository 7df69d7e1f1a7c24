// Package concurrency runs independent jobs over a slice on a bounded pool of workers.
package concurrency

import (
	"sync"
)

// minItemsForParallel is the smallest batch worth spreading over workers.
const minItemsForParallel = 4

// Map calls workerFunc for every item and returns the results in input order.
// With fewer than two workers, or a small batch, items are processed in order
// on the calling goroutine and the first error stops the batch. Otherwise the
// first error observed is returned once all workers have finished.
func Map[T any, U any](workers int, items []T, workerFunc func(index int, item T) (U, error)) ([]U, error) {
	results := make([]U, len(items))
	if len(items) == 0 {
		return results, nil
	}

	if workers < 2 || len(items) < minItemsForParallel {
		for i, item := range items {
			res, err := workerFunc(i, item)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	// --- Parallel Execution Path ---
	if workers > len(items) {
		workers = len(items)
	}
	jobs := make(chan int, len(items))
	errs := make(chan error, len(items))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res, err := workerFunc(i, items[i])
				if err != nil {
					errs <- err
					continue
				}
				results[i] = res
			}
		}()
	}

	for i := range items {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return nil, err
	}
	return results, nil
}
