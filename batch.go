package texblend

import (
	"context"
	"runtime"
	"sync"
)

// BatchResult is the outcome of one task in BlendAll.
type BatchResult struct {
	Task   *Task
	Result *Result
	Err    error
}

// BlendAll composites independent tasks concurrently with at most workers calls in flight.
// Non-positive workers uses GOMAXPROCS. Results keep the order of tasks.
//
// Cancelling ctx stops dispatching, tasks that were not started get ctx.Err().
// Calls already running finish normally.
func BlendAll(ctx context.Context, tasks []*Task, workers int, opts ...func(o *Options)) []BatchResult {
	results := make([]BatchResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	c := NewCompositor(opts...)
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, t := range tasks {
		results[i].Task = t

		select {
		case <-ctx.Done():
			results[i].Err = ctx.Err()
			continue
		case sem <- struct{}{}:
		}

		// Cancellation may race with a free slot.
		if err := ctx.Err(); err != nil {
			<-sem
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, t *Task) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i].Result, results[i].Err = c.Blend(t)
		}(i, t)
	}
	wg.Wait()

	return results
}
