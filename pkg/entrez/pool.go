package entrez

import (
	"context"
	"sync"
)

// runBatches fans the batches out across the configured workers. The first
// batch to fail cancels everything still in flight and its error is
// returned; results keep batch order.
func runBatches[T, R any](ctx context.Context, workers int, batches []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if workers <= 0 {
		workers = 1
	}
	if workers > len(batches) {
		workers = len(batches)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	errs := make(chan error, 1)
	results := make([]R, len(batches))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				result, err := fn(ctx, batches[i])
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					cancel()
					return
				}
				results[i] = result
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()

	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
