// Package parallel provides the worker pool used to evaluate filter
// pipelines over row chunks. Work fans out to a fixed set of goroutines
// and fans back in, with an order-preserving variant for operations
// whose results must line up with their input chunks.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing.
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a worker pool. A non-positive size falls back
// to the CPU count.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Process executes work items in parallel. Result order is not
// guaranteed; use ProcessIndexed when it matters.
func Process[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan T, len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					result := worker(item)
					resultCh <- indexedResult[R]{result: result}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for _, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, 0, len(items))
	for result := range resultCh {
		results = append(results, result.result)
	}

	return results
}

// ProcessIndexed executes work items in parallel while keeping each
// result at its input position.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) R,
) []R {
	if len(items) == 0 {
		return nil
	}

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				select {
				case <-wp.ctx.Done():
					return
				default:
					result := worker(item.index, item.value)
					resultCh <- indexedResult[R]{
						index:  item.index,
						result: result,
					}
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-wp.ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}

	return results
}

// Size returns the number of workers.
func (wp *WorkerPool) Size() int {
	return wp.numWorkers
}

// Close shuts down the worker pool.
func (wp *WorkerPool) Close() {
	wp.cancel()
}

type indexedItem[T any] struct {
	index int
	value T
}

type indexedResult[R any] struct {
	index  int
	result R
}
