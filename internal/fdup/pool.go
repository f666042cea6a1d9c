package fdup

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// readBufferSize is the per-worker read buffer used while hashing.
const readBufferSize = 64 * 1024

// workItem addresses one file inside a size bucket.
type workItem struct {
	size  uint64
	index int
}

// Pool is a fixed-size set of workers consuming a shared queue.
type Pool struct {
	size int
}

// NewPool creates a pool with the given number of workers.
// Zero or a negative count means one worker per available CPU.
func NewPool(threads int) *Pool {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	return &Pool{size: max(threads, 1)}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Run starts feed as the sole producer of the queue and processes every queued
// item on the pool's workers. Each worker owns a read buffer for the duration
// of the run. Run returns once the queue is exhausted, or with the first error
// returned by feed or work.
func (p *Pool) Run(
	ctx context.Context,
	feed func(ctx context.Context, queue chan<- workItem) error,
	work func(item workItem, buf []byte) error,
) error {
	queue := make(chan workItem)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(queue)

		return feed(ctx, queue)
	})

	for range p.size {
		eg.Go(func() error {
			buf := make([]byte, readBufferSize)

			for item := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}

				if err := work(item, buf); err != nil {
					return err
				}
			}

			return nil
		})
	}

	return eg.Wait()
}
