// Package encode turns the frames of an animation into a file: rendering
// runs on a worker pool, encoded frames are written in order.
package encode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"gpx_triptych/internal/animation"
	"gpx_triptych/internal/metrics"
)

// DefaultFrameWaitTimeout bounds how long the writer waits for the next
// frame in sequence before giving up on a stuck worker.
const DefaultFrameWaitTimeout = 60 * time.Second

var ErrFrameTimeout = errors.New("timed out waiting for frame")

// FrameRenderer draws one tick. It is called from several goroutines.
type FrameRenderer interface {
	Frame(animation.Frame) image.Image
}

type encodedFrame struct {
	Number int
	Data   []byte
	Err    error
}

type Pipeline struct {
	Scheduler        *animation.Scheduler
	Renderer         FrameRenderer
	Sink             Sink
	Workers          int
	FrameWaitTimeout time.Duration
	Progress         bool
}

// Run plays the scheduler from the start into the sink and closes the sink.
// The first error stops the pipeline.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := p.Sink.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	total := p.Scheduler.Ticks()
	tasks := make(chan animation.Frame, workers*2)
	results := make(chan encodedFrame, workers*2)

	p.Scheduler.Reset()
	go func() {
		defer close(tasks)
		for f, ok := p.Scheduler.Next(); ok; f, ok = p.Scheduler.Next() {
			select {
			case tasks <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	// Runs before the sink is closed: no worker may still be encoding.
	defer func() {
		cancel()
		wg.Wait()
	}()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range tasks {
				if ctx.Err() != nil {
					return
				}
				start := time.Now()
				img := p.Renderer.Frame(f)
				metrics.ObserveFrame(start)

				data, err := p.Sink.Encode(img)
				if err != nil {
					err = fmt.Errorf("encode frame %d: %w", f.Cursor, err)
				}
				select {
				case results <- encodedFrame{Number: f.Cursor, Data: data, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	return p.writeInOrder(ctx, results, total)
}

// writeInOrder holds frames that arrive early until their turn comes.
func (p *Pipeline) writeInOrder(ctx context.Context, results <-chan encodedFrame, total int) error {
	wait := p.FrameWaitTimeout
	if wait <= 0 {
		wait = DefaultFrameWaitTimeout
	}
	var bar *progressbar.ProgressBar
	if p.Progress {
		bar = progressbar.Default(int64(total), "Encoding")
	}

	pending := make(map[int][]byte)
	next := 0
	timeout := time.NewTimer(wait)
	defer timeout.Stop()

	for next < total {
		select {
		case f, ok := <-results:
			if !ok {
				return fmt.Errorf("workers stopped after frame %d of %d", next, total)
			}
			if f.Err != nil {
				return f.Err
			}
			pending[f.Number] = f.Data
			if !timeout.Stop() {
				select {
				case <-timeout.C:
				default:
				}
			}
			timeout.Reset(wait)

			for {
				data, found := pending[next]
				if !found {
					break
				}
				if err := p.Sink.Write(next, data); err != nil {
					return fmt.Errorf("write frame %d: %w", next, err)
				}
				if bar != nil {
					bar.Add(1)
				}
				delete(pending, next)
				next++
			}

		case <-timeout.C:
			return fmt.Errorf("%w %d after %v", ErrFrameTimeout, next, wait)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
	slog.Debug("animation written", "frames", total)
	return nil
}
