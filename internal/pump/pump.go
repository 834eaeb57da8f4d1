package pump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/forPelevin/karaoke/internal/domain/compose"
	"github.com/forPelevin/karaoke/internal/domain/layout"
	"github.com/forPelevin/karaoke/internal/logging"
	"github.com/forPelevin/karaoke/internal/ports"
)

// Renderer draws one window into a frame. Implementations need not be safe
// for concurrent use; the pump builds one per worker.
type Renderer interface {
	Render(dst *compose.Frame, win layout.Window, t float64)
}

// Pump drives the frame loop and is the only writer of the encoder stream.
type Pump struct {
	Selector    layout.Selector
	NewRenderer func() Renderer
	Width       int
	Height      int
	FPS         int
	// Workers > 1 renders frames in parallel; they are still written strictly in order.
	Workers  int
	Logger   *slog.Logger
	Progress func(done, total int)
}

// TotalFrames is floor(duration * fps).
func TotalFrames(duration float64, fps int) int {
	if duration <= 0 || fps <= 0 {
		return 0
	}
	return int(math.Floor(duration * float64(fps)))
}

// Run writes frames [0, total) to sess and then closes it. The session is
// closed on every path, including failures and cancellation; what was written
// to the output by then is undefined.
func (p *Pump) Run(ctx context.Context, sess ports.EncodeSession, total int) (err error) {
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	if p.Workers > 1 {
		return p.runParallel(ctx, sess, total)
	}
	return p.runSequential(ctx, sess, total)
}

func (p *Pump) timeOf(i int) float64 { return float64(i) / float64(p.FPS) }

func (p *Pump) runSequential(ctx context.Context, w io.Writer, total int) error {
	r := p.NewRenderer()
	frame := compose.NewFrame(p.Width, p.Height)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := p.timeOf(i)
		r.Render(frame, p.Selector.Select(t), t)
		if _, err := w.Write(frame.Pix); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		p.report(i+1, total)
	}
	return nil
}

type rendered struct {
	index int
	frame *compose.Frame
}

// runParallel renders frames on a worker pool and drains them in index order.
// At most 2*Workers frames are in flight, which bounds the reorder buffer.
func (p *Pump) runParallel(ctx context.Context, w io.Writer, total int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	inflight := 2 * p.Workers
	jobs := make(chan int)
	results := make(chan rendered, inflight)
	slots := make(chan struct{}, inflight)
	pool := sync.Pool{New: func() any { return compose.NewFrame(p.Width, p.Height) }}

	go func() {
		defer close(jobs)
		for i := 0; i < total && ctx.Err() == nil; i++ {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for k := 0; k < p.Workers; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := p.NewRenderer()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				f := pool.Get().(*compose.Frame)
				t := p.timeOf(i)
				r.Render(f, p.Selector.Select(t), t)
				select {
				case results <- rendered{index: i, frame: f}:
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

	pending := make(map[int]*compose.Frame, inflight)
	next := 0
	var writeErr error
	for res := range results {
		if writeErr != nil {
			continue
		}
		pending[res.index] = res.frame
		for {
			f, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if _, err := w.Write(f.Pix); err != nil {
				writeErr = fmt.Errorf("frame %d: %w", next, err)
				cancel()
				break
			}
			pool.Put(f)
			<-slots
			next++
			p.report(next, total)
		}
	}
	if writeErr != nil {
		return writeErr
	}
	if next < total {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("frame pipeline stopped at frame %d of %d", next, total)
	}
	return nil
}

func (p *Pump) report(done, total int) {
	if p.Progress != nil {
		p.Progress(done, total)
	}
	if p.Logger == nil || p.FPS <= 0 {
		return
	}
	// every 15 seconds of video, plus the last frame
	if done%(15*p.FPS) == 0 || done == total {
		p.Logger.Info("render progress",
			logging.Int("frame", done),
			logging.Int("total_frames", total),
			logging.Float64("video_sec", p.timeOf(done)),
			logging.String("percent", fmt.Sprintf("%.0f%%", 100*float64(done)/float64(max(total, 1)))),
		)
	}
}
