// Package controller - Runs the pose pipeline over batches of independent (frame, ROI) pairs.
package controller

import (
	"context"
	"image"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/pose"
)

// Frame is a single frame of video.
type Frame struct {
	ID        int
	Image     image.Image
	Timestamp time.Time
}

// Pair is one unit of work: a frame and a region of interest inside it.
type Pair struct {
	Frame Frame
	ROI   images.NormalizedRect
}

// Outcome is the result of one pair. Err is set only for failures; an absent pose is reported
// through Result.
type Outcome struct {
	Pair   Pair
	Result pose.Result
	Err    error
}

// Processor runs the pipeline for a single pair.
type Processor interface {
	Process(ctx context.Context, img image.Image, roi images.NormalizedRect) (pose.Result, error)
}

// Controller fans pairs out to a bounded number of workers.
type Controller struct {
	Processor Processor
	Workers   int
	Log       logrus.FieldLogger
}

// New creates a controller.
//
// Arguments:
//   - p: The pipeline.
//   - workers: The maximum number of pairs processed at once. Zero or less uses GOMAXPROCS.
//   - log: The logger, or nil to discard.
//
// Returns:
//   - *Controller: The controller.
func New(p Processor, workers int, log logrus.FieldLogger) *Controller {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Controller{Processor: p, Workers: workers, Log: log}
}

// ProcessBatch runs every pair and returns outcomes in input order. A failed pair does not stop
// the others; pairs not yet started when ctx is done fail with ctx.Err().
//
// Arguments:
//   - ctx: The context for the batch.
//   - pairs: The pairs to process.
//
// Returns:
//   - []Outcome: One outcome per pair, index aligned with pairs.
func (c *Controller) ProcessBatch(ctx context.Context, pairs []Pair) []Outcome {
	outcomes := make([]Outcome, len(pairs))
	workers := max(1, min(c.Workers, len(pairs)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = c.process(ctx, pairs[i])
			}
		}()
	}

	for i := range pairs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (c *Controller) process(ctx context.Context, pair Pair) Outcome {
	out := Outcome{Pair: pair}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	start := time.Now()
	out.Result, out.Err = c.Processor.Process(ctx, pair.Frame.Image, pair.ROI)

	log := c.Log.WithFields(logrus.Fields{
		"frame":    pair.Frame.ID,
		"duration": time.Since(start),
	})
	if out.Err != nil {
		log.WithError(out.Err).Warn("pair failed")
		return out
	}
	log.WithField("present", out.Result.Presence.Present).Debug("pair processed")
	return out
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Failed  int `json:"failed"`
}

// Summarize counts present, absent and failed outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			s.Failed++
		case o.Result.Presence.Present:
			s.Present++
		default:
			s.Absent++
		}
	}
	return s
}
