package controller

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
	"github.com/nvr-ai/go-pose/models/pose"
)

// MockProcessor reports presence from the ROI center and tracks concurrency.
type MockProcessor struct {
	active    int32
	maxActive int32
	failAt    float32
	delay     time.Duration
}

func (m *MockProcessor) Process(_ context.Context, _ image.Image, roi images.NormalizedRect) (pose.Result, error) {
	n := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		cur := atomic.LoadInt32(&m.maxActive)
		if n <= cur || atomic.CompareAndSwapInt32(&m.maxActive, cur, n) {
			break
		}
	}
	time.Sleep(m.delay)

	if roi.CenterX == m.failAt {
		return pose.Result{}, errors.New("mock failure")
	}
	return pose.Result{Presence: pose.Presence{Score: roi.CenterX, Present: roi.CenterX > 0.5}}, nil
}

func pairs(centers ...float32) []Pair {
	out := make([]Pair, len(centers))
	for i, c := range centers {
		out[i] = Pair{
			Frame: Frame{ID: i, Image: image.NewRGBA(image.Rect(0, 0, 8, 8))},
			ROI:   images.NormalizedRect{CenterX: c, CenterY: 0.5, Width: 0.2, Height: 0.2},
		}
	}
	return out
}

func TestProcessBatchOrderAndErrors(t *testing.T) {
	m := &MockProcessor{failAt: 0.3}
	c := New(m, 3, nil)

	outcomes := c.ProcessBatch(context.Background(), pairs(0.9, 0.3, 0.1, 0.7, 0.3))
	require.Len(t, outcomes, 5)
	for i, o := range outcomes {
		assert.Equal(t, i, o.Pair.Frame.ID, "outcomes keep input order")
	}
	assert.True(t, outcomes[0].Result.Presence.Present)
	assert.Error(t, outcomes[1].Err)
	assert.NoError(t, outcomes[2].Err)
	assert.False(t, outcomes[2].Result.Presence.Present)

	assert.Equal(t, Summary{Total: 5, Present: 2, Absent: 1, Failed: 2}, Summarize(outcomes))
}

func TestProcessBatchBoundsConcurrency(t *testing.T) {
	m := &MockProcessor{failAt: -1, delay: 5 * time.Millisecond}
	c := New(m, 2, nil)

	outcomes := c.ProcessBatch(context.Background(), pairs(0.1, 0.2, 0.3, 0.4, 0.6, 0.7, 0.8, 0.9))
	assert.Len(t, outcomes, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&m.maxActive), int32(2))
}

func TestProcessBatchCanceled(t *testing.T) {
	m := &MockProcessor{failAt: -1}
	c := New(m, 1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes := c.ProcessBatch(ctx, pairs(0.6, 0.7))
	for _, o := range outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	c := New(&MockProcessor{}, 0, nil)
	assert.Positive(t, c.Workers)
	assert.Empty(t, c.ProcessBatch(context.Background(), nil))
}

func TestProcessBatchWithPipeline(t *testing.T) {
	cfg := model.DefaultConfig()
	out := make([]float32, cfg.OutputSize())
	out[0], out[1] = 128, 128
	out[cfg.BlockOffset(cfg.FlagRange.Begin)] = 3

	var mu sync.Mutex
	calls := 0
	p, err := pose.NewPipeline(cfg, inference.InferFunc(func(context.Context, *tensor.Dense) (*tensor.Dense, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		data := make([]float32, len(out))
		copy(data, out)
		return inference.Vector(data), nil
	}))
	require.NoError(t, err)

	batch := pairs(0.25, 0.5, 0.75)
	outcomes := New(p, 2, nil).ProcessBatch(context.Background(), batch)
	for i, o := range outcomes {
		require.NoError(t, o.Err)
		landmarks, ok := o.Result.Landmarks()
		require.True(t, ok)
		assert.InDelta(t, batch[i].ROI.CenterX, landmarks[pose.Nose].X, 1e-5)
	}
	assert.Equal(t, 3, calls)
}
