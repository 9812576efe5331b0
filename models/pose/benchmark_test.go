package pose

import (
	"context"
	"fmt"
	"testing"

	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/inference"
	"github.com/nvr-ai/go-pose/models/model"
)

func BenchmarkPipelineProcess(b *testing.B) {
	cfg := model.DefaultConfig()
	var calls int32
	p, err := NewPipeline(cfg, stubNetwork(networkOutput(cfg, 4, rawPoint{x: 128, y: 128}), &calls, nil))
	if err != nil {
		b.Fatal(err)
	}

	for _, size := range [][2]int{{640, 480}, {1920, 1080}} {
		frame := grayImage(size[0], size[1])
		roi := images.NormalizedRect{CenterX: 0.5, CenterY: 0.5, Width: 0.4, Height: 0.6, Rotation: 0.2}

		b.Run(fmt.Sprintf("%dx%d", size[0], size[1]), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := p.Process(context.Background(), frame, roi); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkDecodeProjection(b *testing.B) {
	cfg := model.DefaultConfig()
	out := networkOutput(cfg, 4, rawPoint{x: 128, y: 128})
	landmarks, _, err := SplitOutput(inference.Vector(out), cfg)
	if err != nil {
		b.Fatal(err)
	}
	opts := NewDecodeOptions(cfg)
	padding := images.LetterboxPadding{Top: 0.125, Bottom: 0.125}
	roi := images.NormalizedRect{CenterX: 0.4, CenterY: 0.6, Width: 0.3, Height: 0.2, Rotation: 0.5}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		decoded, err := DecodeLandmarks(landmarks, opts)
		if err != nil {
			b.Fatal(err)
		}
		ProjectToFrame(RemoveLetterbox(decoded, padding), roi, ProjectOptions{FrameWidth: 1280, FrameHeight: 720})
	}
}
