// Command posecam runs the pose pipeline on a capture device and draws the skeleton.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/pose"
)

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	deviceID := flag.Int("device", 0, "video capture device")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pipeline, engine, err := cfg.NewPipeline(log)
	if err != nil {
		log.WithError(err).Fatal("can't build pipeline")
	}
	defer engine.Close()

	webcam, err := gocv.OpenVideoCapture(*deviceID)
	if err != nil {
		log.WithError(err).Fatal("can't open capture device")
	}
	defer webcam.Close()

	window := gocv.NewWindow("Pose")
	defer window.Close()

	img := gocv.NewMat()
	defer img.Close()

	green := color.RGBA{0, 255, 0, 0}
	red := color.RGBA{255, 0, 0, 0}

	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.WithField("device", *deviceID).Info("start reading camera device")
	for {
		if ok := webcam.Read(&img); !ok {
			log.WithField("device", *deviceID).Error("cannot read device")
			return
		}
		if img.Empty() {
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		frame, err := img.ToImage()
		if err != nil {
			log.WithError(err).Warn("can't convert frame")
			continue
		}

		result, err := pipeline.Process(context.Background(), frame, images.FullFrame())
		if err != nil {
			log.WithError(err).Warn("pose pipeline failed")
			continue
		}
		if landmarks, ok := result.Landmarks(); ok {
			drawSkeleton(&img, landmarks, green, red)
		}

		gocv.PutText(&img, fmt.Sprintf("score %.2f | FPS %.1f", result.Presence.Score, fps),
			image.Pt(10, 20), gocv.FontHersheyPlain, 1.2, green, 2)

		window.IMShow(img)
		window.WaitKey(1)
	}
}

func drawSkeleton(img *gocv.Mat, landmarks pose.LandmarkList, edge, joint color.RGBA) {
	w, h := float32(img.Cols()), float32(img.Rows())
	pt := func(p pose.BodyPart) image.Point {
		lm := landmarks[p]
		return image.Pt(int(lm.X*w), int(lm.Y*h))
	}

	for _, c := range pose.UpperBodyConnections {
		gocv.Line(img, pt(c.From), pt(c.To), edge, 2)
	}
	for i := range landmarks {
		gocv.Circle(img, pt(pose.BodyPart(i)), 3, joint, -1)
	}
}
