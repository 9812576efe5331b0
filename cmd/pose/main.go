// Command pose prints the upper-body landmarks of one ROI in an image, or in every image of a
// directory, as JSON lines.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/controller"
	"github.com/nvr-ai/go-pose/images"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/models/pose"
	"github.com/nvr-ai/go-pose/util"
)

type output struct {
	Path      string            `json:"path"`
	Frame     int               `json:"frame"`
	Present   bool              `json:"present"`
	Score     float32           `json:"score"`
	Landmarks pose.LandmarkList `json:"landmarks,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to the JSON config file")
	input := flag.String("image", "", "image file or directory of images")
	roiFlag := flag.String("roi", "0.5,0.5,1,1,0", "roi as center_x,center_y,width,height,rotation")
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

	if err := run(cfg, log, *input, *roiFlag); err != nil {
		log.WithError(err).Fatal("pose failed")
	}
}

func run(cfg config.AppConfig, log *logrus.Logger, input, roiFlag string) error {
	if input == "" {
		return fmt.Errorf("-image is required")
	}
	roi, err := parseROI(roiFlag)
	if err != nil {
		return err
	}

	files, err := loadInput(input)
	if err != nil {
		return err
	}

	pipeline, engine, err := cfg.NewPipeline(log)
	if err != nil {
		return err
	}
	defer engine.Close()

	pairs := make([]controller.Pair, 0, len(files))
	paths := make([]string, 0, len(files))
	for _, f := range files {
		img, err := images.Decode(f.Data, f.Format)
		if err != nil {
			log.WithError(err).WithField("path", f.Path).Warn("skipping undecodable image")
			continue
		}
		pairs = append(pairs, controller.Pair{
			Frame: controller.Frame{ID: f.Frame, Image: img, Timestamp: time.Now()},
			ROI:   roi,
		})
		paths = append(paths, f.Path)
	}

	outcomes := controller.New(pipeline, cfg.Workers, log).ProcessBatch(context.Background(), pairs)

	enc := jsoniter.NewEncoder(os.Stdout)
	for i, o := range outcomes {
		line := output{Path: paths[i], Frame: o.Pair.Frame.ID, Score: o.Result.Presence.Score}
		if o.Err != nil {
			line.Error = o.Err.Error()
		} else if landmarks, ok := o.Result.Landmarks(); ok {
			line.Present = true
			line.Landmarks = landmarks
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{"summary": controller.Summarize(outcomes)}).Info("done")
	return nil
}

func loadInput(path string) ([]util.ImageFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return util.LoadDirectoryImageFiles(path)
	}
	f, err := util.LoadImageFile(path)
	if err != nil {
		return nil, err
	}
	return []util.ImageFile{f}, nil
}

func parseROI(s string) (images.NormalizedRect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 && len(parts) != 5 {
		return images.NormalizedRect{}, fmt.Errorf("roi %q needs 4 or 5 comma separated values", s)
	}
	vals := make([]float32, 5)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return images.NormalizedRect{}, fmt.Errorf("invalid roi value %q: %w", p, err)
		}
		vals[i] = float32(v)
	}
	roi := images.NormalizedRect{
		CenterX: vals[0], CenterY: vals[1], Width: vals[2], Height: vals[3], Rotation: vals[4],
	}
	return roi, roi.Validate()
}
