// Command poseworker serves pose requests over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/go-pose/config"
	"github.com/nvr-ai/go-pose/logger"
	"github.com/nvr-ai/go-pose/worker"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
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
	if cfg.MQTT == nil {
		log.Fatal("mqtt section is required")
	}

	pipeline, engine, err := cfg.NewPipeline(log)
	if err != nil {
		log.WithError(err).Fatal("can't build pipeline")
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := worker.New(*cfg.MQTT, pipeline, log)
	if err := w.Start(ctx); err != nil {
		log.WithError(err).Fatal("can't start worker")
	}
	log.Info("worker started")

	<-ctx.Done()
	log.Info("shutting down worker")
	w.Stop()
}
