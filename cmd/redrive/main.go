package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/catdevman/image-tagger/internal/awsclient"
	"github.com/catdevman/image-tagger/internal/config"
	"github.com/catdevman/image-tagger/internal/logging"
	"github.com/catdevman/image-tagger/internal/queue"
)

func main() {
	limit := flag.Int("limit", 0, "maximum number of messages to move (0 = all)")
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logging.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Log.ServiceName = "redrive"
	logging.Init(cfg.Log)
	l := logging.L()

	if cfg.Queue.URL == "" || cfg.Queue.DeadLetterURL == "" {
		l.Fatal().Msg("QUEUE_URL and DLQ_URL are required")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	clients, err := awsclient.New(ctx, cfg.AWS)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create AWS clients")
	}

	moved, err := queue.Redrive(ctx, clients.SQS, cfg.Queue.DeadLetterURL, cfg.Queue.URL, *limit)
	if err != nil {
		l.Fatal().Err(err).Int("moved", moved).Msg("redrive failed")
	}
}
