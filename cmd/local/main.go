package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/events"
	"github.com/joho/godotenv"

	"github.com/catdevman/image-tagger/internal/app"
	"github.com/catdevman/image-tagger/internal/awsclient"
	"github.com/catdevman/image-tagger/internal/config"
	"github.com/catdevman/image-tagger/internal/logging"
	"github.com/catdevman/image-tagger/internal/queue"
)

func main() {
	bucket := flag.String("bucket", "", "S3 bucket name")
	key := flag.String("key", "", "S3 object key")
	poll := flag.Bool("poll", false, "consume QUEUE_URL until interrupted")
	configPath := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		l := logging.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}
	cfg.Log.Pretty = true
	logging.Init(cfg.Log)
	l := logging.L()

	if !*poll && (*bucket == "" || *key == "") {
		l.Fatal().Msg("usage: local -bucket <bucket> -key <key> | local -poll")
	}
	if err := cfg.ValidateProcessor(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clients, err := awsclient.New(ctx, cfg.AWS)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create AWS clients")
	}
	h := app.NewProcessor(cfg, clients)

	if *poll {
		if cfg.Queue.URL == "" {
			l.Fatal().Msg("QUEUE_URL is required for -poll")
		}
		p := &queue.Poller{
			Client:      clients.SQS,
			QueueURL:    cfg.Queue.URL,
			Invoker:     h,
			BatchSize:   cfg.Queue.BatchSize,
			WaitSeconds: cfg.Queue.WaitSeconds,
		}
		if err := p.Run(ctx); err != nil {
			l.Fatal().Err(err).Msg("poller failed")
		}
		return
	}

	payload, err := singleObjectBatch(*bucket, *key)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to build event")
	}

	resp, err := h.Invoke(ctx, payload)
	if err != nil || resp.StatusCode != 200 {
		l.Fatal().Err(err).Int("status", resp.StatusCode).Str("body", resp.Body).Msg("processing failed")
	}
	l.Info().Str("body", resp.Body).Msg("success")
}

// singleObjectBatch wraps one object in the same SQS-over-S3 envelope the
// queue delivers to the Lambda function.
func singleObjectBatch(bucket, key string) (json.RawMessage, error) {
	s3Event := events.S3Event{
		Records: []events.S3EventRecord{
			{
				EventSource: "aws:s3",
				EventName:   "ObjectCreated:Put",
				S3: events.S3Entity{
					Bucket: events.S3Bucket{Name: bucket},
					Object: events.S3Object{Key: url.QueryEscape(key)},
				},
			},
		},
	}
	body, err := json.Marshal(s3Event)
	if err != nil {
		return nil, err
	}

	return json.Marshal(events.SQSEvent{
		Records: []events.SQSMessage{
			{
				MessageId:   "local-1",
				Body:        string(body),
				EventSource: "aws:sqs",
				Attributes:  map[string]string{"ApproximateReceiveCount": "1"},
			},
		},
	})
}
