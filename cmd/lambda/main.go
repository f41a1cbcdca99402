package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/catdevman/image-tagger/internal/app"
	"github.com/catdevman/image-tagger/internal/awsclient"
	"github.com/catdevman/image-tagger/internal/config"
	"github.com/catdevman/image-tagger/internal/logging"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		l := logging.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(cfg.Log)
	l := logging.L()

	if err := cfg.ValidateProcessor(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	clients, err := awsclient.New(context.Background(), cfg.AWS)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create AWS clients")
	}

	h := app.NewProcessor(cfg, clients)
	l.Info().
		Str("table", cfg.Table.Name).
		Int32("max_labels", cfg.Processor.MaxLabels).
		Bool("geo_enrichment", cfg.Processor.GeoEnrichment).
		Msg("image processor ready")

	lambda.Start(h.Invoke)
}
