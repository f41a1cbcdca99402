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

	cfg.Log.ServiceName = "image-api"
	logging.Init(cfg.Log)
	l := logging.L()

	if err := cfg.ValidateAPI(); err != nil {
		l.Fatal().Err(err).Msg("invalid config")
	}

	clients, err := awsclient.New(context.Background(), cfg.AWS)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to create AWS clients")
	}

	lambda.Start(app.NewAPI(cfg, clients).Handle)
}
