// Package app assembles handlers from configuration and AWS clients.
package app

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/catdevman/image-tagger/internal/api"
	"github.com/catdevman/image-tagger/internal/awsclient"
	"github.com/catdevman/image-tagger/internal/config"
	"github.com/catdevman/image-tagger/internal/detect"
	"github.com/catdevman/image-tagger/internal/geo"
	"github.com/catdevman/image-tagger/internal/notify"
	"github.com/catdevman/image-tagger/internal/processor"
	"github.com/catdevman/image-tagger/internal/tagstore"
)

// NewProcessor wires the message processor to Rekognition, DynamoDB and SNS,
// plus S3 when geo enrichment is on.
func NewProcessor(cfg *config.Config, clients *awsclient.Clients) *processor.Handler {
	h := &processor.Handler{
		Detector: &detect.RekognitionDetector{
			Client:        clients.Rekognition,
			MaxLabels:     cfg.Processor.MaxLabels,
			MinConfidence: cfg.Processor.MinConfidence,
		},
		Store:          &tagstore.Store{Client: clients.DynamoDB, TableName: cfg.Table.Name},
		Notifier:       &notify.Publisher{Client: clients.SNS, TopicARN: cfg.Topic.ARN},
		FallbackMarker: cfg.Processor.Marker,
	}
	if cfg.Processor.GeoEnrichment {
		h.Locator = &geo.S3Locator{Client: clients.S3, Parser: &geo.ExifParser{}}
	}
	return h
}

func NewAPI(cfg *config.Config, clients *awsclient.Clients) *api.Handler {
	return &api.Handler{
		Records:      &tagstore.Store{Client: clients.DynamoDB, TableName: cfg.Table.Name},
		Presigner:    s3.NewPresignClient(clients.S3),
		Bucket:       cfg.Storage.Bucket,
		UploadPrefix: cfg.API.UploadPrefix,
		UploadExpiry: cfg.API.UploadURLExpiry,
	}
}
