// Package awsclient builds the SDK clients shared by the commands.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/catdevman/image-tagger/internal/config"
)

// Clients holds one client per service the pipeline talks to.
type Clients struct {
	S3          *s3.Client
	DynamoDB    *dynamodb.Client
	Rekognition *rekognition.Client
	SNS         *sns.Client
	SQS         *sqs.Client
}

// New loads the default credential chain and creates the service clients.
// A custom endpoint (LocalStack) is applied to every client when configured.
func New(ctx context.Context, cfg config.AWSConfig) (*Clients, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var endpoint *string
	if cfg.Endpoint != "" {
		endpoint = aws.String(cfg.Endpoint)
	}

	return &Clients{
		S3: s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if endpoint != nil {
				o.BaseEndpoint = endpoint
				o.UsePathStyle = true
			}
		}),
		DynamoDB: dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}),
		Rekognition: rekognition.NewFromConfig(awsCfg, func(o *rekognition.Options) {
			if endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}),
		SNS: sns.NewFromConfig(awsCfg, func(o *sns.Options) {
			if endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}),
		SQS: sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if endpoint != nil {
				o.BaseEndpoint = endpoint
			}
		}),
	}, nil
}
