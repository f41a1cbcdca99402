package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/catdevman/image-tagger/internal/domain"
)

type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher sends outcome notifications to an SNS topic.
type Publisher struct {
	Client   SNSAPI
	TopicARN string
}

func (p *Publisher) Publish(ctx context.Context, outcome domain.Outcome) error {
	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	_, err = p.Client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.TopicARN),
		Subject:  aws.String(outcome.Subject()),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sns Publish failed: %w", err)
	}
	return nil
}
