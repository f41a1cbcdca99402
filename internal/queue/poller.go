package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/catdevman/image-tagger/internal/logging"
	"github.com/catdevman/image-tagger/internal/processor"
)

const (
	maxBatchSize = 10
	retryDelay   = time.Second
)

type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, params *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// Invoker receives batches in the same shape the Lambda runtime delivers them.
type Invoker interface {
	Invoke(ctx context.Context, payload json.RawMessage) (processor.Response, error)
}

// Poller feeds messages from an SQS queue to an Invoker outside Lambda.
// A batch is deleted only when the invoker accepts it; otherwise the
// messages become visible again and follow the queue's redrive policy.
type Poller struct {
	Client      SQSAPI
	QueueURL    string
	Invoker     Invoker
	BatchSize   int32
	WaitSeconds int32
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	l := logging.Ctx(ctx)
	l.Info().Str("queue_url", p.QueueURL).Msg("poller started")

	for {
		if ctx.Err() != nil {
			l.Info().Msg("poller stopped")
			return nil
		}

		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			l.Error().Err(err).Msg("poll failed")
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
		}
	}
}

// PollOnce runs one receive, invoke, delete cycle and returns how many
// messages were received.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	l := logging.Ctx(ctx)

	size := p.BatchSize
	if size <= 0 || size > maxBatchSize {
		size = maxBatchSize
	}

	out, err := p.Client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:                    aws.String(p.QueueURL),
		MaxNumberOfMessages:         size,
		WaitTimeSeconds:             p.WaitSeconds,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{types.MessageSystemAttributeNameAll},
	})
	if err != nil {
		return 0, fmt.Errorf("sqs ReceiveMessage failed: %w", err)
	}
	if len(out.Messages) == 0 {
		return 0, nil
	}

	payload, err := json.Marshal(toEvent(out.Messages))
	if err != nil {
		return len(out.Messages), fmt.Errorf("failed to marshal batch: %w", err)
	}

	resp, err := p.Invoker.Invoke(ctx, payload)
	if err != nil {
		return len(out.Messages), fmt.Errorf("invoke failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		l.Warn().Int("status", resp.StatusCode).Str("body", resp.Body).Msg("batch rejected, leaving messages for redelivery")
		return len(out.Messages), nil
	}

	if err := p.deleteBatch(ctx, out.Messages); err != nil {
		return len(out.Messages), err
	}
	l.Info().Int("messages", len(out.Messages)).Msg("batch consumed")
	return len(out.Messages), nil
}

func (p *Poller) deleteBatch(ctx context.Context, msgs []types.Message) error {
	entries := make([]types.DeleteMessageBatchRequestEntry, 0, len(msgs))
	for i, m := range msgs {
		entries = append(entries, types.DeleteMessageBatchRequestEntry{
			Id:            aws.String(strconv.Itoa(i)),
			ReceiptHandle: m.ReceiptHandle,
		})
	}

	out, err := p.Client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(p.QueueURL),
		Entries:  entries,
	})
	if err != nil {
		return fmt.Errorf("sqs DeleteMessageBatch failed: %w", err)
	}

	var errs []error
	for _, f := range out.Failed {
		errs = append(errs, fmt.Errorf("delete entry %s: %s", aws.ToString(f.Id), aws.ToString(f.Message)))
	}
	return errors.Join(errs...)
}

func toEvent(msgs []types.Message) events.SQSEvent {
	evt := events.SQSEvent{Records: make([]events.SQSMessage, 0, len(msgs))}
	for _, m := range msgs {
		evt.Records = append(evt.Records, events.SQSMessage{
			MessageId:     aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
			Md5OfBody:     aws.ToString(m.MD5OfBody),
			Attributes:    m.Attributes,
			EventSource:   "aws:sqs",
		})
	}
	return evt
}
