package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/catdevman/image-tagger/internal/logging"
)

// Redrive moves up to limit messages from the dead-letter queue back to the
// processing queue. Each message is sent before it is deleted, so a failure
// part way through can duplicate a message but never lose one.
func Redrive(ctx context.Context, client SQSAPI, fromURL, toURL string, limit int) (int, error) {
	l := logging.Ctx(ctx)
	moved := 0

	for limit <= 0 || moved < limit {
		size := int32(maxBatchSize)
		if limit > 0 && limit-moved < maxBatchSize {
			size = int32(limit - moved)
		}

		out, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:              aws.String(fromURL),
			MaxNumberOfMessages:   size,
			WaitTimeSeconds:       1,
			MessageAttributeNames: []string{"All"},
		})
		if err != nil {
			return moved, fmt.Errorf("sqs ReceiveMessage failed: %w", err)
		}
		if len(out.Messages) == 0 {
			break
		}

		for _, m := range out.Messages {
			_, err := client.SendMessage(ctx, &sqs.SendMessageInput{
				QueueUrl:          aws.String(toURL),
				MessageBody:       m.Body,
				MessageAttributes: m.MessageAttributes,
			})
			if err != nil {
				return moved, fmt.Errorf("sqs SendMessage failed for %s: %w", aws.ToString(m.MessageId), err)
			}

			_, err = client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(fromURL),
				ReceiptHandle: m.ReceiptHandle,
			})
			if err != nil {
				return moved, fmt.Errorf("sqs DeleteMessage failed for %s: %w", aws.ToString(m.MessageId), err)
			}

			moved++
			l.Debug().Str(logging.FieldMessageID, aws.ToString(m.MessageId)).Msg("message redriven")
		}
	}

	l.Info().Int("moved", moved).Msg("redrive complete")
	return moved, nil
}
