package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/catdevman/image-tagger/internal/domain"
)

var (
	// ErrMissingRecords means the invocation payload is not a queue batch.
	ErrMissingRecords = errors.New("event has no Records")
	// ErrMalformedMessage means a queued message does not carry a storage event.
	ErrMalformedMessage = errors.New("unexpected message format")
)

// Message is one queued notification as delivered in the batch. Body is kept
// raw because it may arrive as a JSON string or as an already decoded object.
type Message struct {
	MessageID  string            `json:"messageId"`
	Body       json.RawMessage   `json:"body"`
	Attributes map[string]string `json:"attributes"`
}

// ReceiveCount reports how many times the queue has delivered this message.
func (m Message) ReceiveCount() int {
	n, _ := strconv.Atoi(m.Attributes["ApproximateReceiveCount"])
	return n
}

type batchEnvelope struct {
	Records *[]Message `json:"Records"`
}

// DecodeBatch parses the invocation payload into its queued messages.
func DecodeBatch(payload []byte) ([]Message, error) {
	var env batchEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if env.Records == nil {
		return nil, ErrMissingRecords
	}
	return *env.Records, nil
}

// DecodeObjectRef extracts the uploaded object from a message body holding an
// S3 event notification. Only the first inner record is used; S3 sends one
// per notification.
func DecodeObjectRef(body json.RawMessage) (domain.ObjectRef, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.ObjectRef{}, fmt.Errorf("%w: empty body", ErrMalformedMessage)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.ObjectRef{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		raw = []byte(s)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return domain.ObjectRef{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if _, ok := probe["Records"]; !ok {
		return domain.ObjectRef{}, fmt.Errorf("%w: no Records in body", ErrMalformedMessage)
	}

	var evt events.S3Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		return domain.ObjectRef{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(evt.Records) == 0 {
		return domain.ObjectRef{}, fmt.Errorf("%w: empty Records", ErrMalformedMessage)
	}

	s3 := evt.Records[0].S3
	ref := domain.ObjectRef{Bucket: s3.Bucket.Name, Key: s3.Object.URLDecodedKey}
	if ref.Bucket == "" || ref.Key == "" {
		return domain.ObjectRef{}, fmt.Errorf("%w: missing bucket name or object key", ErrMalformedMessage)
	}
	return ref, nil
}
