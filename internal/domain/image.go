package domain

import (
	"encoding/json"
	"strings"
)

// ObjectRef identifies an uploaded image by its bucket and key.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// Label is a single detected visual concept.
type Label struct {
	Name       string
	Confidence float32
}

// LabelNames returns the names of labels in detection order.
// The result is never nil so it is stored as an empty list rather than NULL.
func LabelNames(labels []Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		names = append(names, l.Name)
	}
	return names
}

// Record is the row written to the tags table for every processed image.
// ProcessedMarker keeps the historical ProcessedTimestamp attribute name
// because downstream readers depend on it; it holds the invocation identifier.
type Record struct {
	ImageKey        string   `json:"imageKey" dynamodbav:"ImageKey"`
	Labels          []string `json:"labels" dynamodbav:"Labels"`
	ProcessedMarker string   `json:"processedTimestamp" dynamodbav:"ProcessedTimestamp"`
	Latitude        *float64 `json:"latitude,omitempty" dynamodbav:"Latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty" dynamodbav:"Longitude,omitempty"`
}

// Status is the result carried by an Outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const (
	subjectComplete = "Image Processing Complete: "
	subjectError    = "Image Processing Error"

	// SNS rejects subjects longer than this.
	maxSubjectLen = 100
)

// Outcome is published to the notification topic after an image is processed
// or when a whole batch fails.
type Outcome struct {
	Bucket   string   `json:"bucket,omitempty"`
	ImageKey string   `json:"imageKey,omitempty"`
	Labels   []string `json:"labels"`
	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`
}

type errorBody struct {
	Status Status `json:"status"`
	Error  string `json:"error"`
}

// MarshalJSON always writes labels for a success, even when none were
// detected, and writes only status and error for a failure.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Status == StatusError {
		return json.Marshal(errorBody{Status: o.Status, Error: o.Error})
	}
	type plain Outcome
	if o.Labels == nil {
		o.Labels = []string{}
	}
	return json.Marshal(plain(o))
}

// SuccessOutcome builds the notification for a processed image.
func SuccessOutcome(ref ObjectRef, labels []string) Outcome {
	return Outcome{
		Bucket:   ref.Bucket,
		ImageKey: ref.Key,
		Labels:   labels,
		Status:   StatusSuccess,
	}
}

// ErrorOutcome builds the notification for a batch-level failure.
func ErrorOutcome(msg string) Outcome {
	return Outcome{Status: StatusError, Error: msg}
}

// Subject returns the notification subject line.
func (o Outcome) Subject() string {
	if o.Status == StatusError {
		return subjectError
	}
	return sanitizeSubject(subjectComplete + o.ImageKey)
}

// sanitizeSubject replaces characters SNS does not accept in a subject
// (anything outside printable ASCII) and truncates to the allowed length.
func sanitizeSubject(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() == maxSubjectLen {
			break
		}
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b.WriteRune(r)
	}
	return b.String()
}
