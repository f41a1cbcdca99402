package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/catdevman/image-tagger/internal/domain"
	"github.com/catdevman/image-tagger/internal/logging"
)

// --- Interfaces ---

type Detector interface {
	DetectLabels(ctx context.Context, ref domain.ObjectRef) ([]domain.Label, error)
}

type ResultStore interface {
	PutRecord(ctx context.Context, rec domain.Record) error
}

type Notifier interface {
	Publish(ctx context.Context, outcome domain.Outcome) error
}

type Locator interface {
	Locate(ctx context.Context, ref domain.ObjectRef) (float64, float64, error)
}

// --- Handler ---

const (
	completeBody = "Processing complete"
	// batchErrorPrefix starts the 500 body and the error notification text.
	batchErrorPrefix = "error processing batch: "
)

// Response is returned to the Lambda runtime.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Handler turns a batch of queued S3 notifications into tag records and
// outcome notifications. Locator is optional; when set, GPS coordinates
// are added to the record on a best-effort basis.
type Handler struct {
	Detector Detector
	Store    ResultStore
	Notifier Notifier
	Locator  Locator
	// FallbackMarker is recorded when there is no Lambda context, e.g. local runs.
	FallbackMarker string
}

// Invoke is the Lambda entry point. It never returns an error: the queue sees
// every delivered batch as consumed and per-item failures only show in logs
// and in the returned status.
func (h *Handler) Invoke(ctx context.Context, payload json.RawMessage) (resp Response, err error) {
	ctx = h.requestContext(ctx)
	l := logging.Ctx(ctx)
	l.Debug().Bytes("event", payload).Msg("received event")

	defer func() {
		if r := recover(); r != nil {
			resp = h.fail(ctx, fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	msgs, err := DecodeBatch(payload)
	if err != nil {
		return h.fail(ctx, err), nil
	}

	report := h.ProcessBatch(ctx, msgs)
	l.Info().
		Int("records", len(report.Items)).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Int("malformed", report.Malformed()).
		Msg("batch processed")

	return Response{StatusCode: http.StatusOK, Body: completeBody}, nil
}

// ProcessBatch handles each message in order. A failing message never stops
// the ones after it.
func (h *Handler) ProcessBatch(ctx context.Context, msgs []Message) BatchReport {
	report := BatchReport{Items: make([]ItemResult, 0, len(msgs))}
	for _, m := range msgs {
		report.Items = append(report.Items, h.processMessage(ctx, m))
	}
	return report
}

func (h *Handler) processMessage(ctx context.Context, m Message) (res ItemResult) {
	res = ItemResult{MessageID: m.MessageID, ReceiveCount: m.ReceiveCount(), Stage: StageDecode}
	l := logging.Ctx(ctx).With().Str(logging.FieldMessageID, m.MessageID).Logger()

	defer func() {
		if r := recover(); r != nil {
			res.Status = ItemFailed
			res.Err = fmt.Errorf("panic: %v", r)
			l.Error().Err(res.Err).Str("stage", string(res.Stage)).Msg("error processing record")
		}
	}()

	ref, err := DecodeObjectRef(m.Body)
	if err != nil {
		res.Status = ItemMalformed
		res.Err = err
		l.Error().Err(err).Bytes("body", m.Body).Msg("skipping message")
		return res
	}
	res.Ref = ref
	l = l.With().Str(logging.FieldBucket, ref.Bucket).Str(logging.FieldKey, ref.Key).Logger()
	l.Info().Int("receive_count", res.ReceiveCount).Msg("processing image")

	fail := func(stage Stage, err error) ItemResult {
		res.Status = ItemFailed
		res.Stage = stage
		res.Err = err
		l.Error().Err(err).Str("stage", string(stage)).Msg("error processing record")
		return res
	}

	res.Stage = StageDetect
	labels, err := h.Detector.DetectLabels(ctx, ref)
	if err != nil {
		return fail(StageDetect, err)
	}
	res.Labels = domain.LabelNames(labels)
	l.Info().Strs("labels", res.Labels).Msg("detected labels")

	rec := domain.Record{
		ImageKey:        ref.Key,
		Labels:          res.Labels,
		ProcessedMarker: h.marker(ctx),
	}
	if h.Locator != nil {
		lat, long, err := h.Locator.Locate(ctx, ref)
		if err != nil {
			l.Warn().Err(err).Msg("no coordinates for image")
		} else {
			rec.Latitude, rec.Longitude = &lat, &long
		}
	}

	res.Stage = StageStore
	if err := h.Store.PutRecord(ctx, rec); err != nil {
		return fail(StageStore, err)
	}
	l.Info().Msg("saved tag record")

	res.Stage = StageNotify
	if err := h.Notifier.Publish(ctx, domain.SuccessOutcome(ref, res.Labels)); err != nil {
		return fail(StageNotify, err)
	}
	l.Info().Msg("published notification")

	res.Stage = StageDone
	res.Status = ItemSucceeded
	return res
}

// fail handles a batch-level error: one best-effort error notification and a 500.
func (h *Handler) fail(ctx context.Context, err error) Response {
	l := logging.Ctx(ctx)
	msg := batchErrorPrefix + err.Error()
	l.Error().Err(err).Msg("batch failed")

	if perr := h.Notifier.Publish(ctx, domain.ErrorOutcome(msg)); perr != nil {
		l.Error().Err(perr).Msg("could not publish error notification")
	}

	return Response{StatusCode: http.StatusInternalServerError, Body: msg}
}

// marker is the invoked function ARN, kept for compatibility with readers of
// the ProcessedTimestamp attribute.
func (h *Handler) marker(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.InvokedFunctionArn != "" {
		return lc.InvokedFunctionArn
	}
	return h.FallbackMarker
}

func (h *Handler) requestContext(ctx context.Context) context.Context {
	lc, ok := lambdacontext.FromContext(ctx)
	if !ok {
		return ctx
	}
	l := logging.Ctx(ctx).With().Str(logging.FieldRequestID, lc.AwsRequestID).Logger()
	return logging.WithLogger(ctx, l)
}
