package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/catdevman/image-tagger/internal/domain"
	"github.com/catdevman/image-tagger/internal/logging"
	"github.com/catdevman/image-tagger/internal/tagstore"
)

const defaultUploadExpiry = 15 * time.Minute

type RecordReader interface {
	GetRecord(ctx context.Context, imageKey string) (domain.Record, error)
	ListRecords(ctx context.Context) ([]domain.Record, error)
}

type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Handler serves upload URLs and stored tags over API Gateway.
type Handler struct {
	Records      RecordReader
	Presigner    PresignAPI
	Bucket       string
	UploadPrefix string
	UploadExpiry time.Duration
}

var corsHeaders = map[string]string{
	"Content-Type":                 "application/json",
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
	method := req.RequestContext.HTTP.Method
	p := req.RequestContext.HTTP.Path

	if method == "OPTIONS" {
		return events.APIGatewayProxyResponse{StatusCode: 200, Headers: corsHeaders}, nil
	}

	switch {
	case method == "POST" && p == "/upload-url":
		return h.uploadURL(ctx, req.Body), nil

	case method == "GET" && (p == "/images" || p == "/images/"):
		records, err := h.Records.ListRecords(ctx)
		if err != nil {
			return h.serverError(ctx, err), nil
		}
		return jsonResponse(200, records), nil

	case method == "GET" && strings.HasPrefix(p, "/images/"):
		key := req.PathParameters["key"]
		if key == "" {
			raw := strings.TrimPrefix(p, "/images/")
			unescaped, err := url.PathUnescape(raw)
			if err != nil {
				return jsonResponse(400, map[string]string{"error": "invalid image key"}), nil
			}
			key = unescaped
		}

		rec, err := h.Records.GetRecord(ctx, key)
		if errors.Is(err, tagstore.ErrNotFound) {
			return jsonResponse(404, map[string]string{"error": "Not Found"}), nil
		}
		if err != nil {
			return h.serverError(ctx, err), nil
		}
		return jsonResponse(200, rec), nil
	}

	return jsonResponse(404, map[string]string{"error": "Not Found"}), nil
}

type uploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

func (h *Handler) uploadURL(ctx context.Context, body string) events.APIGatewayProxyResponse {
	var in uploadRequest
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return jsonResponse(400, map[string]string{"error": "invalid request body"})
	}
	name := path.Base(strings.TrimSpace(in.Filename))
	if name == "" || name == "." || name == "/" {
		return jsonResponse(400, map[string]string{"error": "filename is required"})
	}

	key := fmt.Sprintf("%s%s-%s", h.UploadPrefix, uuid.NewString(), name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(h.Bucket),
		Key:    aws.String(key),
	}
	if in.ContentType != "" {
		input.ContentType = aws.String(in.ContentType)
	}

	expiry := h.UploadExpiry
	if expiry <= 0 {
		expiry = defaultUploadExpiry
	}

	presigned, err := h.Presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(expiry))
	if err != nil {
		return h.serverError(ctx, fmt.Errorf("presign upload: %w", err))
	}

	return jsonResponse(200, map[string]string{
		"uploadUrl": presigned.URL,
		"key":       key,
	})
}

func (h *Handler) serverError(ctx context.Context, err error) events.APIGatewayProxyResponse {
	l := logging.Ctx(ctx)
	l.Error().Err(err).Msg("request failed")
	return jsonResponse(500, map[string]string{"error": err.Error()})
}

func jsonResponse(status int, body interface{}) events.APIGatewayProxyResponse {
	b, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders,
		Body:       string(b),
	}
}
