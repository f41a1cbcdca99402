package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catdevman/image-tagger/internal/awsclient"
	"github.com/catdevman/image-tagger/internal/config"
	"github.com/catdevman/image-tagger/internal/detect"
	"github.com/catdevman/image-tagger/internal/notify"
	"github.com/catdevman/image-tagger/internal/tagstore"
)

func testClients(t *testing.T) *awsclient.Clients {
	t.Helper()
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	clients, err := awsclient.New(context.Background(), config.AWSConfig{Region: "eu-west-1", Endpoint: "http://localhost:4566"})
	require.NoError(t, err)
	return clients
}

func TestNewProcessor(t *testing.T) {
	cfg := &config.Config{
		Table:     config.TableConfig{Name: "tags"},
		Topic:     config.TopicConfig{ARN: "arn:aws:sns:eu-west-1:123456789012:topic"},
		Processor: config.ProcessorConfig{MaxLabels: 7, Marker: "local"},
	}

	h := NewProcessor(cfg, testClients(t))

	d, ok := h.Detector.(*detect.RekognitionDetector)
	require.True(t, ok)
	assert.EqualValues(t, 7, d.MaxLabels)
	assert.Equal(t, "tags", h.Store.(*tagstore.Store).TableName)
	assert.Equal(t, cfg.Topic.ARN, h.Notifier.(*notify.Publisher).TopicARN)
	assert.Equal(t, "local", h.FallbackMarker)
	assert.Nil(t, h.Locator)

	cfg.Processor.GeoEnrichment = true
	assert.NotNil(t, NewProcessor(cfg, testClients(t)).Locator)
}

func TestNewAPI(t *testing.T) {
	cfg := &config.Config{
		Table:   config.TableConfig{Name: "tags"},
		Storage: config.StorageConfig{Bucket: "imgs"},
		API:     config.APIConfig{UploadPrefix: "uploads/"},
	}

	h := NewAPI(cfg, testClients(t))
	assert.Equal(t, "imgs", h.Bucket)
	assert.Equal(t, "uploads/", h.UploadPrefix)
	assert.NotNil(t, h.Presigner)
}
