package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.EqualValues(t, 10, cfg.Processor.MaxLabels)
	assert.EqualValues(t, 10, cfg.Queue.BatchSize)
	assert.EqualValues(t, 20, cfg.Queue.WaitSeconds)
	assert.Equal(t, "local", cfg.Processor.Marker)
	assert.False(t, cfg.Processor.GeoEnrichment)
	assert.Equal(t, 15*time.Minute, cfg.API.UploadURLExpiry)
	assert.Equal(t, "uploads/", cfg.API.UploadPrefix)
}

func TestLoadFromDeploymentEnvironment(t *testing.T) {
	t.Setenv("PRODUCT_TAG_DATABASE", "product_tag_table-dev")
	t.Setenv("SNS_TOPIC_ImageProcessing", "arn:aws:sns:eu-west-1:123456789012:ImageProcessingTopic-dev")
	t.Setenv("QUEUE_URL", "https://sqs.eu-west-1.amazonaws.com/123456789012/ImageProcessingQueue")
	t.Setenv("MAX_LABELS", "5")
	t.Setenv("GEO_ENRICHMENT", "true")
	t.Setenv("UPLOAD_URL_EXPIRY", "5m")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "product_tag_table-dev", cfg.Table.Name)
	assert.Equal(t, "arn:aws:sns:eu-west-1:123456789012:ImageProcessingTopic-dev", cfg.Topic.ARN)
	assert.Equal(t, "https://sqs.eu-west-1.amazonaws.com/123456789012/ImageProcessingQueue", cfg.Queue.URL)
	assert.EqualValues(t, 5, cfg.Processor.MaxLabels)
	assert.True(t, cfg.Processor.GeoEnrichment)
	assert.Equal(t, 5*time.Minute, cfg.API.UploadURLExpiry)
	assert.NoError(t, cfg.ValidateProcessor())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "table:\n  name: from-file\nstorage:\n  bucket: images\nlog:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Table.Name)
	assert.Equal(t, "images", cfg.Storage.Bucket)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.NoError(t, cfg.ValidateAPI())
}

func TestValidateProcessor(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateProcessor()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRODUCT_TAG_DATABASE")
	assert.Contains(t, err.Error(), "SNS_TOPIC_ImageProcessing")
	assert.Contains(t, err.Error(), "max labels")
}

func TestValidateAPI(t *testing.T) {
	cfg := &Config{Table: TableConfig{Name: "tags"}}
	err := cfg.ValidateAPI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BUCKET_NAME")
}
