package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/catdevman/image-tagger/internal/logging"
)

type Config struct {
	Log       logging.Config  `mapstructure:"log"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Table     TableConfig     `mapstructure:"table"`
	Topic     TopicConfig     `mapstructure:"topic"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Processor ProcessorConfig `mapstructure:"processor"`
	API       APIConfig       `mapstructure:"api"`
}

type AWSConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // LocalStack and similar
}

type TableConfig struct {
	Name string `mapstructure:"name"`
}

type TopicConfig struct {
	ARN string `mapstructure:"arn"`
}

type QueueConfig struct {
	URL           string `mapstructure:"url"`
	DeadLetterURL string `mapstructure:"dead_letter_url"`
	BatchSize     int32  `mapstructure:"batch_size"`
	WaitSeconds   int32  `mapstructure:"wait_seconds"`
}

type StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
}

type ProcessorConfig struct {
	MaxLabels     int32   `mapstructure:"max_labels"`
	MinConfidence float32 `mapstructure:"min_confidence"`
	GeoEnrichment bool    `mapstructure:"geo_enrichment"`
	// Marker is written as the processing marker when no Lambda context is available.
	Marker string `mapstructure:"marker"`
}

type APIConfig struct {
	UploadURLExpiry time.Duration `mapstructure:"upload_url_expiry"`
	UploadPrefix    string        `mapstructure:"upload_prefix"`
}

// Load reads configuration from an optional config.yaml and the environment.
// Environment variable names match the ones set on the deployed functions.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("log.service_name", "image-processor")
	v.SetDefault("aws.region", "eu-west-1")
	v.SetDefault("queue.batch_size", 10)
	v.SetDefault("queue.wait_seconds", 20)
	v.SetDefault("processor.max_labels", 10)
	v.SetDefault("processor.min_confidence", 0)
	v.SetDefault("processor.geo_enrichment", false)
	v.SetDefault("processor.marker", "local")
	v.SetDefault("api.upload_url_expiry", 15*time.Minute)
	v.SetDefault("api.upload_prefix", "uploads/")

	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.pretty", "LOG_PRETTY")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT_URL")
	v.BindEnv("table.name", "PRODUCT_TAG_DATABASE")
	v.BindEnv("topic.arn", "SNS_TOPIC_ImageProcessing")
	v.BindEnv("queue.url", "QUEUE_URL")
	v.BindEnv("queue.dead_letter_url", "DLQ_URL")
	v.BindEnv("storage.bucket", "BUCKET_NAME")
	v.BindEnv("processor.max_labels", "MAX_LABELS")
	v.BindEnv("processor.min_confidence", "MIN_CONFIDENCE")
	v.BindEnv("processor.geo_enrichment", "GEO_ENRICHMENT")
	v.BindEnv("processor.marker", "PROCESSED_MARKER")
	v.BindEnv("api.upload_url_expiry", "UPLOAD_URL_EXPIRY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}

// ValidateProcessor reports missing settings the message processor needs.
func (c *Config) ValidateProcessor() error {
	var errs []error
	if c.Table.Name == "" {
		errs = append(errs, errors.New("table name is required (PRODUCT_TAG_DATABASE)"))
	}
	if c.Topic.ARN == "" {
		errs = append(errs, errors.New("topic arn is required (SNS_TOPIC_ImageProcessing)"))
	}
	if c.Processor.MaxLabels <= 0 {
		errs = append(errs, fmt.Errorf("max labels must be positive, got %d", c.Processor.MaxLabels))
	}
	return errors.Join(errs...)
}

// ValidateAPI reports missing settings the API function needs.
func (c *Config) ValidateAPI() error {
	var errs []error
	if c.Table.Name == "" {
		errs = append(errs, errors.New("table name is required (PRODUCT_TAG_DATABASE)"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("bucket is required (BUCKET_NAME)"))
	}
	return errors.Join(errs...)
}
