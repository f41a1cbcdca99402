package geo

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/catdevman/image-tagger/internal/domain"
)

type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Parser interface {
	ExtractLatLong(r io.Reader) (float64, float64, error)
}

// ExifParser reads GPS coordinates from EXIF metadata.
type ExifParser struct{}

func (p *ExifParser) ExtractLatLong(r io.Reader) (float64, float64, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return 0, 0, err
	}
	return x.LatLong()
}

// S3Locator fetches an image from S3 and extracts where it was taken.
type S3Locator struct {
	Client S3API
	Parser Parser
}

func (l *S3Locator) Locate(ctx context.Context, ref domain.ObjectRef) (float64, float64, error) {
	resp, err := l.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("s3 GetObject failed: %w", err)
	}
	defer resp.Body.Close()

	lat, long, err := l.Parser.ExtractLatLong(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("extract coordinates: %w", err)
	}
	return lat, long, nil
}
