package detect

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/catdevman/image-tagger/internal/domain"
)

// DefaultMaxLabels is the label cap used when none is configured.
const DefaultMaxLabels int32 = 10

type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionDetector detects labels on images that are already in S3,
// so the image bytes never pass through the function.
type RekognitionDetector struct {
	Client        RekognitionAPI
	MaxLabels     int32
	MinConfidence float32 // zero leaves the service default
}

func (d *RekognitionDetector) DetectLabels(ctx context.Context, ref domain.ObjectRef) ([]domain.Label, error) {
	maxLabels := d.MaxLabels
	if maxLabels <= 0 {
		maxLabels = DefaultMaxLabels
	}

	input := &rekognition.DetectLabelsInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
		MaxLabels: aws.Int32(maxLabels),
	}
	if d.MinConfidence > 0 {
		input.MinConfidence = aws.Float32(d.MinConfidence)
	}

	out, err := d.Client.DetectLabels(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("rekognition DetectLabels failed: %w", err)
	}

	labels := make([]domain.Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		labels = append(labels, domain.Label{
			Name:       aws.ToString(l.Name),
			Confidence: aws.ToFloat32(l.Confidence),
		})
	}
	return labels, nil
}
