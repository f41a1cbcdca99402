package tagstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/catdevman/image-tagger/internal/domain"
)

// ErrNotFound is returned when no record exists for an image key.
var ErrNotFound = errors.New("record not found")

type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store keeps one record per image key in a DynamoDB table.
type Store struct {
	Client    DynamoDBAPI
	TableName string
}

// PutRecord upserts the record; a later write for the same key replaces it.
func (s *Store) PutRecord(ctx context.Context, rec domain.Record) error {
	if rec.Labels == nil {
		rec.Labels = []string{}
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.TableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (s *Store) GetRecord(ctx context.Context, imageKey string) (domain.Record, error) {
	out, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.TableName),
		Key: map[string]types.AttributeValue{
			"ImageKey": &types.AttributeValueMemberS{Value: imageKey},
		},
	})
	if err != nil {
		return domain.Record{}, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return domain.Record{}, ErrNotFound
	}

	var rec domain.Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return rec, nil
}

// ListRecords scans the whole table.
func (s *Store) ListRecords(ctx context.Context) ([]domain.Record, error) {
	records := []domain.Record{}

	paginator := dynamodb.NewScanPaginator(s.Client, &dynamodb.ScanInput{
		TableName: aws.String(s.TableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("dynamodb Scan failed: %w", err)
		}

		var batch []domain.Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal records: %w", err)
		}
		records = append(records, batch...)
	}
	return records, nil
}
