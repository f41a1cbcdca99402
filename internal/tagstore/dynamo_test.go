package tagstore

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catdevman/image-tagger/internal/domain"
)

// MockDynamo stores items by ImageKey so overwrite semantics can be checked.
type MockDynamo struct {
	Items    map[string]map[string]types.AttributeValue
	Puts     []*dynamodb.PutItemInput
	ScanPage int
	Err      error
}

func NewMockDynamo() *MockDynamo {
	return &MockDynamo{Items: map[string]map[string]types.AttributeValue{}}
}

func (m *MockDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Puts = append(m.Puts, params)
	key := params.Item["ImageKey"].(*types.AttributeValueMemberS).Value
	m.Items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *MockDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	key := params.Key["ImageKey"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: m.Items[key]}, nil
}

// Scan returns one item per page to exercise pagination.
func (m *MockDynamo) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	var keys []string
	for k := range m.Items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if params.ExclusiveStartKey != nil {
		last := params.ExclusiveStartKey["ImageKey"].(*types.AttributeValueMemberS).Value
		for i, k := range keys {
			if k == last {
				start = i + 1
			}
		}
	}
	m.ScanPage++
	if start >= len(keys) {
		return &dynamodb.ScanOutput{}, nil
	}
	out := &dynamodb.ScanOutput{Items: []map[string]types.AttributeValue{m.Items[keys[start]]}}
	if start+1 < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"ImageKey": &types.AttributeValueMemberS{Value: keys[start]},
		}
	}
	return out, nil
}

func TestPutRecord(t *testing.T) {
	db := NewMockDynamo()
	store := &Store{Client: db, TableName: "product_tag_table-dev"}

	err := store.PutRecord(context.Background(), domain.Record{
		ImageKey:        "cat.jpg",
		Labels:          []string{"Cat", "Animal"},
		ProcessedMarker: "arn:aws:lambda:eu-west-1:123456789012:function:ImageProcessingFunction",
	})
	require.NoError(t, err)
	require.Len(t, db.Puts, 1)
	assert.Equal(t, "product_tag_table-dev", aws.ToString(db.Puts[0].TableName))

	item := db.Puts[0].Item
	assert.Equal(t, &types.AttributeValueMemberS{Value: "cat.jpg"}, item["ImageKey"])
	assert.Contains(t, item, "ProcessedTimestamp")
	assert.NotContains(t, item, "Latitude")

	var labels []string
	require.NoError(t, attributevalue.Unmarshal(item["Labels"], &labels))
	assert.Equal(t, []string{"Cat", "Animal"}, labels)
}

func TestPutRecordEmptyLabelsIsList(t *testing.T) {
	db := NewMockDynamo()
	store := &Store{Client: db, TableName: "tags"}

	require.NoError(t, store.PutRecord(context.Background(), domain.Record{ImageKey: "blank.png"}))

	_, isList := db.Items["blank.png"]["Labels"].(*types.AttributeValueMemberL)
	assert.True(t, isList, "labels should be stored as a list, not NULL")
}

func TestPutRecordOverwrites(t *testing.T) {
	db := NewMockDynamo()
	store := &Store{Client: db, TableName: "tags"}
	ctx := context.Background()

	rec := domain.Record{ImageKey: "cat.jpg", Labels: []string{"Cat"}, ProcessedMarker: "m"}
	require.NoError(t, store.PutRecord(ctx, rec))
	require.NoError(t, store.PutRecord(ctx, rec))

	assert.Len(t, db.Items, 1)
	got, err := store.GetRecord(ctx, "cat.jpg")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestGetRecordNotFound(t *testing.T) {
	store := &Store{Client: NewMockDynamo(), TableName: "tags"}

	_, err := store.GetRecord(context.Background(), "missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRecordsPaginates(t *testing.T) {
	db := NewMockDynamo()
	store := &Store{Client: db, TableName: "tags"}
	ctx := context.Background()

	lat, long := 40.7128, -74.0060
	require.NoError(t, store.PutRecord(ctx, domain.Record{ImageKey: "a.jpg", Labels: []string{"A"}}))
	require.NoError(t, store.PutRecord(ctx, domain.Record{ImageKey: "b.jpg", Labels: []string{"B"}, Latitude: &lat, Longitude: &long}))
	require.NoError(t, store.PutRecord(ctx, domain.Record{ImageKey: "c.jpg", Labels: []string{"C"}}))

	records, err := store.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 3, db.ScanPage)
	assert.Equal(t, "b.jpg", records[1].ImageKey)
	require.NotNil(t, records[1].Latitude)
	assert.InDelta(t, lat, *records[1].Latitude, 1e-9)
}

func TestStoreErrors(t *testing.T) {
	boom := errors.New("ProvisionedThroughputExceededException")
	db := NewMockDynamo()
	db.Err = boom
	store := &Store{Client: db, TableName: "tags"}
	ctx := context.Background()

	assert.ErrorIs(t, store.PutRecord(ctx, domain.Record{ImageKey: "k"}), boom)
	_, err := store.GetRecord(ctx, "k")
	assert.ErrorIs(t, err, boom)
	_, err = store.ListRecords(ctx)
	assert.ErrorIs(t, err, boom)
}
