package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/i474232898/weather-tracker/internal/user"
)

// DynamoAPI is the subset of *dynamodb.Client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoConfig selects the table and, for local development, an endpoint override.
type DynamoConfig struct {
	Table    string
	Region   string
	Endpoint string
}

// DynamoStore keeps user records in a table keyed by the string attribute "id".
// Attributes it does not own are carried as raw types.AttributeValue so sets,
// binaries and numbers are written back exactly as read.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore loads the default AWS config and creates a DynamoStore.
func NewDynamoStore(ctx context.Context, cfg DynamoConfig) (*DynamoStore, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var dynOpts []func(*dynamodb.Options)
	if cfg.Endpoint != "" {
		dynOpts = append(dynOpts, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return NewDynamoStoreFromClient(dynamodb.NewFromConfig(awsCfg, dynOpts...), cfg.Table), nil
}

// NewDynamoStoreFromClient wraps an existing client.
func NewDynamoStoreFromClient(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Name identifies the backend in health output.
func (s *DynamoStore) Name() string { return BackendDynamoDB }

// Get reads the item with a strongly consistent read.
func (s *DynamoStore) Get(ctx context.Context, id string) (user.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            map[string]types.AttributeValue{user.FieldID: &types.AttributeValueMemberS{Value: id}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return user.Record{}, fmt.Errorf("dynamodb get item: %w", err)
	}
	if len(out.Item) == 0 {
		return user.Record{}, user.ErrNotFound
	}
	return decodeItem(id, out.Item)
}

// Put overwrites the item.
func (s *DynamoStore) Put(ctx context.Context, rec user.Record) error {
	item, err := encodeItem(rec)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

// PutIfUnchanged guards the put with a condition on last_push.
func (s *DynamoStore) PutIfUnchanged(ctx context.Context, rec user.Record, prev *time.Time) error {
	item, err := encodeItem(rec)
	if err != nil {
		return err
	}

	in := &dynamodb.PutItemInput{
		TableName:                aws.String(s.table),
		Item:                     item,
		ExpressionAttributeNames: map[string]string{"#lp": user.FieldLastPush},
	}
	if prev == nil {
		in.ConditionExpression = aws.String("attribute_not_exists(#lp)")
	} else {
		in.ConditionExpression = aws.String("#lp = :prev")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":prev": &types.AttributeValueMemberS{Value: user.FormatTime(*prev)},
		}
	}

	_, err = s.client.PutItem(ctx, in)
	if prev != nil && isConditionFailed(err) {
		// The stored value may be the same instant written in another RFC 3339 layout.
		raw, rerr := s.rawLastPush(ctx, rec.ID)
		if rerr != nil {
			return rerr
		}
		want := user.FormatTime(*prev)
		if ts, perr := user.ParseTime(raw); raw != "" && raw != want && perr == nil && user.SameInstant(&ts, prev) {
			in.ExpressionAttributeValues[":prev"] = &types.AttributeValueMemberS{Value: raw}
			_, err = s.client.PutItem(ctx, in)
		}
	}
	if isConditionFailed(err) {
		return user.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

// rawLastPush returns last_push exactly as stored, or "" when absent.
func (s *DynamoStore) rawLastPush(ctx context.Context, id string) (string, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      map[string]types.AttributeValue{user.FieldID: &types.AttributeValueMemberS{Value: id}},
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     aws.String("#lp"),
		ExpressionAttributeNames: map[string]string{"#lp": user.FieldLastPush},
	})
	if err != nil {
		return "", fmt.Errorf("dynamodb get item: %w", err)
	}
	if sv, ok := out.Item[user.FieldLastPush].(*types.AttributeValueMemberS); ok {
		return sv.Value, nil
	}
	return "", nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// Ping describes the table.
func (s *DynamoStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.table)})
	if err != nil {
		return fmt.Errorf("dynamodb describe table: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStore) Close() error { return nil }

func decodeItem(id string, item map[string]types.AttributeValue) (user.Record, error) {
	attrs := make(map[string]any, len(item))
	for k, av := range item {
		if k != user.FieldLastPush {
			attrs[k] = av
			continue
		}
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return user.Record{}, fmt.Errorf("%w: %s is %T, want S", user.ErrMalformedRecord, user.FieldLastPush, av)
		}
		attrs[k] = s.Value
	}
	return user.FromAttributes(id, attrs)
}

func encodeItem(rec user.Record) (map[string]types.AttributeValue, error) {
	attrs := rec.Attributes()
	item := make(map[string]types.AttributeValue, len(attrs))
	for k, v := range attrs {
		if av, ok := v.(types.AttributeValue); ok {
			item[k] = av
			continue
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal attribute %q: %w", k, err)
		}
		item[k] = av
	}
	return item, nil
}
