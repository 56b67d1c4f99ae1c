package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-tracker/internal/gate"
	"github.com/i474232898/weather-tracker/internal/user"
)

// fakeDynamo is a single-table DynamoDB stand-in that understands the two
// condition expressions the store issues.
type fakeDynamo struct {
	items  map[string]map[string]types.AttributeValue
	err    error
	inputs []*dynamodb.PutItemInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := in.Key[user.FieldID].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	id := in.Item[user.FieldID].(*types.AttributeValueMemberS).Value
	cur, exists := f.items[id]

	if in.ConditionExpression != nil {
		lp, has := cur[user.FieldLastPush].(*types.AttributeValueMemberS)
		ok := false
		switch aws.ToString(in.ConditionExpression) {
		case "attribute_not_exists(#lp)":
			ok = !exists || !has
		case "#lp = :prev":
			want := in.ExpressionAttributeValues[":prev"].(*types.AttributeValueMemberS).Value
			ok = has && lp.Value == want
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(_ context.Context, _ *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

func TestDynamoStore_GetMissing(t *testing.T) {
	s := NewDynamoStoreFromClient(newFakeDynamo(), "weather-app-users")

	_, err := s.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestDynamoStore_PreservesRawAttributes(t *testing.T) {
	fake := newFakeDynamo()
	tags := &types.AttributeValueMemberSS{Value: []string{"a", "b"}}
	count := &types.AttributeValueMemberN{Value: "12345678901234567890"}
	fake.items["u1"] = map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: "u1"},
		"last_push": &types.AttributeValueMemberS{Value: "2024-03-01T12:00:00.000Z"},
		"tags":      tags,
		"count":     count,
	}
	s := NewDynamoStoreFromClient(fake, "weather-app-users")
	ctx := context.Background()

	rec, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, rec.LastPush)
	assert.True(t, rec.LastPush.Equal(ts0))

	require.NoError(t, s.Put(ctx, rec.WithLastPush(ts0.Add(time.Hour))))

	item := fake.items["u1"]
	assert.Equal(t, tags, item["tags"])
	assert.Equal(t, count, item["count"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2024-03-01T13:00:00.000Z"}, item["last_push"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, item["id"])
}

func TestDynamoStore_PutIfUnchanged(t *testing.T) {
	fake := newFakeDynamo()
	s := NewDynamoStoreFromClient(fake, "weather-app-users")
	ctx := context.Background()

	rec := user.New("u1").WithLastPush(ts0)
	require.NoError(t, s.PutIfUnchanged(ctx, rec, nil))
	assert.ErrorIs(t, s.PutIfUnchanged(ctx, rec, nil), user.ErrConflict)

	prev := ts0
	require.NoError(t, s.PutIfUnchanged(ctx, rec.WithLastPush(ts0.Add(time.Hour)), &prev))
	assert.ErrorIs(t, s.PutIfUnchanged(ctx, rec.WithLastPush(ts0.Add(2*time.Hour)), &prev), user.ErrConflict)

	last := fake.inputs[len(fake.inputs)-1]
	assert.Equal(t, "#lp = :prev", aws.ToString(last.ConditionExpression))
	assert.Equal(t, user.FieldLastPush, last.ExpressionAttributeNames["#lp"])
}

func TestDynamoStore_PutIfUnchangedAcceptsOtherTimeLayouts(t *testing.T) {
	fake := newFakeDynamo()
	fake.items["u1"] = map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: "u1"},
		"last_push": &types.AttributeValueMemberS{Value: "2024-03-01T12:00:00Z"},
	}
	s := NewDynamoStoreFromClient(fake, "weather-app-users")
	g := gate.New(s, gate.WithConditionalWrites(true))
	ctx := context.Background()

	res, err := g.Evaluate(ctx, "u1", ts0.Add(time.Hour), 10*time.Minute)
	require.NoError(t, err)
	assert.True(t, res.Granted())
	assert.False(t, res.Contended)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2024-03-01T13:00:00.000Z"}, fake.items["u1"]["last_push"])

	// A different instant is still a conflict.
	fake.items["u1"]["last_push"] = &types.AttributeValueMemberS{Value: "2024-03-01T13:05:00+00:00"}
	prev := ts0.Add(time.Hour)
	assert.ErrorIs(t, s.PutIfUnchanged(ctx, user.New("u1").WithLastPush(ts0.Add(2*time.Hour)), &prev), user.ErrConflict)
}

func TestDynamoStore_ErrorsAreWrapped(t *testing.T) {
	fake := newFakeDynamo()
	fake.err = errors.New("ProvisionedThroughputExceededException")
	s := NewDynamoStoreFromClient(fake, "weather-app-users")
	ctx := context.Background()

	_, err := s.Get(ctx, "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrNotFound)

	err = s.PutIfUnchanged(ctx, user.New("u1").WithLastPush(ts0), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, user.ErrConflict)

	assert.Error(t, s.Ping(ctx))
}

func TestDynamoStore_MalformedLastPush(t *testing.T) {
	fake := newFakeDynamo()
	fake.items["u1"] = map[string]types.AttributeValue{
		"id":        &types.AttributeValueMemberS{Value: "u1"},
		"last_push": &types.AttributeValueMemberN{Value: "17"},
	}
	s := NewDynamoStoreFromClient(fake, "weather-app-users")

	_, err := s.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, user.ErrMalformedRecord)
}
