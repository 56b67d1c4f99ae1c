package user

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSON_PreservesUnknownFields(t *testing.T) {
	in := `{"id":"u1","last_push":"2024-03-01T12:00:00.000Z","visits":42,"meta":{"a":[1,2.5,"x"]}}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(in), &rec))

	assert.Equal(t, "u1", rec.ID)
	require.NotNil(t, rec.LastPush)
	assert.True(t, rec.LastPush.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, json.Number("42"), rec.Extra["visits"])

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestRecordJSON_NoLastPush(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u2"}`), &rec))
	assert.Nil(t, rec.LastPush)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u2"}`, string(out))
}

func TestFromAttributes_RejectsBadTimestamp(t *testing.T) {
	_, err := FromAttributes("u1", map[string]any{FieldLastPush: "yesterday"})
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = FromAttributes("u1", map[string]any{FieldLastPush: 12345})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFromAttributes_IDArgumentWins(t *testing.T) {
	rec, err := FromAttributes("u1", map[string]any{FieldID: "someone-else"})
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.ID)
	assert.Equal(t, "u1", rec.Attributes()[FieldID])
}

func TestWithLastPush_DoesNotShareExtra(t *testing.T) {
	orig := Record{ID: "u1", Extra: map[string]any{"k": "v"}}
	next := orig.WithLastPush(time.Now())
	next.Extra["k"] = "changed"

	assert.Equal(t, "v", orig.Extra["k"])
	assert.Nil(t, orig.LastPush)
}

func TestFormatTime_MillisecondUTC(t *testing.T) {
	ts := time.Date(2024, 3, 1, 13, 4, 5, 678_900_000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-03-01T12:04:05.678Z", FormatTime(ts))
}

func TestSameInstant(t *testing.T) {
	a := time.Date(2024, 3, 1, 12, 0, 0, 100, time.UTC)
	b := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := b.Add(time.Second)

	assert.True(t, SameInstant(nil, nil))
	assert.False(t, SameInstant(&a, nil))
	assert.True(t, SameInstant(&a, &b))
	assert.False(t, SameInstant(&b, &c))
}
