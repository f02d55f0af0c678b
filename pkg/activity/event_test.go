package activity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "activity.like_toggled", Event{Kind: KindLikeToggled}.RoutingKey())
}

func TestNewEventCarriesSpanContext(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	event := NewEvent(ctx, KindPostCreated)
	assert.Equal(t, KindPostCreated, event.Kind)
	assert.NotZero(t, event.Timestamp)
	assert.Equal(t, [16]byte(sc.TraceID()), event.SpanContext.TraceID)
}

func TestEventJSONOmitsEmptyFields(t *testing.T) {
	body, err := json.Marshal(Event{Kind: KindLogout, UserID: 4, Timestamp: 10})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Equal(t, "logout", fields["kind"])
	assert.Equal(t, float64(4), fields["user_id"])
	assert.NotContains(t, fields, "post_id")
	assert.NotContains(t, fields, "liked")
}

func TestAMQPOptionsEnabled(t *testing.T) {
	assert.False(t, AMQPOptions{}.Enabled())
	assert.True(t, AMQPOptions{Addr: "localhost", Port: 5672}.Enabled())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{Kind: KindSignup}))
	assert.NoError(t, p.Close())
}
