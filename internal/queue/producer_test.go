package queue

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishKeysBySweet(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{w: w}

	e := NewInventoryEvent(EventPurchase, 7, 3, 10, 90, decimal.RequireFromString("59.90"))
	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "7", string(w.msgs[0].Key))

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "purchase", got["type"])
	assert.Equal(t, float64(90), got["remaining"])
	assert.Equal(t, e.EventID, got["event_id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_RejectsInvalidEvent(t *testing.T) {
	w := &recordingWriter{}
	p := &Producer{w: w}

	err := p.Publish(context.Background(), InventoryEvent{Type: EventPurchase, SweetID: 1})
	assert.Error(t, err)
	assert.Empty(t, w.msgs)
}

func TestInventoryEvent_Validate(t *testing.T) {
	ok := NewInventoryEvent(EventRestock, 1, 0, 5, 5, decimal.Zero)
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name   string
		mutate func(*InventoryEvent)
	}{
		{"missing id", func(e *InventoryEvent) { e.EventID = "" }},
		{"unknown type", func(e *InventoryEvent) { e.Type = "refund" }},
		{"missing sweet", func(e *InventoryEvent) { e.SweetID = 0 }},
		{"purchase without user", func(e *InventoryEvent) { e.Type = EventPurchase }},
		{"zero quantity", func(e *InventoryEvent) { e.Quantity = 0 }},
		{"negative remaining", func(e *InventoryEvent) { e.Remaining = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ok
			tt.mutate(&e)
			assert.Error(t, e.Validate())
		})
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), InventoryEvent{}))
}
