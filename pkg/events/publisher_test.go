package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/careerbird/grant-match-api/pkg/config"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	writer := &recordingWriter{}
	pub := &KafkaPublisher{writer: writer, timeout: time.Second}

	err := pub.Publish(context.Background(), Event{Type: "deadline.reminder", Key: "grant-1", Payload: map[string]int{"days": 2}})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "grant-1", string(msg.Key))
	assert.Equal(t, "deadline.reminder", string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "deadline.reminder", decoded.Type)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	pub := &KafkaPublisher{writer: &recordingWriter{err: errors.New("broker down")}, timeout: time.Second}
	err := pub.Publish(context.Background(), Event{Type: "deadline.reminder"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestNewFallsBackToLog(t *testing.T) {
	pub := New(config.EventsConfig{}, zap.NewNop())
	_, ok := pub.(*LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, pub.Publish(context.Background(), Event{Type: "x"}))

	pub = New(config.EventsConfig{Brokers: []string{"localhost:9092"}, Topic: "t"}, nil)
	_, ok = pub.(*KafkaPublisher)
	assert.True(t, ok)
}
