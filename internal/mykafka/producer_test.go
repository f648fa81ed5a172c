package mykafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs     []kafka.Message
	err      error
	deadline time.Time
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.deadline, _ = ctx.Deadline()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEvent(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w)

	ev := NewUserEvent(EventUserRegistered, "id-1", "alice")
	require.NoError(t, p.PublishEvent(context.Background(), TopicUserEvents, "id-1", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicUserEvents, msg.Topic)
	assert.Equal(t, []byte("id-1"), msg.Key)
	assert.WithinDuration(t, time.Now().Add(publishTimeout), w.deadline, time.Second)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "user_registered", got["type"])
	assert.Equal(t, "alice", got["userName"])
}

func TestPublishEvent_WriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom})

	err := p.PublishEvent(context.Background(), TopicUserEvents, "k", map[string]string{"a": "b"})
	require.ErrorIs(t, err, boom)
}

func TestPublishEvent_Unmarshalable(t *testing.T) {
	p := NewProducerWithWriter(&fakeWriter{})
	err := p.PublishEvent(context.Background(), TopicUserEvents, "k", make(chan int))
	require.Error(t, err)
}

func TestNewProducer_NoBrokers(t *testing.T) {
	_, err := NewProducer(nil, nil)
	require.Error(t, err)
}

func TestNewProducer_AsyncDelivery(t *testing.T) {
	p, err := NewProducer([]string{"localhost:9092"}, nil)
	require.NoError(t, err)
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.True(t, w.Async)
	assert.NotNil(t, w.Completion)
}

func TestCompletion_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	done := completion(log)
	done([]kafka.Message{{Topic: TopicUserEvents, Key: []byte("id-1")}}, nil)
	assert.Empty(t, buf.String())

	done([]kafka.Message{{Topic: TopicUserEvents, Key: []byte("id-1")}}, errors.New("broker down"))
	assert.Contains(t, buf.String(), `"msg":"kafka_delivery_failed"`)
	assert.Contains(t, buf.String(), `"key":"id-1"`)
	assert.Contains(t, buf.String(), "broker down")
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, NewProducerWithWriter(w).Close())
	assert.True(t, w.closed)
	require.NoError(t, Nop{}.Close())
}
