package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newFakeProducer(t *testing.T) (*Producer, map[string]*fakeWriter) {
	t.Helper()
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	created := make(map[string]*fakeWriter)
	p.newWriter = func(topic string) messageWriter {
		w := &fakeWriter{}
		created[topic] = w
		return w
	}
	return p, created
}

func TestNewProducer(t *testing.T) {
	p, err := NewProducer(Config{
		Brokers:       []string{"localhost:9092", "localhost:9093"},
		ConsumerGroup: "test-group",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, p.brokers)
	assert.Nil(t, p.transport)
	assert.Empty(t, p.writers)
}

func TestNewProducer_SecureTransport(t *testing.T) {
	p, err := NewProducer(Config{
		Brokers:       []string{"kafka:9093"},
		TLS:           true,
		SASLEnabled:   true,
		SASLMechanism: "SCRAM-SHA-512",
		SASLUsername:  "scorer",
		SASLPassword:  "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, p.transport)
	assert.NotNil(t, p.transport.TLS)
	require.NotNil(t, p.transport.SASL)
	assert.Equal(t, "SCRAM-SHA-512", p.transport.SASL.Name())

	w, ok := p.kafkaWriter("fraud.predictions").(*kafkago.Writer)
	require.True(t, ok)
	assert.Equal(t, p.transport, w.Transport)
}

func TestNewProducer_UnknownMechanism(t *testing.T) {
	_, err := NewProducer(Config{SASLEnabled: true, SASLMechanism: "GSSAPI"})
	assert.ErrorContains(t, err, "unsupported SASL mechanism")
}

func TestProducer_Publish(t *testing.T) {
	p, writers := newFakeProducer(t)

	err := p.Publish(context.Background(), "fraud.predictions", Message{
		Key:   []byte("prediction-1"),
		Value: []byte(`{"fraud_score":42}`),
		Headers: map[string]string{
			"event_type": "fraud.prediction.scored",
		},
	})
	require.NoError(t, err)

	w := writers["fraud.predictions"]
	require.NotNil(t, w)
	require.Len(t, w.messages, 1)
	assert.Equal(t, "prediction-1", string(w.messages[0].Key))
	assert.Equal(t, `{"fraud_score":42}`, string(w.messages[0].Value))
	assert.Equal(t, []kafkago.Header{{Key: "event_type", Value: []byte("fraud.prediction.scored")}}, w.messages[0].Headers)
}

func TestProducer_PublishError(t *testing.T) {
	p, _ := newFakeProducer(t)
	p.newWriter = func(string) messageWriter {
		return &fakeWriter{writeErr: errors.New("broker down")}
	}

	err := p.Publish(context.Background(), "fraud.predictions", Message{Value: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka publish to fraud.predictions")
	assert.Contains(t, err.Error(), "broker down")
}

func TestGetOrCreateWriter(t *testing.T) {
	p, err := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)

	w1 := p.getOrCreateWriter("topic-a")
	require.NotNil(t, w1)

	// Same topic should return the same writer instance.
	assert.Same(t, w1, p.getOrCreateWriter("topic-a"))

	w3 := p.getOrCreateWriter("topic-b")
	assert.NotSame(t, w1, w3)
	assert.Len(t, p.writers, 2)
}

func TestProducerClose(t *testing.T) {
	p, writers := newFakeProducer(t)

	_ = p.getOrCreateWriter("topic-a")
	_ = p.getOrCreateWriter("topic-b")
	require.Len(t, p.writers, 2)

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
	assert.True(t, writers["topic-a"].closed)
	assert.True(t, writers["topic-b"].closed)
}

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		Key:   []byte("order-123"),
		Value: []byte(`{"amount":100}`),
		Headers: map[string]string{
			"content-type":   "application/json",
			"correlation-id": "abc-def-ghi",
		},
	}

	km := toKafkaMessages([]Message{msg})
	require.Len(t, km, 1)
	assert.Equal(t, msg, fromKafkaMessage(km[0]))
}

func TestProducer_Ping(t *testing.T) {
	t.Run("no brokers", func(t *testing.T) {
		p, err := NewProducer(Config{})
		require.NoError(t, err)
		assert.Error(t, p.Ping(context.Background()))
	})

	t.Run("unreachable broker", func(t *testing.T) {
		p, err := NewProducer(Config{Brokers: []string{"127.0.0.1:1"}})
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err = p.Ping(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no broker reachable")
	})
}
