package events

import (
	"context"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// writeTimeout bounds how long a single publish may hold up the caller.
const writeTimeout = 2 * time.Second

// KafkaNotifier publishes order events to a Kafka topic. Publishes run
// through a circuit breaker so an unreachable broker degrades to dropped
// events instead of slowing every checkout.
type KafkaNotifier struct {
	writer  *kafka.Writer
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewKafkaNotifier creates a notifier publishing to topic via the given
// brokers. Acks are not requested: events are advisory.
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireNone,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}

	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "kafka-notifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &KafkaNotifier{writer: w, breaker: cb}
}

// Notify publishes the event. Failures (including an open breaker) are
// logged and dropped.
func (n *KafkaNotifier) Notify(ctx context.Context, t Type, message string) {
	payload := encodePayload(t, message, time.Now())

	_, err := n.breaker.Execute(func() (struct{}, error) {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		defer cancel()

		return struct{}{}, n.writer.WriteMessages(wctx, kafka.Message{
			Key:   []byte(t),
			Value: payload,
		})
	})
	if err != nil {
		zctx.From(ctx).Warn("order event dropped",
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
