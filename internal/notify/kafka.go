package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"booking-service/internal/config"
)

const eventType = "booking.notification"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each notification as a JSON record so downstream consumers
// can fan it out to other channels.
type Kafka struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafka(cfg config.Kafka) *Kafka {
	w := kafka.NewWriter(writerConfig(cfg))
	return &Kafka{writer: w, now: time.Now}
}

// writerConfig flushes each notification right away instead of waiting for a
// batch to fill, and bounds how long a write may block.
func writerConfig(cfg config.Kafka) kafka.WriterConfig {
	return kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 3 * time.Second,
		MaxAttempts:  2,
	}
}

type notificationRecord struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	SentAt  time.Time `json:"sent_at"`
}

func (k *Kafka) Notify(ctx context.Context, text string) error {
	rec := notificationRecord{
		EventID: uuid.NewString(),
		Type:    eventType,
		Text:    text,
		SentAt:  k.now().UTC(),
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(rec.EventID)},
		{Key: "event_type", Value: []byte(rec.Type)},
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(rec.EventID),
		Value:   value,
		Headers: injectTraceHeaders(ctx, headers),
	})
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

// injectTraceHeaders appends W3C trace context headers to Kafka headers.
func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
