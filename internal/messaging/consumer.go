package messaging

import (
	"context"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

var consumerTracer = otel.Tracer("messaging/consumer")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// HandlerFunc processes one message payload. A returned error stops the
// consumer without committing the message.
type HandlerFunc func(ctx context.Context, payload []byte) error

type Consumer struct {
	reader    messageReader
	topic     string
	groupID   string
	eventType string
}

type consumerConfig struct {
	reader    kafka.ReaderConfig
	eventType string
}

type ConsumerOption func(*consumerConfig)

func WithStartOffset(offset int64) ConsumerOption {
	return func(cfg *consumerConfig) {
		cfg.reader.StartOffset = offset
	}
}

// WithEventType restricts the handler to messages tagged with eventType.
// Messages tagged with another type are committed unhandled; untagged
// messages are still handled.
func WithEventType(eventType string) ConsumerOption {
	return func(cfg *consumerConfig) {
		cfg.eventType = eventType
	}
}

func NewConsumer(brokers []string, topic, groupID string, opts ...ConsumerOption) *Consumer {
	cfg := consumerConfig{
		reader: kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Consumer{
		reader:    kafka.NewReader(cfg.reader),
		topic:     topic,
		groupID:   groupID,
		eventType: cfg.eventType,
	}
}

// Consume fetches, handles and commits messages one at a time until ctx is
// done or a fetch, handler or commit fails.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}

		if c.wants(&msg) {
			if err := c.processMessage(ctx, msg, handler); err != nil {
				return fmt.Errorf("process offset %d: %w", msg.Offset, err)
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (c *Consumer) wants(msg *kafka.Message) bool {
	if c.eventType == "" {
		return true
	}
	for _, h := range msg.Headers {
		if h.Key == EventTypeHeader {
			return string(h.Value) == c.eventType
		}
	}
	return true
}

func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message, handler HandlerFunc) error {
	parentCtx := otel.GetTextMapPropagator().Extract(ctx, NewHeaderCarrier(&msg))

	spanCtx, span := consumerTracer.Start(parentCtx, "process "+c.topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(c.topic),
			semconv.MessagingKafkaConsumerGroup(c.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
		),
	)
	defer span.End()

	if err := handler(spanCtx, msg.Value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
