package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/botica-storefront/internal/domain"
)

var producerTracer = otel.Tracer("messaging/producer")

// EventTypeHeader names the Kafka header that carries the event type.
const EventTypeHeader = "event-type"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
		},
	}
}

// Publish writes event as JSON under key, tagged with eventType and carrying
// the caller's trace context in the message headers.
func (p *Producer) Publish(ctx context.Context, eventType, key string, event any, at time.Time) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Time:    at,
		Headers: []kafka.Header{{Key: EventTypeHeader, Value: []byte(eventType)}},
	}

	ctx, span := producerTracer.Start(ctx, "send "+p.topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(p.topic),
			semconv.MessagingKafkaMessageKey(key),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, NewHeaderCarrier(&msg))

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("write %s to %s: %w", eventType, p.topic, err)
	}

	return nil
}

// Dispatch publishes an order.placed event keyed by order id, so every event
// for one order lands on the same partition.
func (p *Producer) Dispatch(ctx context.Context, event domain.OrderPlacedEvent) error {
	return p.Publish(ctx, domain.EventOrderPlaced, event.OrderID, event, event.Timestamp)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
