package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const publishTimeout = 5 * time.Second

// KafkaPublisher публикует доменные события в Kafka
// Ключ сообщения ID врача, поэтому события одного врача попадают в одну партицию по порядку
type KafkaPublisher struct {
	writer  MessageWriter
	logger  Logger
	metrics Metrics
}

// NewKafkaPublisher создает publisher с kafka.Writer
func NewKafkaPublisher(brokers []string, topic string, logger Logger, metrics Metrics) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
	return NewPublisherWithWriter(writer, logger, metrics)
}

// NewPublisherWithWriter создает publisher с произвольным writer
func NewPublisherWithWriter(writer MessageWriter, logger Logger, metrics Metrics) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger, metrics: metrics}
}

// Publish отправляет событие
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMarshalEvent, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.ProviderID, 10)),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	})
	if err != nil {
		p.metrics.IncEventPublished(string(event.Type), "error")
		p.logger.Error("Publish: failed to publish %s (event_id=%s): %v", event.Type, event.ID, err)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	p.metrics.IncEventPublished(string(event.Type), "ok")
	return nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher пишет события в лог, используется при выключенной Kafka
type LogPublisher struct {
	logger Logger
}

func NewLogPublisher(logger Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	p.logger.Info("Event %s: provider_id=%d status=%s event_id=%s", event.Type, event.ProviderID, event.Status, event.ID)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
