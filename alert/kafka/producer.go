package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cemint/cemint-insights/alert"
	"github.com/cemint/cemint-insights/logger"
)

// messageWriter is the part of kafka-go's Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer wraps a kafka-go Writer with retries and logging.
type Producer struct {
	writer messageWriter
	cfg    Config
	log    *logger.Logger
	mu     sync.RWMutex
	closed bool
}

// NewProducer creates a producer. kafka-go connects lazily, so no broker is
// contacted until the first write.
func NewProducer(cfg Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer config: %w", err)
	}
	if !cfg.Enabled {
		return nil, fmt.Errorf("kafka is disabled")
	}
	if log == nil {
		log = logger.NewNop()
	}

	transport, err := newTransport(&cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer transport: %w", err)
	}
	p := &Producer{cfg: cfg, log: log.WithComponent("alert.kafka")}
	p.writer = &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Transport:              transport,
		Balancer:               &kafkago.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:            cfg.compression(),
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			p.log.Error("writer: " + fmt.Sprintf(msg, args...))
		}),
	}

	p.log.Info("kafka producer initialized", logger.Fields(
		"brokers", cfg.Brokers,
		"topic", cfg.Topic,
		"compression", cfg.Compression,
	))
	return p, nil
}

// WriteMessages sends msgs, retrying transient failures with linear backoff.
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return fmt.Errorf("producer is closed")
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.Retries; attempt++ {
		lastErr = p.writer.WriteMessages(ctx, msgs...)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) || attempt == p.cfg.Retries {
			break
		}
		p.log.Warn("kafka write failed, retrying", logger.Fields("attempt", attempt, logger.FieldError, lastErr.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("kafka write: %w", lastErr)
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.log.Info("kafka producer closing")
	return p.writer.Close()
}

// Publisher sends alerts as JSON keyed by model ID.
type Publisher struct {
	producer *Producer
	topic    string
}

var _ alert.Publisher = (*Publisher)(nil)

// NewPublisher creates a Publisher writing to topic.
func NewPublisher(p *Producer, topic string) *Publisher {
	return &Publisher{producer: p, topic: topic}
}

// Publish implements alert.Publisher.
func (p *Publisher) Publish(ctx context.Context, a alert.Alert) error {
	msg, err := Message(p.topic, a)
	if err != nil {
		return err
	}
	return p.producer.WriteMessages(ctx, msg)
}

// Message encodes a as a Kafka message on topic.
func Message(topic string, a alert.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal alert: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(a.ModelID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert-id", Value: []byte(a.ID)},
			{Key: "alert-type", Value: []byte(a.AlertType)},
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
