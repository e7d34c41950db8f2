package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler reacts to a consumed company event.
type Handler func(context.Context, Event) error

type Consumer struct {
	reader  KafkaReader
	logger  *zap.Logger
	handler Handler
	started bool
	done    chan struct{}
}

// NewConsumer reads company events from topic as member of groupID.
func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), logger)
}

func newConsumer(reader KafkaReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		logger: logger.Named("kafka_consumer"),
		done:   make(chan struct{}),
	}
}

func (c *Consumer) RegisterHandler(fn Handler) {
	c.handler = fn
}

// Start consumes until ctx is cancelled or the reader is closed. Messages are
// committed only after the handler succeeds.
func (c *Consumer) Start(ctx context.Context) {
	c.started = true
	go func() {
		defer close(c.done)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				c.logger.Error("Failed to fetch message", zap.Error(err))
				continue
			}

			var event Event
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.Error("Failed to parse event",
					zap.Error(err),
					zap.ByteString("value", msg.Value),
				)
				continue
			}

			if c.handler != nil {
				if err := c.handler(ctx, event); err != nil {
					c.logger.Error("Failed to handle event",
						zap.Error(err),
						zap.String("event_type", string(event.Type)),
					)
					continue
				}
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.Error("Failed to commit message",
					zap.Error(err),
					zap.String("event_type", string(event.Type)),
				)
			}
		}
	}()
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
	if c.started {
		<-c.done
	}
}
