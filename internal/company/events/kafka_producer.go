package events

import (
	"context"
	"encoding/json"

	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CompanyCreated EventType = "company_created"
	CompanyUpdated EventType = "company_updated"
	CompanyDeleted EventType = "company_deleted"
)

const producerQueueSize = 1000

type Event struct {
	Type    EventType          `json:"type"`
	Company *models.CompanyDto `json:"company"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
}

// NewProducer ensures the topic exists and starts the background writer.
func NewProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	return newProducer(&kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}, logger), nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, producerQueueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// Produce enqueues the event without blocking. Events are dropped when the queue is full.
func (p *Producer) Produce(eventType EventType, company *models.CompanyDto) {
	select {
	case p.events <- Event{Type: eventType, Company: company}:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("company_id", company.ID.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("company_id", event.Company.ID.String()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Company.ID.String()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("company_id", event.Company.ID.String()),
		)
	}
}

func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}

// LogProducer stands in for Kafka when no brokers are configured.
type LogProducer struct {
	logger *zap.Logger
}

func NewLogProducer(logger *zap.Logger) *LogProducer {
	return &LogProducer{logger: logger.Named("event_log")}
}

func (p *LogProducer) Produce(eventType EventType, company *models.CompanyDto) {
	p.logger.Info("Company event",
		zap.String("event_type", string(eventType)),
		zap.String("company_id", company.ID.String()),
	)
}

func (p *LogProducer) Close() {}
