package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gartstein/companyemployees/internal/company/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockKafkaWriter implements KafkaWriter for testing
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestNewProducer(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	mockWriter.On("Close").Return(nil)
	producer := newProducer(mockWriter, zaptest.NewLogger(t))
	defer producer.Close()

	assert.NotNil(t, producer.events)
	assert.Equal(t, producerQueueSize, cap(producer.events))
	assert.Equal(t, "kafka_producer", producer.logger.Check(zap.InfoLevel, "").LoggerName)
}

func TestProducer_Produce(t *testing.T) {
	t.Run("successful produce", func(t *testing.T) {
		producer := &Producer{events: make(chan Event, 1), logger: zaptest.NewLogger(t)}
		company := &models.CompanyDto{ID: uuid.New()}

		producer.Produce(CompanyCreated, company)

		assert.Equal(t, 1, len(producer.events))
	})

	t.Run("dropped event when queue full", func(t *testing.T) {
		core, recorded := observer.New(zap.WarnLevel)
		producer := &Producer{events: make(chan Event, 1), logger: zap.New(core)}
		company := &models.CompanyDto{ID: uuid.New()}

		// Fill the channel
		producer.Produce(CompanyCreated, company)
		producer.Produce(CompanyCreated, company) // This should be dropped

		assert.Equal(t, 1, recorded.FilterMessage("Kafka producer queue full, dropping event").Len())
	})
}

func TestProducer_SendEvent(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	company := &models.CompanyDto{ID: uuid.New(), Name: "Test Company", FullAddress: "Road 1 USA"}

	producer := &Producer{
		writer: mockWriter,
		logger: zaptest.NewLogger(t),
	}

	t.Run("successful send", func(t *testing.T) {
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil)

		event := Event{Type: CompanyCreated, Company: company}
		producer.sendEvent(context.Background(), event)

		mockWriter.AssertCalled(t, "WriteMessages", mock.Anything, []kafka.Message{
			{
				Key:   []byte(company.ID.String()),
				Value: mustMarshal(event),
			},
		})
	})

	t.Run("serialization error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)

		// Mock JSON marshaling to force error
		oldMarshal := jsonMarshal
		jsonMarshal = func(_ interface{}) ([]byte, error) {
			return nil, errors.New("mock marshal error")
		}
		defer func() { jsonMarshal = oldMarshal }()

		producer.sendEvent(context.Background(), Event{Type: CompanyCreated, Company: company})

		assert.Equal(t, 1, recorded.FilterMessage("Failed to serialize event").Len())
		assert.Equal(t, 1, recorded.FilterField(zap.String("company_id", company.ID.String())).Len())
	})

	t.Run("write error", func(t *testing.T) {
		core, recorded := observer.New(zap.ErrorLevel)
		producer.logger = zap.New(core)
		mockWriter.ExpectedCalls = nil
		mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("kafka error"))

		producer.sendEvent(context.Background(), Event{Type: CompanyDeleted, Company: company})

		assert.Equal(t, 1, recorded.FilterMessage("Failed to produce event").Len())
	})
}

func TestProducer_EventLoopAndClose(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	written := make(chan struct{}, 1)
	mockWriter.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		written <- struct{}{}
	})
	mockWriter.On("Close").Return(nil)

	producer := newProducer(mockWriter, zaptest.NewLogger(t))
	producer.Produce(CompanyUpdated, &models.CompanyDto{ID: uuid.New()})

	select {
	case <-written:
	case <-time.After(time.Second):
		t.Fatal("event was not written")
	}

	producer.Close()

	select {
	case <-producer.closeChan:
	default:
		t.Error("closeChan not closed")
	}
	mockWriter.AssertCalled(t, "Close")
}

func TestLogProducer(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	producer := NewLogProducer(zap.New(core))
	id := uuid.New()

	producer.Produce(CompanyDeleted, &models.CompanyDto{ID: id})
	producer.Close()

	entries := recorded.FilterMessage("Company event").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, string(CompanyDeleted), entries[0].ContextMap()["event_type"])
		assert.Equal(t, id.String(), entries[0].ContextMap()["company_id"])
	}
}

func mustMarshal(e Event) []byte {
	data, _ := json.Marshal(e)
	return data
}
