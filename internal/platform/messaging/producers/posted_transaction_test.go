package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openledger-engine/internal/domain/journal"
	"github.com/openledger-engine/internal/domain/money"
)

// MockKafkaWriter mocks KafkaWriter interface
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

func TestPostedTransactionProducer_PublishTransaction(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	topic := "test-posted-transactions"
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &PostedTransactionProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		amount, err := money.FromString("100.00", money.AmountScale)
		require.NoError(t, err)
		txID := uuid.New()
		tx := &journal.Transaction{
			ID:     txID,
			Number: 5,
			Date:   time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			Type:   journal.TypeGeneralJournal,
			Entries: []journal.Entry{
				{ID: uuid.New(), TransactionID: txID, AccountID: uuid.New(), Debit: amount, Credit: money.Zero(money.AmountScale)},
				{ID: uuid.New(), TransactionID: txID, AccountID: uuid.New(), Debit: money.Zero(money.AmountScale), Credit: amount},
			},
		}
		expectedJSONValue, _ := json.Marshal(tx)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == tx.ID.String() && string(msg.Value) == string(expectedJSONValue)
		})).Return(nil).Once()

		err = producer.PublishTransaction(ctx, tx)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &PostedTransactionProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		writerError := errors.New("kafka write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.Publish(ctx, "test-key-fail", map[string]string{"data": "test-data"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, writerError) || strings.Contains(err.Error(), writerError.Error()))
		mockWriter.AssertExpectations(t)
	})
}

func TestPostedTransactionProducer_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	topic := "test-posted-transactions-close"

	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &PostedTransactionProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}

		mockWriter.On("Close").Return(nil).Once()

		err := producer.Close()
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterCloseError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &PostedTransactionProducer{
			logger: logger,
			writer: mockWriter,
			topic:  topic,
		}
		closeError := errors.New("kafka close error")

		mockWriter.On("Close").Return(closeError).Once()

		err := producer.Close()
		require.Error(t, err)
		assert.True(t, errors.Is(err, closeError) || strings.Contains(err.Error(), closeError.Error()))
		mockWriter.AssertExpectations(t)
	})
}

// Verify interface implementation
var _ KafkaWriter = (*MockKafkaWriter)(nil)
