package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/logship/internal/domain"
	"github.com/bft-labs/logship/pkg/log"
)

type fakeWriter struct {
	calls  [][]kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.calls = append(w.calls, msgs)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestTopicStore_OneWritePerBatchInOrder(t *testing.T) {
	w := &fakeWriter{}
	s := newTopicStore(w, "logs", log.NewNoopLogger())

	batch := domain.Batch{[]byte("a"), []byte("b"), []byte("c")}
	require.NoError(t, s.Store(context.Background(), batch))

	require.Len(t, w.calls, 1)
	require.Len(t, w.calls[0], 3)
	for i, msg := range w.calls[0] {
		assert.Equal(t, batch[i], msg.Value)
	}
}

func TestTopicStore_EmptyBatch(t *testing.T) {
	w := &fakeWriter{}
	s := newTopicStore(w, "logs", log.NewNoopLogger())

	require.NoError(t, s.Store(context.Background(), domain.Batch{}))
	assert.Empty(t, w.calls)
}

func TestTopicStore_WriteError(t *testing.T) {
	w := &fakeWriter{err: kafka.LeaderNotAvailable}
	s := newTopicStore(w, "logs", log.NewNoopLogger())

	err := s.Store(context.Background(), domain.Batch{[]byte("a")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, errors.Is(err, kafka.LeaderNotAvailable))

	var serr *domain.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "kafka", serr.Backend)
}

func TestTopicStore_Close(t *testing.T) {
	w := &fakeWriter{}
	s := newTopicStore(w, "logs", log.NewNoopLogger())

	require.NoError(t, s.Close())
	assert.True(t, w.closed)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Brokers: []string{"localhost:9092"}, Topic: "logs"}, false},
		{"no brokers", Config{Topic: "logs"}, true},
		{"blank brokers", Config{Brokers: []string{" ", ""}, Topic: "logs"}, true},
		{"no topic", Config{Brokers: []string{"localhost:9092"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewTopicStore(t *testing.T) {
	s, err := NewTopicStore(Config{Brokers: []string{"localhost:9092"}, Topic: "logs"}, log.NewNoopLogger())
	require.NoError(t, err)

	w, ok := s.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "logs", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	require.NoError(t, s.Close())
}
