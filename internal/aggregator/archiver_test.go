package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository"
)

// MockEventArchive is a mock implementation of repository.EventArchive
type MockEventArchive struct {
	mock.Mock
}

func (m *MockEventArchive) InsertBatch(ctx context.Context, events []*domain.UnifiedInteractionEvent) (int, error) {
	args := m.Called(ctx, events)
	return args.Int(0), args.Error(1)
}

func (m *MockEventArchive) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventArchive) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEventArchive) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockEventArchive) GetInteractionVolume(ctx context.Context, query repository.VolumeQuery) (*repository.VolumeResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.VolumeResult), args.Error(1)
}

// ackTracker counts ack and nack calls across envelopes.
type ackTracker struct {
	mu     sync.Mutex
	acked  int
	nacked int
}

func (a *ackTracker) envelope(eventID string) *Envelope {
	return NewEnvelope(testUnifiedEvent(eventID),
		func(ctx context.Context) error {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.acked++
			return nil
		},
		func(ctx context.Context) error {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.nacked++
			return nil
		})
}

func (a *ackTracker) counts() (int, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acked, a.nacked
}

func TestArchiver_Start_BatchSizeThreshold(t *testing.T) {
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	config := ArchiverConfig{
		MaxBatchSize: 3,
		FlushTimeout: 10 * time.Second,
	}

	archiver := NewArchiver(mockArchive, config, log)

	mockArchive.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.UnifiedInteractionEvent) bool {
		return len(events) == 3
	})).Return(3, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := &ackTracker{}
	in := make(chan *Envelope, 5)
	go archiver.Start(ctx, in)

	in <- tracker.envelope("evt-1")
	in <- tracker.envelope("evt-2")
	in <- tracker.envelope("evt-3")

	time.Sleep(100 * time.Millisecond)

	acked, nacked := tracker.counts()
	assert.Equal(t, 3, acked)
	assert.Equal(t, 0, nacked)
	mockArchive.AssertExpectations(t)
}

func TestArchiver_Start_TimeoutFlush(t *testing.T) {
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	config := ArchiverConfig{
		MaxBatchSize: 10,
		FlushTimeout: 50 * time.Millisecond,
	}

	archiver := NewArchiver(mockArchive, config, log)

	mockArchive.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.UnifiedInteractionEvent) bool {
		return len(events) == 2
	})).Return(2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := &ackTracker{}
	in := make(chan *Envelope, 5)
	go archiver.Start(ctx, in)

	in <- tracker.envelope("evt-1")
	in <- tracker.envelope("evt-2")

	time.Sleep(120 * time.Millisecond)

	acked, _ := tracker.counts()
	assert.Equal(t, 2, acked)
	mockArchive.AssertExpectations(t)
}

// An archive failure nacks the whole batch so the stream redelivers it.
// The dedup stage keeps the redelivered events out of the profiles.
func TestArchiver_Start_InsertFailureNacksBatch(t *testing.T) {
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	config := ArchiverConfig{
		MaxBatchSize: 2,
		FlushTimeout: 10 * time.Second,
	}

	archiver := NewArchiver(mockArchive, config, log)

	mockArchive.On("InsertBatch", mock.Anything, mock.Anything).
		Return(0, errors.New("archive unavailable"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := &ackTracker{}
	in := make(chan *Envelope, 5)
	go archiver.Start(ctx, in)

	in <- tracker.envelope("evt-1")
	in <- tracker.envelope("evt-2")

	time.Sleep(100 * time.Millisecond)

	acked, nacked := tracker.counts()
	assert.Equal(t, 0, acked)
	assert.Equal(t, 2, nacked)
}

func TestArchiver_Start_PartialInsertNacksBatch(t *testing.T) {
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	config := ArchiverConfig{
		MaxBatchSize: 2,
		FlushTimeout: 10 * time.Second,
	}

	archiver := NewArchiver(mockArchive, config, log)

	mockArchive.On("InsertBatch", mock.Anything, mock.Anything).Return(1, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tracker := &ackTracker{}
	in := make(chan *Envelope, 5)
	go archiver.Start(ctx, in)

	in <- tracker.envelope("evt-1")
	in <- tracker.envelope("evt-2")

	time.Sleep(100 * time.Millisecond)

	acked, nacked := tracker.counts()
	assert.Equal(t, 0, acked)
	assert.Equal(t, 2, nacked)
}

func TestArchiver_Start_FlushesOnShutdown(t *testing.T) {
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	config := ArchiverConfig{
		MaxBatchSize: 10,
		FlushTimeout: 10 * time.Second,
	}

	archiver := NewArchiver(mockArchive, config, log)

	mockArchive.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.UnifiedInteractionEvent) bool {
		return len(events) == 1
	})).Return(1, nil)

	ctx := context.Background()

	tracker := &ackTracker{}
	in := make(chan *Envelope, 5)

	done := make(chan struct{})
	go func() {
		archiver.Start(ctx, in)
		close(done)
	}()

	in <- tracker.envelope("evt-1")
	time.Sleep(20 * time.Millisecond)
	close(in)

	<-done

	acked, _ := tracker.counts()
	assert.Equal(t, 1, acked)
	mockArchive.AssertExpectations(t)
}
