package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/stream"
)

const testTimestamp int64 = 1766702552

// MockPublisher is a mock implementation of stream.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, event *domain.UnifiedInteractionEvent) (*stream.PublishResult, error) {
	args := m.Called(ctx, topic, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stream.PublishResult), args.Error(1)
}

func (m *MockPublisher) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func testPrivacy() config.Privacy {
	return config.Privacy{
		AnonymizeUserIDs:  true,
		StripPII:          true,
		AnonymizationSalt: "test-salt",
	}
}

func testCollector(publisher stream.Publisher) *Collector {
	return New(publisher, testPrivacy(), config.Collector{
		BreakerThreshold:   3,
		BreakerCooldownSec: 30,
	}, "unified-interactions", zap.NewNop())
}

func testSource() domain.EventSource {
	return domain.EventSource{Platform: "shopify", StoreID: "store-1"}
}

func TestCollectClickStreamEvent_Success(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	var published *domain.UnifiedInteractionEvent
	mockPublisher.On("Publish", mock.Anything, "unified-interactions", mock.AnythingOfType("*domain.UnifiedInteractionEvent")).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(*domain.UnifiedInteractionEvent)
		}).
		Return(&stream.PublishResult{Success: true, MessageID: "msg-1"}, nil)

	err := c.CollectClickStreamEvent(context.Background(), "sess-1", "user-123", testSource(), testTimestamp, &domain.ClickStreamEvent{
		EventType: domain.ClickEventClick,
		ElementID: "product-card-1",
	})

	assert.NoError(t, err)
	assert.NotNil(t, published)
	assert.Equal(t, domain.SpecVersion, published.SpecVersion)
	assert.Equal(t, domain.ModalityClickStream, published.Modality)
	assert.NoError(t, published.Validate())
	mockPublisher.AssertExpectations(t)
}

func TestCollectClickStreamEvent_ValidationErrors(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)
	ctx := context.Background()

	click := &domain.ClickStreamEvent{EventType: domain.ClickEventClick}

	assert.ErrorIs(t, c.CollectClickStreamEvent(ctx, "", "user-123", testSource(), testTimestamp, click), domain.ErrValidation)
	assert.ErrorIs(t, c.CollectClickStreamEvent(ctx, "sess-1", "", testSource(), testTimestamp, click), domain.ErrValidation)
	assert.ErrorIs(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", domain.EventSource{}, testTimestamp, click), domain.ErrValidation)
	assert.ErrorIs(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", testSource(), testTimestamp, nil), domain.ErrValidation)
	assert.ErrorIs(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", testSource(), testTimestamp,
		&domain.ClickStreamEvent{EventType: "teleport"}), domain.ErrValidation)

	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

// Publish failures are absorbed: the caller still gets nil.
func TestCollectClickStreamEvent_PublishFailureNotSurfaced(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	mockPublisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("queue unavailable"))

	err := c.CollectClickStreamEvent(context.Background(), "sess-1", "user-123", testSource(), testTimestamp, &domain.ClickStreamEvent{
		EventType: domain.ClickEventView,
	})

	assert.NoError(t, err)
	mockPublisher.AssertExpectations(t)
}

func TestCollectClickStreamEvent_AnonymizesUserID(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	var published *domain.UnifiedInteractionEvent
	mockPublisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(*domain.UnifiedInteractionEvent)
		}).
		Return(&stream.PublishResult{Success: true}, nil)

	err := c.CollectClickStreamEvent(context.Background(), "sess-1", "user-123", testSource(), testTimestamp, &domain.ClickStreamEvent{
		EventType: domain.ClickEventClick,
	})

	assert.NoError(t, err)
	assert.NotEqual(t, "user-123", published.UserID)
	assert.Contains(t, published.UserID, "anon_")
}

// The same interaction always maps to the same event ID, so a retried
// submission is a duplicate downstream, not a second event.
func TestCollectClickStreamEvent_DeterministicEventID(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	var ids []string
	mockPublisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ids = append(ids, args.Get(2).(*domain.UnifiedInteractionEvent).EventID)
		}).
		Return(&stream.PublishResult{Success: true}, nil)

	click := &domain.ClickStreamEvent{EventType: domain.ClickEventClick, ElementID: "product-card-1"}
	ctx := context.Background()

	assert.NoError(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", testSource(), testTimestamp, click))
	assert.NoError(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", testSource(), testTimestamp, click))
	assert.NoError(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", testSource(), testTimestamp+1, click))

	assert.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[1])
	assert.NotEqual(t, ids[0], ids[2])
}

func TestCollectAvatarChatEvent_ScrubsPII(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	var published *domain.UnifiedInteractionEvent
	mockPublisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			published = args.Get(2).(*domain.UnifiedInteractionEvent)
		}).
		Return(&stream.PublishResult{Success: true}, nil)

	original := &domain.AvatarChatEvent{
		TurnNumber: 1,
		Speaker:    domain.SpeakerUser,
		Message:    "email me at jane@example.com or call 555-123-4567",
	}

	err := c.CollectAvatarChatEvent(context.Background(), "sess-1", "user-123", testSource(), testTimestamp, original)

	assert.NoError(t, err)
	assert.NotContains(t, published.AvatarChat.Message, "jane@example.com")
	assert.NotContains(t, published.AvatarChat.Message, "555-123-4567")
	assert.Contains(t, published.AvatarChat.Message, "[redacted]")
	// Caller's payload is untouched.
	assert.Contains(t, original.Message, "jane@example.com")
}

func TestCollectAvatarChatEvent_UnknownSpeaker(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	err := c.CollectAvatarChatEvent(context.Background(), "sess-1", "user-123", testSource(), testTimestamp, &domain.AvatarChatEvent{
		TurnNumber: 1,
		Speaker:    "narrator",
		Message:    "hello",
	})

	assert.ErrorIs(t, err, domain.ErrValidation)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

// After the breaker opens, events are shed without touching the publisher.
func TestCollect_BreakerShedsAfterConsecutiveFailures(t *testing.T) {
	mockPublisher := new(MockPublisher)
	c := testCollector(mockPublisher)

	mockPublisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("queue unavailable")).
		Times(3)

	click := &domain.ClickStreamEvent{EventType: domain.ClickEventClick}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		assert.NoError(t, c.CollectClickStreamEvent(ctx, "sess-1", "user-123", testSource(), testTimestamp+int64(i), click))
	}

	// Threshold is 3: the last two attempts never reached the publisher.
	mockPublisher.AssertNumberOfCalls(t, "Publish", 3)
}

func TestBreaker_ReclosesAfterCooldown(t *testing.T) {
	b := NewBreaker(2, time.Minute)
	current := time.Unix(testTimestamp, 0)
	b.now = func() time.Time { return current }

	assert.True(t, b.Allow())
	b.Failure()
	b.Failure()
	assert.False(t, b.Allow())

	current = current.Add(61 * time.Second)
	assert.True(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	b.Failure()
	b.Failure()
	b.Success()
	b.Failure()
	b.Failure()

	assert.True(t, b.Allow())
}
