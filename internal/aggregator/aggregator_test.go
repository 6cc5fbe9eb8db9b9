package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

func TestAggregator_Start_PipelineCoordination(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockStore := new(MockProfileStore)
	mockFilter := new(MockDeduper)
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	cfg := &config.Config{
		Aggregator: config.Aggregator{
			BatchSizeMax:    10,
			BatchTimeoutSec: 1,
			ApplyRetries:    3,
		},
	}

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/test-queue")

	body := `{
		"spec_version": "1.0",
		"event_id": "evt-1",
		"session_id": "sess-1",
		"user_id": "anon_abc",
		"timestamp": 1766702552,
		"modality": "click_stream",
		"source": {"platform": "shopify", "store_id": "store-1"},
		"click_stream": {"event_type": "click", "element_id": "product-card-1", "element_details": {"styles": ["modern"]}}
	}`

	messages := []types.Message{
		{
			MessageId:     aws.String("msg-1"),
			Body:          aws.String(body),
			ReceiptHandle: aws.String("receipt-1"),
		},
	}

	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&awssqs.ReceiveMessageOutput{Messages: messages}, nil).Once()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&awssqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&awssqs.DeleteMessageOutput{}, nil)

	mockFilter.On("Seen", mock.Anything, "evt-1").Return(false, nil)
	mockFilter.On("Mark", mock.Anything, "evt-1").Return(nil)

	mockStore.On("Get", mock.Anything, "anon_abc").Return(nil, domain.ErrProfileNotFound)
	mockStore.On("Save", mock.Anything, mock.MatchedBy(func(p *domain.UnifiedUserProfile) bool {
		return p.UserID == "anon_abc" && p.Signals.ClickStreamEvents == 1
	})).Return(nil)

	mockArchive.On("InsertBatch", mock.Anything, mock.MatchedBy(func(events []*domain.UnifiedInteractionEvent) bool {
		return len(events) == 1 && events[0].EventID == "evt-1"
	})).Return(1, nil)

	agg := New(cfg, mockConsumer, mockStore, mockFilter, mockArchive, log)

	ctx, cancel := context.WithTimeout(context.Background(), 1500*time.Millisecond)
	defer cancel()

	err := agg.Start(ctx)

	assert.NoError(t, err)
	mockStore.AssertCalled(t, "Save", mock.Anything, mock.Anything)
	mockArchive.AssertCalled(t, "InsertBatch", mock.Anything, mock.Anything)
}

func TestAggregator_Start_GracefulShutdown(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	mockStore := new(MockProfileStore)
	mockFilter := new(MockDeduper)
	mockArchive := new(MockEventArchive)
	log := zap.NewNop()

	cfg := &config.Config{
		Aggregator: config.Aggregator{
			BatchSizeMax:    10,
			BatchTimeoutSec: 1,
			ApplyRetries:    3,
		},
	}

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/test-queue").Maybe()
	mockConsumer.On("ReceiveMessages", mock.Anything, mock.AnythingOfType("*sqs.ReceiveMessageInput")).
		Return(&awssqs.ReceiveMessageOutput{Messages: []types.Message{}}, nil).Maybe()

	agg := New(cfg, mockConsumer, mockStore, mockFilter, mockArchive, log)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() {
		err := agg.Start(ctx)
		assert.NoError(t, err)
		done <- true
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// All stages drained
	case <-time.After(2 * time.Second):
		t.Fatal("aggregator did not shut down after cancel")
	}
}
