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

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

const testTimestamp int64 = 1766702552

// MockQueueConsumer is a mock implementation of stream.Consumer
type MockQueueConsumer struct {
	mock.Mock
}

func (m *MockQueueConsumer) ReceiveMessages(ctx context.Context, input *awssqs.ReceiveMessageInput) (*awssqs.ReceiveMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awssqs.ReceiveMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) DeleteMessage(ctx context.Context, input *awssqs.DeleteMessageInput) (*awssqs.DeleteMessageOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awssqs.DeleteMessageOutput), args.Error(1)
}

func (m *MockQueueConsumer) QueueURL() string {
	args := m.Called()
	return args.String(0)
}

func testUnifiedEvent(eventID string) *domain.UnifiedInteractionEvent {
	return &domain.UnifiedInteractionEvent{
		SpecVersion: domain.SpecVersion,
		EventID:     eventID,
		SessionID:   "sess-1",
		UserID:      "anon_abc",
		Timestamp:   testTimestamp,
		Modality:    domain.ModalityClickStream,
		Source:      domain.EventSource{Platform: "shopify", StoreID: "store-1"},
		ClickStream: &domain.ClickStreamEvent{EventType: domain.ClickEventClick, ElementID: "product-card-1"},
	}
}

func TestDecoderStage_Start_Success(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	log := zap.NewNop()

	stage := NewDecoderStage(mockConsumer, NewJSONEventDecoder(), log)

	body := `{
		"spec_version": "1.0",
		"event_id": "evt-1",
		"session_id": "sess-1",
		"user_id": "anon_abc",
		"timestamp": 1766702552,
		"modality": "click_stream",
		"source": {"platform": "shopify", "store_id": "store-1"},
		"click_stream": {"event_type": "click", "element_id": "product-card-1"}
	}`

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(body),
		ReceiptHandle: aws.String("receipt-1"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go stage.Start(ctx, in, out)

	in <- message
	close(in)

	envelope := <-out

	assert.NotNil(t, envelope)
	assert.Equal(t, "evt-1", envelope.Event.EventID)
	assert.Equal(t, domain.ModalityClickStream, envelope.Event.Modality)
}

// A schema-violating message is removed from the queue and never forwarded.
func TestDecoderStage_Start_SchemaViolationRejected(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	log := zap.NewNop()

	stage := NewDecoderStage(mockConsumer, NewJSONEventDecoder(), log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/test-queue")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&awssqs.DeleteMessageOutput{}, nil)

	// Modality claims click_stream but carries an avatar_chat payload.
	body := `{
		"spec_version": "1.0",
		"event_id": "evt-1",
		"session_id": "sess-1",
		"user_id": "anon_abc",
		"timestamp": 1766702552,
		"modality": "click_stream",
		"source": {"platform": "shopify", "store_id": "store-1"},
		"avatar_chat": {"turn_number": 1, "speaker": "user", "message": "hi"}
	}`

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(body),
		ReceiptHandle: aws.String("receipt-1"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go stage.Start(ctx, in, out)

	in <- message
	time.Sleep(20 * time.Millisecond)
	close(in)

	envelope, ok := <-out
	assert.False(t, ok, "Expected no envelope for rejected message, got: %v", envelope)

	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestDecoderStage_Start_MalformedJSON(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	log := zap.NewNop()

	stage := NewDecoderStage(mockConsumer, NewJSONEventDecoder(), log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/test-queue")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&awssqs.DeleteMessageOutput{}, nil)

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(`{invalid json}`),
		ReceiptHandle: aws.String("receipt-1"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go stage.Start(ctx, in, out)

	in <- message
	time.Sleep(20 * time.Millisecond)
	close(in)

	_, ok := <-out
	assert.False(t, ok)
	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}

func TestDecoderStage_AckDeletesMessage(t *testing.T) {
	mockConsumer := new(MockQueueConsumer)
	log := zap.NewNop()

	stage := NewDecoderStage(mockConsumer, NewJSONEventDecoder(), log)

	mockConsumer.On("QueueURL").Return("https://sqs.eu-central-1.amazonaws.com/123/test-queue")
	mockConsumer.On("DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput")).
		Return(&awssqs.DeleteMessageOutput{}, nil)

	body := `{
		"spec_version": "1.0",
		"event_id": "evt-1",
		"session_id": "sess-1",
		"user_id": "anon_abc",
		"timestamp": 1766702552,
		"modality": "click_stream",
		"source": {"platform": "shopify", "store_id": "store-1"},
		"click_stream": {"event_type": "click", "element_id": "product-card-1"}
	}`

	message := types.Message{
		MessageId:     aws.String("msg-1"),
		Body:          aws.String(body),
		ReceiptHandle: aws.String("receipt-1"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan types.Message, 1)
	out := make(chan *Envelope, 1)

	go stage.Start(ctx, in, out)

	in <- message
	close(in)

	envelope := <-out
	assert.NoError(t, envelope.Ack(ctx))
	assert.NoError(t, envelope.Nack(ctx))

	mockConsumer.AssertCalled(t, "DeleteMessage", mock.Anything, mock.AnythingOfType("*sqs.DeleteMessageInput"))
}
