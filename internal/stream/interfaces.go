package stream

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// PublishResult reports the outcome of a publish call.
type PublishResult struct {
	Success   bool
	MessageID string
}

// Publisher is the named-topic publish side of the event stream.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *domain.UnifiedInteractionEvent) (*PublishResult, error)
	HealthCheck(ctx context.Context) error
}

// Consumer is the receive side of the event stream.
type Consumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
