package aggregator

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/stream"
)

// JSONEventDecoder decodes JSON stream messages into unified events,
// enforcing the modality/payload contract.
type JSONEventDecoder struct{}

// NewJSONEventDecoder creates a new JSON event decoder
func NewJSONEventDecoder() *JSONEventDecoder {
	return &JSONEventDecoder{}
}

// Decode parses a JSON message body into a validated unified event
func (d *JSONEventDecoder) Decode(body []byte) (*domain.UnifiedInteractionEvent, error) {
	return domain.DecodeUnifiedEvent(body)
}

// DecoderStage turns raw stream messages into schema-checked envelopes.
// Events that fail the schema contract are rejected without touching any
// profile: logged, removed from the queue, and never forwarded.
type DecoderStage struct {
	consumer stream.Consumer
	decoder  EventDecoder
	log      *zap.Logger
}

// NewDecoderStage creates a new decoder stage
func NewDecoderStage(consumer stream.Consumer, decoder EventDecoder, log *zap.Logger) *DecoderStage {
	return &DecoderStage{
		consumer: consumer,
		decoder:  decoder,
		log:      log,
	}
}

// Start begins decoding messages and outputs envelopes
func (d *DecoderStage) Start(ctx context.Context, in <-chan types.Message, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			d.log.Info("Decoder stage shutting down")
			return
		case msg, ok := <-in:
			if !ok {
				d.log.Info("Decoder stage input channel closed")
				return
			}

			envelope := d.decodeMessage(ctx, msg)
			if envelope == nil {
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
				// Envelope sent to next stage
			}
		}
	}
}

// decodeMessage decodes a single stream message into an envelope
func (d *DecoderStage) decodeMessage(ctx context.Context, msg types.Message) *Envelope {
	body := aws.ToString(msg.Body)
	event, err := d.decoder.Decode([]byte(body))

	if err != nil {
		d.log.Warn("Rejected stream message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		if err := d.deleteMessage(ctx, msg); err != nil {
			d.log.Error("Failed to remove rejected message",
				zap.String("message_id", aws.ToString(msg.MessageId)),
				zap.Error(err))
		}
		return nil
	}

	ack := func(ctx context.Context) error {
		return d.deleteMessage(ctx, msg)
	}

	nack := func(ctx context.Context) error {
		// Message becomes visible again after its visibility timeout.
		return nil
	}

	return NewEnvelope(event, ack, nack)
}

// deleteMessage deletes a message from the stream queue
func (d *DecoderStage) deleteMessage(ctx context.Context, msg types.Message) error {
	_, err := d.consumer.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(d.consumer.QueueURL()),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		d.log.Error("Failed to delete message",
			zap.String("message_id", aws.ToString(msg.MessageId)),
			zap.Error(err))
		return err
	}
	return nil
}
