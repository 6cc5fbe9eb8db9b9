package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/profile"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository"
	"github.com/adebold/Commerce-Studio-sub021/internal/stream"
)

// Aggregator orchestrates the cross-modal profile pipeline: raw stream
// messages are decoded into unified events, deduplicated, applied to user
// profiles, and archived.
type Aggregator struct {
	receiver *Receiver
	decoder  *DecoderStage
	dedup    *DedupStage
	applier  *Applier
	archiver *Archiver
}

// New creates an aggregator with the staged pipeline architecture
func New(cfg *config.Config, consumer stream.Consumer, store profile.Store, filter Deduper, archive repository.EventArchive, log *zap.Logger) *Aggregator {
	receiver := NewReceiver(consumer, ReceiverConfig{
		MaxMessages:     10,
		WaitTimeSeconds: 20,
		BufferSize:      100,
	}, log)

	decoder := NewDecoderStage(consumer, NewJSONEventDecoder(), log)

	dedup := NewDedupStage(filter, log)

	applier := NewApplier(store, filter, ApplierConfig{
		MaxRetries: cfg.Aggregator.ApplyRetries,
	}, log)

	archiver := NewArchiver(archive, ArchiverConfig{
		MaxBatchSize: cfg.Aggregator.BatchSizeMax,
		FlushTimeout: time.Duration(cfg.Aggregator.BatchTimeoutSec) * time.Second,
	}, log)

	return &Aggregator{
		receiver: receiver,
		decoder:  decoder,
		dedup:    dedup,
		applier:  applier,
		archiver: archiver,
	}
}

// Start begins the aggregator pipeline and blocks until all stages drain
func (a *Aggregator) Start(ctx context.Context) error {
	messageChan := make(chan types.Message, 100)
	decodedChan := make(chan *Envelope, 100)
	freshChan := make(chan *Envelope, 100)
	appliedChan := make(chan *Envelope, 100)

	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		a.receiver.Start(ctx, messageChan)
	}()

	go func() {
		defer wg.Done()
		a.decoder.Start(ctx, messageChan, decodedChan)
	}()

	go func() {
		defer wg.Done()
		a.dedup.Start(ctx, decodedChan, freshChan)
	}()

	go func() {
		defer wg.Done()
		a.applier.Start(ctx, freshChan, appliedChan)
	}()

	go func() {
		defer wg.Done()
		a.archiver.Start(ctx, appliedChan)
	}()

	wg.Wait()
	return nil
}
