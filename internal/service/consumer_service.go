package service

import (
	"context"
	"encoding/json"

	"ai-qa-platform-be/internal/dto"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/events"
	pktNats "ai-qa-platform-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the embed queue: for each message it recomputes the
// curated entry's question embedding and clears the stale flag.
type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	fixedQARepository contract.FixedQARepository
	embeddingProvider embedding.EmbeddingProvider
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	fixedQARepository contract.FixedQARepository,
	embeddingProvider embedding.EmbeddingProvider,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		fixedQARepository: fixedQARepository,
		embeddingProvider: embeddingProvider,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedQAMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("consumer", "failed to unmarshal embed message", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // malformed, retrying will never help
		return
	}

	entry, err := cs.fixedQARepository.FindOne(ctx, specification.ByID{ID: payload.EntryId})
	if err != nil {
		cs.logger.Error("consumer", "failed to load entry", map[string]interface{}{
			"entry_id": payload.EntryId.String(),
			"error":    err.Error(),
		})
		msg.Nack()
		return
	}
	if entry == nil {
		// Deleted between publish and consume.
		msg.Ack()
		return
	}

	res, err := cs.embeddingProvider.Generate(ctx, entry.Question, embedding.TaskRetrievalDocument)
	if err != nil {
		cs.logger.Error("consumer", "embedding generation failed", map[string]interface{}{
			"entry_id": entry.Id.String(),
			"error":    err.Error(),
		})
		msg.Nack()
		return
	}

	if err := cs.fixedQARepository.SetEmbedding(ctx, entry.Id, res.Embedding.Values); err != nil {
		cs.logger.Error("consumer", "failed to store embedding", map[string]interface{}{
			"entry_id": entry.Id.String(),
			"error":    err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info("consumer", "question embedding refreshed", map[string]interface{}{
		"entry_id": entry.Id.String(),
	})

	if cs.eventPublisher != nil {
		evt := events.NewFixedQAEmbedded(entry.ApplicationId.String(), entry.Id.String())
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("consumer", "failed to publish embedded event", map[string]interface{}{
				"entry_id": entry.Id.String(),
				"error":    err.Error(),
			})
		}
	}

	msg.Ack()
}
