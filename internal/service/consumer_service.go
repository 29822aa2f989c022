package service

import (
	"context"
	"encoding/json"
	"errors"

	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/rag/indexer"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	indexer        *indexer.Indexer
	eventPublisher events.Publisher
	logger         logger.ILogger
	metrics        *metrics.Metrics
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	indexer *indexer.Indexer,
	eventPublisher events.Publisher,
	logger logger.ILogger,
	metrics *metrics.Metrics,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		indexer:        indexer,
		eventPublisher: eventPublisher,
		logger:         logger,
		metrics:        metrics,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
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

// processMessage acks everything that retrying cannot fix: bad payloads,
// deleted documents and documents the indexer already marked FAILED.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job indexer.Job
	if err := json.Unmarshal(msg.Payload, &job); err != nil || job.DocumentId == uuid.Nil {
		cs.logger.Error("CONSUMER", "Dropping malformed index job", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err,
		})
		msg.Ack()
		return
	}

	chunks, err := cs.indexer.Index(ctx, job.Scope(), job.DocumentId)
	switch {
	case err == nil:
		cs.metrics.IndexJob(true)
		if pubErr := cs.eventPublisher.Publish(ctx, events.New(events.TypeDocumentIndexed, map[string]interface{}{
			"document_id":  job.DocumentId.String(),
			"workspace_id": job.WorkspaceId.String(),
			"chunks":       chunks,
		})); pubErr != nil {
			cs.logger.Warn("CONSUMER", "Failed to publish indexed event", map[string]interface{}{
				"document_id": job.DocumentId.String(),
				"error":       pubErr,
			})
		}
		msg.Ack()
	case errors.Is(err, indexer.ErrIndexingFailed), errors.Is(err, errs.ErrAccessDenied):
		cs.metrics.IndexJob(false)
		msg.Ack()
	default:
		cs.logger.Error("CONSUMER", "Index job failed, will be redelivered", map[string]interface{}{
			"document_id": job.DocumentId.String(),
			"error":       err,
		})
		msg.Nack()
	}
}
