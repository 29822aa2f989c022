package service

import (
	"context"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/rag/indexer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTopic = "knowledge.index"

func startConsumer(t *testing.T, store *memory.Store, recorder *events.Recorder) IPublisherService {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithCancel(ctxBg)
	t.Cleanup(cancel)

	nop := logger.NewNopLogger()
	ix := indexer.NewIndexer(store, &stubEmbedder{}, nop).WithRetryPolicy(noRetry)
	consumer := NewConsumerService(pubSub, testTopic, ix, recorder, nop, metrics.New())
	require.NoError(t, consumer.Consume(ctx))

	return NewPublisherService(pubSub, testTopic)
}

func pendingDocument(t *testing.T, store *memory.Store) *entity.KnowledgeDocument {
	t.Helper()
	doc := &entity.KnowledgeDocument{
		Id:          uuid.New(),
		WorkspaceId: uuid.New(),
		OwnerId:     uuid.New(),
		Filename:    "faq.md",
		Content:     "Support is available around the clock",
		Status:      entity.DocumentStatusPending,
		WordCount:   6,
	}
	require.NoError(t, store.NewUnitOfWork(ctxBg).KnowledgeRepository().CreateDocument(ctxBg, doc))
	return doc
}

func documentStatus(store *memory.Store, doc *entity.KnowledgeDocument) entity.DocumentStatus {
	scope := entity.ScopeFromJob(doc.WorkspaceId, doc.OwnerId)
	found, err := store.NewUnitOfWork(ctxBg).KnowledgeRepository().FindDocument(ctxBg, scope, specification.ByID{ID: doc.Id})
	if err != nil || found == nil {
		return ""
	}
	return found.Status
}

func TestConsumerIndexesQueuedDocuments(t *testing.T) {
	store := memory.NewStore()
	recorder := &events.Recorder{}
	publisher := startConsumer(t, store, recorder)
	doc := pendingDocument(t, store)

	// bad payloads are acked and do not block the queue
	require.NoError(t, publisher.Publish(ctxBg, []byte("not json")))
	require.NoError(t, publisher.Publish(ctxBg, []byte(`{"document_id":"`+uuid.NewString()+`"}`)))

	payload := []byte(`{"document_id":"` + doc.Id.String() + `","workspace_id":"` + doc.WorkspaceId.String() + `","owner_id":"` + doc.OwnerId.String() + `"}`)
	require.NoError(t, publisher.Publish(ctxBg, payload))

	assert.Eventually(t, func() bool {
		return documentStatus(store, doc) == entity.DocumentStatusIndexed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		types := recorder.Types()
		return len(types) == 1 && types[0] == events.TypeDocumentIndexed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumerIgnoresForeignScope(t *testing.T) {
	store := memory.NewStore()
	recorder := &events.Recorder{}
	publisher := startConsumer(t, store, recorder)
	doc := pendingDocument(t, store)

	// a job naming another owner must not index the document
	forged := []byte(`{"document_id":"` + doc.Id.String() + `","workspace_id":"` + doc.WorkspaceId.String() + `","owner_id":"` + uuid.NewString() + `"}`)
	require.NoError(t, publisher.Publish(ctxBg, forged))

	other := pendingDocument(t, store)
	valid := []byte(`{"document_id":"` + other.Id.String() + `","workspace_id":"` + other.WorkspaceId.String() + `","owner_id":"` + other.OwnerId.String() + `"}`)
	require.NoError(t, publisher.Publish(ctxBg, valid))

	assert.Eventually(t, func() bool {
		return documentStatus(store, other) == entity.DocumentStatusIndexed
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, entity.DocumentStatusPending, documentStatus(store, doc))
}
