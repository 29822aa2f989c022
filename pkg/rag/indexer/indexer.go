// Package indexer turns a knowledge document into embedded chunks.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/embedding"
	"ai-chatbot-be/pkg/retry"

	"github.com/google/uuid"
)

var ErrIndexingFailed = errors.New("indexing failed")

// Job is the payload of an index request on the job topic.
type Job struct {
	DocumentId  uuid.UUID `json:"document_id"`
	WorkspaceId uuid.UUID `json:"workspace_id"`
	OwnerId     uuid.UUID `json:"owner_id"`
}

func (j Job) Scope() entity.KnowledgeScope {
	return entity.ScopeFromJob(j.WorkspaceId, j.OwnerId)
}

type Indexer struct {
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
	logger     logger.ILogger
	chunkSize  int
	overlap    int
	policy     retry.Policy
	locks      *documentLocks
}

func NewIndexer(uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider, logger logger.ILogger) *Indexer {
	return &Indexer{
		uowFactory: uowFactory,
		embedder:   embedder,
		logger:     logger,
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultOverlap,
		policy:     retry.DefaultPolicy,
		locks:      &documentLocks{held: make(map[uuid.UUID]*documentLock)},
	}
}

// WithRetryPolicy replaces the embedding retry policy.
func (ix *Indexer) WithRetryPolicy(p retry.Policy) *Indexer {
	ix.policy = p
	return ix
}

// Index regenerates every chunk of the document. It is all or nothing: the
// first failure deletes the chunks written so far and marks the document
// FAILED. Runs for the same document are serialized, so a queued job and an
// edit never interleave their chunk writes. Returns the number of chunks
// written.
func (ix *Indexer) Index(ctx context.Context, scope entity.KnowledgeScope, documentId uuid.UUID) (int, error) {
	unlock := ix.locks.lock(documentId)
	defer unlock()

	uow := ix.uowFactory.NewUnitOfWork(ctx)
	repo := uow.KnowledgeRepository()

	doc, err := repo.FindDocument(ctx, scope, specification.ByID{ID: documentId})
	if err != nil {
		return 0, errs.Database("indexer.find", err)
	}
	if doc == nil {
		return 0, errs.ErrAccessDenied
	}

	if err := repo.SetDocumentStatus(ctx, scope, doc.Id, entity.DocumentStatusPending, nil); err != nil {
		return 0, errs.Database("indexer.mark_pending", err)
	}
	if err := repo.DeleteChunks(ctx, scope, doc.Id); err != nil {
		return 0, errs.Database("indexer.clear", err)
	}

	pieces := SplitText(doc.Content, ix.chunkSize, ix.overlap)
	for i, piece := range pieces {
		vec, err := retry.Do(ctx, ix.policy, func() ([]float32, error) {
			return ix.embedder.Generate(ctx, piece)
		})
		if err != nil {
			return 0, ix.fail(ctx, repo, scope, doc, fmt.Sprintf("embedding chunk %d: %v", i, err))
		}

		// ownership comes from the document row, not from the job
		chunk := &entity.KnowledgeChunk{
			Id:          uuid.New(),
			DocumentId:  doc.Id,
			WorkspaceId: doc.WorkspaceId,
			OwnerId:     doc.OwnerId,
			ChunkIndex:  i,
			Content:     piece,
			Embedding:   vec,
		}
		if err := repo.CreateChunk(ctx, chunk); err != nil {
			return 0, ix.fail(ctx, repo, scope, doc, fmt.Sprintf("storing chunk %d: %v", i, err))
		}
	}

	if err := repo.SetDocumentStatus(ctx, scope, doc.Id, entity.DocumentStatusIndexed, nil); err != nil {
		return 0, ix.fail(ctx, repo, scope, doc, fmt.Sprintf("marking indexed: %v", err))
	}

	ix.logger.Info("INDEXER", "Document indexed", map[string]interface{}{
		"document_id": doc.Id.String(),
		"chunks":      len(pieces),
	})
	return len(pieces), nil
}

func (ix *Indexer) fail(ctx context.Context, repo contract.KnowledgeRepository, scope entity.KnowledgeScope, doc *entity.KnowledgeDocument, reason string) error {
	ctx = context.WithoutCancel(ctx)

	if err := repo.DeleteChunks(ctx, scope, doc.Id); err != nil {
		ix.logger.Error("INDEXER", "Failed to delete partial chunks", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err,
		})
	}
	if err := repo.SetDocumentStatus(ctx, scope, doc.Id, entity.DocumentStatusFailed, &reason); err != nil {
		ix.logger.Error("INDEXER", "Failed to mark document failed", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err,
		})
	}

	ix.logger.Warn("INDEXER", "Indexing aborted", map[string]interface{}{
		"document_id": doc.Id.String(),
		"reason":      reason,
	})
	return fmt.Errorf("%w: %s", ErrIndexingFailed, reason)
}

// documentLocks hands out one mutex per document id and forgets it once the
// last holder releases it.
type documentLocks struct {
	mu   sync.Mutex
	held map[uuid.UUID]*documentLock
}

type documentLock struct {
	mu   sync.Mutex
	refs int
}

func (l *documentLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	dl, ok := l.held[id]
	if !ok {
		dl = &documentLock{}
		l.held[id] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}
