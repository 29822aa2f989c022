package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/embedding"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/rag/indexer"
	"ai-chatbot-be/pkg/retry"
	"ai-chatbot-be/pkg/usage"

	"github.com/google/uuid"
)

const maxSearchLimit = 20

type IKnowledgeService interface {
	List(ctx context.Context, scope entity.KnowledgeScope) ([]*dto.KnowledgeDocumentResponse, error)
	Create(ctx context.Context, scope entity.KnowledgeScope, tier entity.SubscriptionTier, req *dto.CreateKnowledgeRequest) (*dto.KnowledgeDocumentResponse, error)
	Update(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID, req *dto.UpdateKnowledgeRequest) (*dto.KnowledgeDocumentResponse, error)
	Delete(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID) error
	Search(ctx context.Context, scope entity.KnowledgeScope, query string, limit int) ([]*dto.KnowledgeSearchResult, error)
}

type SearchOptions struct {
	DefaultLimit int
	Threshold    float64
}

type knowledgeService struct {
	uowFactory        unitofwork.RepositoryFactory
	enforcer          *usage.Enforcer
	indexer           *indexer.Indexer
	embeddingProvider embedding.EmbeddingProvider
	publisherService  IPublisherService
	logger            logger.ILogger
	metrics           *metrics.Metrics
	search            SearchOptions
	policy            retry.Policy
}

func NewKnowledgeService(
	uowFactory unitofwork.RepositoryFactory,
	enforcer *usage.Enforcer,
	indexer *indexer.Indexer,
	embeddingProvider embedding.EmbeddingProvider,
	publisherService IPublisherService,
	logger logger.ILogger,
	metrics *metrics.Metrics,
	search SearchOptions,
) IKnowledgeService {
	if search.DefaultLimit <= 0 {
		search.DefaultLimit = 5
	}
	return &knowledgeService{
		uowFactory:        uowFactory,
		enforcer:          enforcer,
		indexer:           indexer,
		embeddingProvider: embeddingProvider,
		publisherService:  publisherService,
		logger:            logger,
		metrics:           metrics,
		search:            search,
		policy:            retry.DefaultPolicy,
	}
}

func (s *knowledgeService) List(ctx context.Context, scope entity.KnowledgeScope) ([]*dto.KnowledgeDocumentResponse, error) {
	if scope.IsZero() {
		return nil, errs.ErrAccessDenied
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.KnowledgeRepository().FindDocuments(ctx, scope)
	if err != nil {
		return nil, errs.Database("knowledge.list", err)
	}

	res := make([]*dto.KnowledgeDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		res = append(res, toDocumentResponse(doc))
	}
	return res, nil
}

// Create stores the document as PENDING and hands indexing to the job
// consumer. The document limit counts every document of the workspace.
func (s *knowledgeService) Create(ctx context.Context, scope entity.KnowledgeScope, tier entity.SubscriptionTier, req *dto.CreateKnowledgeRequest) (*dto.KnowledgeDocumentResponse, error) {
	if scope.IsZero() {
		return nil, errs.ErrAccessDenied
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errs.Validation("content", "must not be empty")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.KnowledgeRepository().CountDocuments(ctx, specification.InWorkspace{WorkspaceID: scope.WorkspaceId()})
	if err != nil {
		return nil, errs.Database("knowledge.count", err)
	}
	limit := entitlement.MaxDocuments(tier)
	if !entitlement.Within(count, limit) {
		s.metrics.Rejected("quota")
		return nil, &errs.QuotaExceededError{
			Resource: "documents",
			Tier:     string(tier),
			Limit:    limit,
			Current:  count,
		}
	}

	doc := &entity.KnowledgeDocument{
		Id:          uuid.New(),
		WorkspaceId: scope.WorkspaceId(),
		OwnerId:     scope.OwnerId(),
		Filename:    strings.TrimSpace(req.Filename),
		Content:     content,
		Status:      entity.DocumentStatusPending,
		WordCount:   countWords(content),
	}
	if err := uow.KnowledgeRepository().CreateDocument(ctx, doc); err != nil {
		return nil, errs.Database("knowledge.create", err)
	}

	if err := s.enforcer.AdjustStorage(ctx, doc.WorkspaceId, int64(doc.WordCount), 1); err != nil {
		s.logger.Warn("KNOWLEDGE", "Failed to adjust storage counters", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err,
		})
	}

	s.enqueueIndex(ctx, doc)
	return toDocumentResponse(doc), nil
}

// Update re-checks ownership on the row it read and again in the UPDATE
// statement, then re-indexes synchronously.
func (s *knowledgeService) Update(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID, req *dto.UpdateKnowledgeRequest) (*dto.KnowledgeDocumentResponse, error) {
	doc, err := s.findOwned(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, errs.Validation("content", "must not be empty")
	}

	oldWords := doc.WordCount
	doc.Content = content
	doc.WordCount = countWords(content)
	if name := strings.TrimSpace(req.Filename); name != "" {
		doc.Filename = name
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	updated, err := uow.KnowledgeRepository().UpdateDocumentContent(ctx, scope, doc)
	if err != nil {
		return nil, errs.Database("knowledge.update", err)
	}
	if !updated {
		return nil, errs.ErrAccessDenied
	}

	if err := s.enforcer.AdjustStorage(ctx, doc.WorkspaceId, int64(doc.WordCount-oldWords), 0); err != nil {
		s.logger.Warn("KNOWLEDGE", "Failed to adjust storage counters", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err,
		})
	}

	if _, err := s.indexer.Index(ctx, scope, doc.Id); err != nil {
		s.metrics.IndexJob(false)
		if !errors.Is(err, indexer.ErrIndexingFailed) {
			return nil, err
		}
	} else {
		s.metrics.IndexJob(true)
	}

	fresh, err := uow.KnowledgeRepository().FindDocument(ctx, scope, specification.ByID{ID: doc.Id})
	if err != nil {
		return nil, errs.Database("knowledge.reload", err)
	}
	if fresh == nil {
		return nil, errs.ErrAccessDenied
	}
	return toDocumentResponse(fresh), nil
}

// Delete removes chunks and document in one transaction. Both statements
// inside DeleteDocument are filtered by the scope.
func (s *knowledgeService) Delete(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID) error {
	doc, err := s.findOwned(ctx, scope, id)
	if err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return errs.Database("knowledge.delete.begin", err)
	}
	defer uow.Rollback()

	deleted, err := uow.KnowledgeRepository().DeleteDocument(ctx, scope, doc.Id)
	if err != nil {
		return errs.Database("knowledge.delete.document", err)
	}
	if !deleted {
		return errs.ErrAccessDenied
	}
	if err := uow.Commit(); err != nil {
		return errs.Database("knowledge.delete.commit", err)
	}

	if err := s.enforcer.AdjustStorage(ctx, doc.WorkspaceId, -int64(doc.WordCount), -1); err != nil {
		s.logger.Warn("KNOWLEDGE", "Failed to adjust storage counters", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err,
		})
	}
	return nil
}

func (s *knowledgeService) Search(ctx context.Context, scope entity.KnowledgeScope, query string, limit int) ([]*dto.KnowledgeSearchResult, error) {
	if scope.IsZero() {
		return nil, errs.ErrAccessDenied
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.Validation("q", "must not be empty")
	}
	if limit <= 0 {
		limit = s.search.DefaultLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	chunks, err := searchScope(ctx, s.uowFactory, s.embeddingProvider, s.policy, scope, query, limit, s.search.Threshold)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.KnowledgeSearchResult, 0, len(chunks))
	for _, c := range chunks {
		res = append(res, &dto.KnowledgeSearchResult{
			DocumentId: c.Chunk.DocumentId,
			Filename:   c.Filename,
			ChunkIndex: c.Chunk.ChunkIndex,
			Content:    c.Chunk.Content,
			Similarity: c.Similarity,
		})
	}
	return res, nil
}

func (s *knowledgeService) findOwned(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID) (*entity.KnowledgeDocument, error) {
	if scope.IsZero() {
		return nil, errs.ErrAccessDenied
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.KnowledgeRepository().FindDocument(ctx, scope, specification.ByID{ID: id})
	if err != nil {
		return nil, errs.Database("knowledge.find", err)
	}
	// not found and not yours look the same
	if doc == nil || !scope.Owns(doc) {
		return nil, errs.ErrAccessDenied
	}
	return doc, nil
}

func (s *knowledgeService) enqueueIndex(ctx context.Context, doc *entity.KnowledgeDocument) {
	payload, err := json.Marshal(indexer.Job{
		DocumentId:  doc.Id,
		WorkspaceId: doc.WorkspaceId,
		OwnerId:     doc.OwnerId,
	})
	if err == nil {
		err = s.publisherService.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Error("KNOWLEDGE", "Failed to enqueue index job", map[string]interface{}{
			"document_id": doc.Id.String(),
			"error":       err,
		})
	}
}

// searchScope embeds the query with retry and runs the scoped vector search.
func searchScope(
	ctx context.Context,
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	policy retry.Policy,
	scope entity.KnowledgeScope,
	query string,
	limit int,
	threshold float64,
) ([]*entity.ScoredChunk, error) {
	vec, err := retry.Do(ctx, policy, func() ([]float32, error) {
		return embedder.Generate(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	uow := uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.KnowledgeRepository().SearchSimilar(ctx, scope, vec, limit, threshold)
	if err != nil {
		return nil, errs.Database("knowledge.search", err)
	}
	return chunks, nil
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func toDocumentResponse(doc *entity.KnowledgeDocument) *dto.KnowledgeDocumentResponse {
	return &dto.KnowledgeDocumentResponse{
		Id:            doc.Id,
		Filename:      doc.Filename,
		Status:        string(doc.Status),
		WordCount:     doc.WordCount,
		FailureReason: doc.FailureReason,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
