package implementation

import (
	"context"
	"errors"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"
	scopes "ai-chatbot-be/internal/repository/scope"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewKnowledgeRepository(db *gorm.DB) contract.KnowledgeRepository {
	return &KnowledgeRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *KnowledgeRepositoryImpl) CreateDocument(ctx context.Context, doc *entity.KnowledgeDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *KnowledgeRepositoryImpl) FindDocument(ctx context.Context, scope entity.KnowledgeScope, specs ...specification.Specification) (*entity.KnowledgeDocument, error) {
	var m model.KnowledgeDocument
	query := applySpecifications(r.db.WithContext(ctx), append(specs, specification.InScope{Scope: scope})...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *KnowledgeRepositoryImpl) FindDocuments(ctx context.Context, scope entity.KnowledgeScope, specs ...specification.Specification) ([]*entity.KnowledgeDocument, error) {
	var models []*model.KnowledgeDocument
	query := applySpecifications(r.db.WithContext(ctx).Scopes(scopes.OrderByCreatedDesc), append(specs, specification.InScope{Scope: scope})...)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.DocumentsToEntities(models), nil
}

func (r *KnowledgeRepositoryImpl) CountDocuments(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeDocument{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *KnowledgeRepositoryImpl) UpdateDocumentContent(ctx context.Context, scope entity.KnowledgeScope, doc *entity.KnowledgeDocument) (bool, error) {
	result := specification.InScope{Scope: scope}.
		Apply(r.db.WithContext(ctx).Model(&model.KnowledgeDocument{})).
		Where("id = ?", doc.Id).
		Updates(map[string]interface{}{
			"filename":       doc.Filename,
			"content":        doc.Content,
			"word_count":     doc.WordCount,
			"status":         string(entity.DocumentStatusPending),
			"failure_reason": nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *KnowledgeRepositoryImpl) SetDocumentStatus(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID, status entity.DocumentStatus, reason *string) error {
	return specification.InScope{Scope: scope}.
		Apply(r.db.WithContext(ctx).Model(&model.KnowledgeDocument{})).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         string(status),
			"failure_reason": reason,
		}).Error
}

func (r *KnowledgeRepositoryImpl) DeleteDocument(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID) (bool, error) {
	chunks := specification.InScope{Scope: scope}.Apply(r.db.WithContext(ctx)).
		Where("document_id = ?", id).
		Delete(&model.KnowledgeChunk{})
	if chunks.Error != nil {
		return false, chunks.Error
	}

	result := specification.InScope{Scope: scope}.Apply(r.db.WithContext(ctx)).
		Where("id = ?", id).
		Delete(&model.KnowledgeDocument{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *KnowledgeRepositoryImpl) CreateChunk(ctx context.Context, chunk *entity.KnowledgeChunk) error {
	m := r.mapper.ChunkToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ChunkToEntity(m)
	return nil
}

func (r *KnowledgeRepositoryImpl) DeleteChunks(ctx context.Context, scope entity.KnowledgeScope, documentId uuid.UUID) error {
	return specification.InScope{Scope: scope}.Apply(r.db.WithContext(ctx)).
		Where("document_id = ?", documentId).
		Delete(&model.KnowledgeChunk{}).Error
}

func (r *KnowledgeRepositoryImpl) CountChunks(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.KnowledgeChunk{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *KnowledgeRepositoryImpl) SearchSimilar(ctx context.Context, scope entity.KnowledgeScope, embedding []float32, limit int, threshold float64) ([]*entity.ScoredChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	// cosine distance is 1 - cosine similarity
	type result struct {
		model.KnowledgeChunk
		Filename   string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	query := r.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("knowledge_chunks.*, knowledge_documents.filename AS filename, 1 - (knowledge_chunks.embedding <=> ?) AS similarity", queryVector).
		Joins("JOIN knowledge_documents ON knowledge_documents.id = knowledge_chunks.document_id").
		Where("knowledge_documents.status = ?", string(entity.DocumentStatusIndexed)).
		Where("1 - (knowledge_chunks.embedding <=> ?) >= ?", queryVector, threshold)
	query = specification.InScope{Scope: scope, Table: "knowledge_chunks"}.Apply(query)
	query = specification.InScope{Scope: scope, Table: "knowledge_documents"}.Apply(query)

	err := query.Order("similarity DESC").Limit(limit).Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredChunk{
			Chunk:      r.mapper.ChunkToEntity(&res.KnowledgeChunk),
			Filename:   res.Filename,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
