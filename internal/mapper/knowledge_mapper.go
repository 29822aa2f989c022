package mapper

import (
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) DocumentToEntity(d *model.KnowledgeDocument) *entity.KnowledgeDocument {
	if d == nil {
		return nil
	}
	return &entity.KnowledgeDocument{
		Id:            d.Id,
		WorkspaceId:   d.WorkspaceId,
		OwnerId:       d.OwnerId,
		Filename:      d.Filename,
		Content:       d.Content,
		Status:        entity.DocumentStatus(d.Status),
		WordCount:     d.WordCount,
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (m *KnowledgeMapper) DocumentToModel(d *entity.KnowledgeDocument) *model.KnowledgeDocument {
	if d == nil {
		return nil
	}
	return &model.KnowledgeDocument{
		Id:            d.Id,
		WorkspaceId:   d.WorkspaceId,
		OwnerId:       d.OwnerId,
		Filename:      d.Filename,
		Content:       d.Content,
		Status:        string(d.Status),
		WordCount:     d.WordCount,
		FailureReason: d.FailureReason,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (m *KnowledgeMapper) DocumentsToEntities(docs []*model.KnowledgeDocument) []*entity.KnowledgeDocument {
	entities := make([]*entity.KnowledgeDocument, len(docs))
	for i, d := range docs {
		entities[i] = m.DocumentToEntity(d)
	}
	return entities
}

func (m *KnowledgeMapper) ChunkToEntity(c *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if c == nil {
		return nil
	}
	return &entity.KnowledgeChunk{
		Id:          c.Id,
		DocumentId:  c.DocumentId,
		WorkspaceId: c.WorkspaceId,
		OwnerId:     c.OwnerId,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		Embedding:   c.Embedding.Slice(),
		CreatedAt:   c.CreatedAt,
	}
}

func (m *KnowledgeMapper) ChunkToModel(c *entity.KnowledgeChunk) *model.KnowledgeChunk {
	if c == nil {
		return nil
	}
	return &model.KnowledgeChunk{
		Id:          c.Id,
		DocumentId:  c.DocumentId,
		WorkspaceId: c.WorkspaceId,
		OwnerId:     c.OwnerId,
		ChunkIndex:  c.ChunkIndex,
		Content:     c.Content,
		Embedding:   pgvector.NewVector(c.Embedding),
		CreatedAt:   c.CreatedAt,
	}
}
