package contract

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

// KnowledgeRepository methods that mutate or search take the scope explicitly
// so the owner filter cannot be forgotten.
type KnowledgeRepository interface {
	CreateDocument(ctx context.Context, doc *entity.KnowledgeDocument) error
	FindDocument(ctx context.Context, scope entity.KnowledgeScope, specs ...specification.Specification) (*entity.KnowledgeDocument, error)
	FindDocuments(ctx context.Context, scope entity.KnowledgeScope, specs ...specification.Specification) ([]*entity.KnowledgeDocument, error)
	CountDocuments(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateDocumentContent(ctx context.Context, scope entity.KnowledgeScope, doc *entity.KnowledgeDocument) (bool, error)
	SetDocumentStatus(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID, status entity.DocumentStatus, reason *string) error
	DeleteDocument(ctx context.Context, scope entity.KnowledgeScope, id uuid.UUID) (bool, error)

	CreateChunk(ctx context.Context, chunk *entity.KnowledgeChunk) error
	DeleteChunks(ctx context.Context, scope entity.KnowledgeScope, documentId uuid.UUID) error
	CountChunks(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar only considers chunks of INDEXED documents inside scope.
	SearchSimilar(ctx context.Context, scope entity.KnowledgeScope, embedding []float32, limit int, threshold float64) ([]*entity.ScoredChunk, error)
}
