package specification

import (
	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InScope restricts a knowledge query to one workspace and one owner. Both
// columns are always filtered.
type InScope struct {
	Scope entity.KnowledgeScope
	Table string // optional qualifier for joined queries
}

func (s InScope) Apply(db *gorm.DB) *gorm.DB {
	prefix := ""
	if s.Table != "" {
		prefix = s.Table + "."
	}
	return db.Where(prefix+"workspace_id = ? AND "+prefix+"owner_id = ?", s.Scope.WorkspaceId(), s.Scope.OwnerId())
}

type ByDocumentID struct {
	DocumentID uuid.UUID
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}
