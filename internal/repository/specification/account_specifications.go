package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InWorkspace filters tenant rows by workspace_id.
type InWorkspace struct {
	WorkspaceID uuid.UUID
}

func (s InWorkspace) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("workspace_id = ?", s.WorkspaceID)
}
