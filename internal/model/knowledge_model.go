package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type KnowledgeDocument struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	WorkspaceId   uuid.UUID `gorm:"type:uuid;not null;index:idx_documents_scope"`
	OwnerId       uuid.UUID `gorm:"type:uuid;not null;index:idx_documents_scope"`
	Filename      string    `gorm:"type:varchar(255);not null"`
	Content       string    `gorm:"type:text;not null"`
	Status        string    `gorm:"type:varchar(20);not null;default:'PENDING'"`
	WordCount     int       `gorm:"not null;default:0"`
	FailureReason *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`

	Chunks []KnowledgeChunk `gorm:"foreignKey:DocumentId;constraint:OnDelete:CASCADE"`
}

func (KnowledgeDocument) TableName() string {
	return "knowledge_documents"
}

type KnowledgeChunk struct {
	Id          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DocumentId  uuid.UUID       `gorm:"type:uuid;not null;index"`
	WorkspaceId uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunks_scope"`
	OwnerId     uuid.UUID       `gorm:"type:uuid;not null;index:idx_chunks_scope"`
	ChunkIndex  int             `gorm:"default:0"`
	Content     string          `gorm:"type:text"`
	Embedding   pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
