package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending DocumentStatus = "PENDING"
	DocumentStatusIndexed DocumentStatus = "INDEXED"
	DocumentStatusFailed  DocumentStatus = "FAILED"
)

// KnowledgeDocument is uploaded content used to ground chat answers.
type KnowledgeDocument struct {
	Id            uuid.UUID
	WorkspaceId   uuid.UUID
	OwnerId       uuid.UUID
	Filename      string
	Content       string
	Status        DocumentStatus
	WordCount     int
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// KnowledgeChunk copies WorkspaceId/OwnerId from its document when it is created.
// Chunks are regenerated, never patched, when the document changes.
type KnowledgeChunk struct {
	Id          uuid.UUID
	DocumentId  uuid.UUID
	WorkspaceId uuid.UUID
	OwnerId     uuid.UUID
	ChunkIndex  int
	Content     string
	Embedding   []float32
	CreatedAt   time.Time
}

type ScoredChunk struct {
	Chunk      *KnowledgeChunk
	Filename   string
	Similarity float64
}
