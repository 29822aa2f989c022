package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateKnowledgeRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Content  string `json:"content" validate:"required,max=1000000"`
}

type UpdateKnowledgeRequest struct {
	Filename string `json:"filename" validate:"omitempty,max=255"`
	Content  string `json:"content" validate:"required,max=1000000"`
}

type KnowledgeDocumentResponse struct {
	Id            uuid.UUID  `json:"id"`
	Filename      string     `json:"filename"`
	Status        string     `json:"status"`
	WordCount     int        `json:"word_count"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type KnowledgeSearchResult struct {
	DocumentId uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
}
