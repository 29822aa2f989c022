package database

import (
	"fmt"

	"ai-chatbot-be/internal/model"

	"gorm.io/gorm"
)

// Migrate creates the pgvector extension, the tables and the indexes the
// repositories rely on. It is safe to run repeatedly.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Workspace{},
		&model.Account{},
		&model.KnowledgeDocument{},
		&model.KnowledgeChunk{},
		&model.UsageCounter{},
		&model.Order{},
		&model.RecoveryRun{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_embedding ON knowledge_chunks USING hnsw (embedding vector_cosine_ops)",
		"CREATE INDEX IF NOT EXISTS idx_orders_recovery ON orders (status, created_at)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
