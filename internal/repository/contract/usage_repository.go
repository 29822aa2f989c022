package contract

import (
	"context"

	"ai-chatbot-be/internal/entity"

	"github.com/google/uuid"
)

// UsageRepository mutates counters only through single-statement upserts.
type UsageRepository interface {
	Find(ctx context.Context, workspaceId uuid.UUID, month string) (*entity.UsageCounter, error)
	// IncrementConversations adds one conversation only while the counter is
	// below limit; a negative limit means unlimited. Reports the counter after
	// the call and whether the increment happened.
	IncrementConversations(ctx context.Context, workspaceId uuid.UUID, month string, limit int64) (int64, bool, error)
	// AdjustStorage applies signed deltas; results are clamped at zero.
	AdjustStorage(ctx context.Context, workspaceId uuid.UUID, month string, wordsDelta, uploadsDelta int64) error
}
