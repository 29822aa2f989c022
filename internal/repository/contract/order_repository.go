package contract

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, paymentReference string, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// FindRecoveryCandidates returns completed orders created since the given
	// time whose account is not active.
	FindRecoveryCandidates(ctx context.Context, since time.Time) ([]*entity.Order, error)
	SaveRecoveryRun(ctx context.Context, run *entity.RecoveryRun) error
}
