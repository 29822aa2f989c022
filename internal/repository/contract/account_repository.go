package contract

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SubscriptionChange is a compare-and-set activation. It only applies when
// the row still has ExpectStatus and ExpectReference.
type SubscriptionChange struct {
	AccountId        uuid.UUID
	ExpectStatus     entity.SubscriptionStatus
	ExpectReference  *string
	Tier             entity.SubscriptionTier
	EndsAt           time.Time
	PaymentReference string
}

type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error)
	Exists(ctx context.Context, specs ...specification.Specification) (bool, error)

	// StartTrial flips an eligible account into trial. Returns false when the
	// account already used its trial or is not in status none.
	StartTrial(ctx context.Context, id uuid.UUID, endsAt time.Time) (bool, error)
	// ApplySubscription returns false when the guard did not match.
	ApplySubscription(ctx context.Context, change SubscriptionChange) (bool, error)
}

type WorkspaceRepository interface {
	Create(ctx context.Context, workspace *entity.Workspace) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Workspace, error)
}
