// Package access decides whether a tenant may address a bot id.
package access

import (
	"context"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// DemoBotID is the public sandbox bot.
const DemoBotID = "demo"

// DeniedReason is the only reason ever returned for a rejected id, so
// callers cannot tell a foreign bot from a missing one.
const DeniedReason = "bot not found or access denied"

// DemoWorkspaceID is the fixed sandbox workspace. No account owns it.
var DemoWorkspaceID = uuid.MustParse("00000000-0000-4000-8000-00000000de00")

type Result struct {
	Valid       bool
	WorkspaceId uuid.UUID
	Tier        entity.SubscriptionTier
	IsDemo      bool
	Reason      string
}

type Validator struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewValidator(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) *Validator {
	return &Validator{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

// ValidateAccess never trusts resourceId on its own: the account row of the
// requester must carry that workspace id. Lookup errors fail closed.
func (v *Validator) ValidateAccess(ctx context.Context, tc *entity.TenantContext, resourceId string) Result {
	if resourceId == DemoBotID {
		return Result{Valid: true, WorkspaceId: DemoWorkspaceID, Tier: entity.TierBasic, IsDemo: true}
	}
	if tc == nil || tc.UserId == uuid.Nil {
		return denied()
	}

	workspaceId, err := uuid.Parse(resourceId)
	if err != nil {
		return denied()
	}

	uow := v.uowFactory.NewUnitOfWork(ctx)
	ok, err := uow.AccountRepository().Exists(ctx,
		specification.ByID{ID: tc.UserId},
		specification.InWorkspace{WorkspaceID: workspaceId},
	)
	if err != nil {
		v.logger.Error("ACCESS", "Workspace ownership lookup failed", map[string]interface{}{
			"user_id":     tc.UserId.String(),
			"resource_id": resourceId,
			"error":       err,
		})
		return denied()
	}
	if !ok {
		v.logger.Warn("ACCESS", "Bot access denied", map[string]interface{}{
			"user_id":     tc.UserId.String(),
			"resource_id": resourceId,
		})
		return denied()
	}

	return Result{Valid: true, WorkspaceId: workspaceId, Tier: tc.Tier}
}

func denied() Result {
	return Result{Valid: false, Reason: DeniedReason}
}
