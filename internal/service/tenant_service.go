package service

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"

	"github.com/google/uuid"
)

type ITenantService interface {
	Resolve(ctx context.Context, identity *entity.Identity) (*entity.TenantContext, error)
}

type tenantService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	metrics    *metrics.Metrics
	clock      func() time.Time
}

func NewTenantService(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger, metrics *metrics.Metrics) ITenantService {
	return &tenantService{
		uowFactory: uowFactory,
		logger:     logger,
		metrics:    metrics,
		clock:      time.Now,
	}
}

// Resolve loads the caller's account and derives the workspace and effective
// tier from it. The request itself never names the workspace.
func (s *tenantService) Resolve(ctx context.Context, identity *entity.Identity) (*entity.TenantContext, error) {
	if identity == nil || identity.UserId == uuid.Nil {
		return nil, errs.ErrUnauthenticated
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: identity.UserId})
	if err != nil {
		s.logger.Error("TENANT", "Failed to load account", map[string]interface{}{
			"user_id": identity.UserId.String(),
			"error":   err,
		})
		return nil, errs.Database("tenant.resolve", err)
	}
	if account == nil {
		return nil, errs.ErrProfileNotFound
	}
	if account.WorkspaceId == nil {
		return nil, errs.ErrNoWorkspace
	}

	decision := entitlement.Decide(account, s.clock())
	s.metrics.AccessDecision(string(decision.Status))

	email := identity.Email
	if email == "" {
		email = account.Email
	}

	return &entity.TenantContext{
		UserId:        account.Id,
		UserEmail:     email,
		WorkspaceId:   *account.WorkspaceId,
		Role:          account.Role,
		Tier:          decision.EffectiveTier(),
		Status:        decision.Status,
		HasAccess:     decision.HasAccess,
		DaysRemaining: decision.DaysRemaining,
	}, nil
}
