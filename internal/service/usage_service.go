package service

import (
	"context"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/usage"
)

type IUsageService interface {
	Get(ctx context.Context, tc *entity.TenantContext) (*dto.UsageResponse, error)
}

type usageService struct {
	uowFactory unitofwork.RepositoryFactory
	enforcer   *usage.Enforcer
}

func NewUsageService(uowFactory unitofwork.RepositoryFactory, enforcer *usage.Enforcer) IUsageService {
	return &usageService{
		uowFactory: uowFactory,
		enforcer:   enforcer,
	}
}

func (s *usageService) Get(ctx context.Context, tc *entity.TenantContext) (*dto.UsageResponse, error) {
	snap, err := s.enforcer.Snapshot(ctx, tc.WorkspaceId, tc.Tier)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.KnowledgeRepository().CountDocuments(ctx, specification.InWorkspace{WorkspaceID: tc.WorkspaceId})
	if err != nil {
		return nil, errs.Database("usage.documents", err)
	}

	return &dto.UsageResponse{
		Month: snap.Month,
		Tier:  string(tc.Tier),
		Messages: dto.UsageLimit{
			Used:  snap.MonthlyConversations,
			Limit: snap.MessageLimit,
		},
		Documents: dto.UsageLimit{
			Used:  documents,
			Limit: entitlement.MaxDocuments(tc.Tier),
		},
		MonthlyUploads:   snap.MonthlyUploads,
		TotalStoredWords: snap.TotalStoredWords,
	}, nil
}
