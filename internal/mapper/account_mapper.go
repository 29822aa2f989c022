package mapper

import (
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"
)

type AccountMapper struct{}

func NewAccountMapper() *AccountMapper {
	return &AccountMapper{}
}

func (m *AccountMapper) ToEntity(a *model.Account) *entity.Account {
	if a == nil {
		return nil
	}
	return &entity.Account{
		Id:                 a.Id,
		Email:              a.Email,
		WorkspaceId:        a.WorkspaceId,
		Role:               entity.AccountRole(a.Role),
		SubscriptionStatus: entity.SubscriptionStatus(a.SubscriptionStatus),
		SubscriptionTier:   entity.SubscriptionTier(a.SubscriptionTier),
		TrialEndsAt:        a.TrialEndsAt,
		SubscriptionEndsAt: a.SubscriptionEndsAt,
		HasUsedTrial:       a.HasUsedTrial,
		PaymentReference:   a.PaymentReference,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (m *AccountMapper) ToModel(a *entity.Account) *model.Account {
	if a == nil {
		return nil
	}
	return &model.Account{
		Id:                 a.Id,
		Email:              a.Email,
		WorkspaceId:        a.WorkspaceId,
		Role:               string(a.Role),
		SubscriptionStatus: string(a.SubscriptionStatus),
		SubscriptionTier:   string(a.SubscriptionTier),
		TrialEndsAt:        a.TrialEndsAt,
		SubscriptionEndsAt: a.SubscriptionEndsAt,
		HasUsedTrial:       a.HasUsedTrial,
		PaymentReference:   a.PaymentReference,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func (m *AccountMapper) WorkspaceToEntity(w *model.Workspace) *entity.Workspace {
	if w == nil {
		return nil
	}
	return &entity.Workspace{
		Id:        w.Id,
		Name:      w.Name,
		Slug:      w.Slug,
		OwnerId:   w.OwnerId,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func (m *AccountMapper) WorkspaceToModel(w *entity.Workspace) *model.Workspace {
	if w == nil {
		return nil
	}
	return &model.Workspace{
		Id:        w.Id,
		Name:      w.Name,
		Slug:      w.Slug,
		OwnerId:   w.OwnerId,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
