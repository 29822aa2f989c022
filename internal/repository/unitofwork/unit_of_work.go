package unitofwork

import (
	"context"

	"ai-chatbot-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	AccountRepository() contract.AccountRepository
	WorkspaceRepository() contract.WorkspaceRepository
	KnowledgeRepository() contract.KnowledgeRepository
	UsageRepository() contract.UsageRepository
	OrderRepository() contract.OrderRepository
}
