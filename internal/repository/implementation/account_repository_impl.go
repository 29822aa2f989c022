package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AccountMapper
}

func NewAccountRepository(db *gorm.DB) contract.AccountRepository {
	return &AccountRepositoryImpl{
		db:     db,
		mapper: mapper.NewAccountMapper(),
	}
}

func (r *AccountRepositoryImpl) Create(ctx context.Context, account *entity.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	m := r.mapper.ToModel(account)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*account = *r.mapper.ToEntity(m)
	return nil
}

func (r *AccountRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	var m model.Account
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *AccountRepositoryImpl) Exists(ctx context.Context, specs ...specification.Specification) (bool, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Account{}), specs...)
	if err := query.Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AccountRepositoryImpl) StartTrial(ctx context.Context, id uuid.UUID, endsAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", id).
		Where("has_used_trial = ?", false).
		Where("subscription_status = ?", string(entity.SubscriptionStatusNone)).
		Where("payment_reference IS NULL").
		Updates(map[string]interface{}{
			"subscription_status": string(entity.SubscriptionStatusTrial),
			"trial_ends_at":       endsAt,
			"has_used_trial":      true,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *AccountRepositoryImpl) ApplySubscription(ctx context.Context, change contract.SubscriptionChange) (bool, error) {
	if !change.Tier.Valid() {
		return false, entity.ErrInvalidTier
	}
	result := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ?", change.AccountId).
		Where("subscription_status = ?", string(change.ExpectStatus)).
		Where("payment_reference IS NOT DISTINCT FROM ?", change.ExpectReference).
		Updates(map[string]interface{}{
			"subscription_status":  string(entity.SubscriptionStatusActive),
			"subscription_tier":    string(change.Tier),
			"subscription_ends_at": change.EndsAt,
			"payment_reference":    change.PaymentReference,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

type WorkspaceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AccountMapper
}

func NewWorkspaceRepository(db *gorm.DB) contract.WorkspaceRepository {
	return &WorkspaceRepositoryImpl{
		db:     db,
		mapper: mapper.NewAccountMapper(),
	}
}

func (r *WorkspaceRepositoryImpl) Create(ctx context.Context, workspace *entity.Workspace) error {
	m := r.mapper.WorkspaceToModel(workspace)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*workspace = *r.mapper.WorkspaceToEntity(m)
	return nil
}

func (r *WorkspaceRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Workspace, error) {
	var m model.Workspace
	query := applySpecifications(r.db.WithContext(ctx), specs...)

	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.WorkspaceToEntity(&m), nil
}
