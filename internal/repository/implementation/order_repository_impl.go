package implementation

import (
	"context"
	"errors"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/mapper"
	"ai-chatbot-be/internal/model"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/scope"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.OrderMapper
}

func NewOrderRepository(db *gorm.DB) contract.OrderRepository {
	return &OrderRepositoryImpl{
		db:     db,
		mapper: mapper.NewOrderMapper(),
	}
}

func (r *OrderRepositoryImpl) Create(ctx context.Context, order *entity.Order) error {
	m := r.mapper.ToModel(order)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*order = *r.mapper.ToEntity(m)
	return nil
}

func (r *OrderRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error) {
	var m model.Order
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *OrderRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error) {
	var models []*model.Order
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *OrderRepositoryImpl) MarkCompleted(ctx context.Context, id uuid.UUID, paymentReference string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Where("status <> ?", string(entity.OrderStatusCompleted)).
		Updates(map[string]interface{}{
			"status":            string(entity.OrderStatusCompleted),
			"payment_reference": paymentReference,
			"completed_at":      at,
		}).Error
}

func (r *OrderRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", id, string(entity.OrderStatusPending)).
		Update("status", string(entity.OrderStatusFailed)).Error
}

func (r *OrderRepositoryImpl) FindRecoveryCandidates(ctx context.Context, since time.Time) ([]*entity.Order, error) {
	var models []*model.Order
	err := r.db.WithContext(ctx).
		Joins("JOIN accounts ON accounts.id = orders.account_id AND accounts.deleted_at IS NULL").
		Where("orders.status = ?", string(entity.OrderStatusCompleted)).
		Where("orders.payment_reference IS NOT NULL").
		Where("orders.created_at >= ?", since).
		Where("accounts.subscription_status <> ?", string(entity.SubscriptionStatusActive)).
		Scopes(scope.OrderByCreatedAsc("orders")).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *OrderRepositoryImpl) SaveRecoveryRun(ctx context.Context, run *entity.RecoveryRun) error {
	m, err := r.mapper.RecoveryRunToModel(run)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(m).Error
}
