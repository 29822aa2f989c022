package mapper

import (
	"encoding/json"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/model"

	"gorm.io/datatypes"
)

type OrderMapper struct{}

func NewOrderMapper() *OrderMapper {
	return &OrderMapper{}
}

func (m *OrderMapper) ToEntity(o *model.Order) *entity.Order {
	if o == nil {
		return nil
	}
	return &entity.Order{
		Id:               o.Id,
		AccountId:        o.AccountId,
		PlanId:           o.PlanId,
		PaymentReference: o.PaymentReference,
		Status:           entity.OrderStatus(o.Status),
		CreatedAt:        o.CreatedAt,
		CompletedAt:      o.CompletedAt,
	}
}

func (m *OrderMapper) ToModel(o *entity.Order) *model.Order {
	if o == nil {
		return nil
	}
	return &model.Order{
		Id:               o.Id,
		AccountId:        o.AccountId,
		PlanId:           o.PlanId,
		PaymentReference: o.PaymentReference,
		Status:           string(o.Status),
		CreatedAt:        o.CreatedAt,
		CompletedAt:      o.CompletedAt,
	}
}

func (m *OrderMapper) ToEntities(orders []*model.Order) []*entity.Order {
	entities := make([]*entity.Order, len(orders))
	for i, o := range orders {
		entities[i] = m.ToEntity(o)
	}
	return entities
}

func (m *OrderMapper) RecoveryRunToModel(r *entity.RecoveryRun) (*model.RecoveryRun, error) {
	failures := r.Failures
	if failures == nil {
		failures = []entity.RecoveryFailure{}
	}
	raw, err := json.Marshal(failures)
	if err != nil {
		return nil, err
	}
	return &model.RecoveryRun{
		Id:         r.Id,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Checked:    r.Checked,
		Recovered:  r.Recovered,
		Failed:     len(r.Failures),
		Failures:   datatypes.JSON(raw),
	}, nil
}
