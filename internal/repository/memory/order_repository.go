package memory

import (
	"context"
	"sort"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type orderRepository struct {
	store *Store
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("order.Create"); err != nil {
		return err
	}
	if _, ok := s.orders[order.Id]; ok {
		return uniqueViolation("orders_pkey")
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	s.orders[order.Id] = *order
	return nil
}

func (r *orderRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Order, error) {
	orders, err := r.FindAll(ctx, specs...)
	if err != nil || len(orders) == 0 {
		return nil, err
	}
	return orders[0], nil
}

func (r *orderRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("order.FindAll"); err != nil {
		return nil, err
	}
	var out []*entity.Order
	for _, o := range s.orders {
		ok, err := matchOrder(&o, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			found := o
			out = append(out, &found)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *orderRepository) MarkCompleted(ctx context.Context, id uuid.UUID, paymentReference string, at time.Time) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("order.MarkCompleted"); err != nil {
		return err
	}
	o, ok := s.orders[id]
	if !ok || o.Status == entity.OrderStatusCompleted {
		return nil
	}
	o.Status = entity.OrderStatusCompleted
	o.PaymentReference = &paymentReference
	o.CompletedAt = &at
	s.orders[id] = o
	return nil
}

func (r *orderRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.Status != entity.OrderStatusPending {
		return nil
	}
	o.Status = entity.OrderStatusFailed
	s.orders[id] = o
	return nil
}

func (r *orderRepository) FindRecoveryCandidates(ctx context.Context, since time.Time) ([]*entity.Order, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("order.FindRecoveryCandidates"); err != nil {
		return nil, err
	}
	var out []*entity.Order
	for _, o := range s.orders {
		if o.Status != entity.OrderStatusCompleted || o.PaymentReference == nil || o.CreatedAt.Before(since) {
			continue
		}
		a, ok := s.accounts[o.AccountId]
		if !ok || a.SubscriptionStatus == entity.SubscriptionStatusActive {
			continue
		}
		found := o
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *orderRepository) SaveRecoveryRun(ctx context.Context, run *entity.RecoveryRun) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("order.SaveRecoveryRun"); err != nil {
		return err
	}
	cp := *run
	cp.Failures = append([]entity.RecoveryFailure(nil), run.Failures...)
	s.runs = append(s.runs, cp)
	return nil
}
