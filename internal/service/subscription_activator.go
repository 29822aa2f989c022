package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/events"
	"ai-chatbot-be/pkg/retry"

	"github.com/google/uuid"
)

var (
	ErrActivationFailed   = errors.New("subscription activation failed")
	errActivationConflict = errors.New("account changed during activation")
)

type ActivationResult struct {
	AccountId        uuid.UUID
	Tier             entity.SubscriptionTier
	EndsAt           time.Time
	PaymentReference string
	// AlreadyActive means an earlier call applied this order.
	AlreadyActive bool
}

// ISubscriptionActivator turns a completed order into an active subscription.
// Live payment verification and the recovery reconciler both go through it.
type ISubscriptionActivator interface {
	Activate(ctx context.Context, orderId uuid.UUID) (*ActivationResult, error)
}

type subscriptionActivator struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher events.Publisher
	logger         logger.ILogger
	policy         retry.Policy
	clock          func() time.Time
}

func NewSubscriptionActivator(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher events.Publisher,
	logger logger.ILogger,
) ISubscriptionActivator {
	return &subscriptionActivator{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         logger,
		policy:         retry.DefaultPolicy,
		clock:          time.Now,
	}
}

// Activate is idempotent per order. The account update is a compare-and-set
// on the status and payment reference that were read; losing the race re-reads
// and tries again.
func (a *subscriptionActivator) Activate(ctx context.Context, orderId uuid.UUID) (*ActivationResult, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)

	order, err := uow.OrderRepository().FindOne(ctx, specification.ByID{ID: orderId})
	if err != nil {
		return nil, errs.Database("activation.find_order", err)
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s not found", ErrActivationFailed, orderId)
	}
	if order.Status != entity.OrderStatusCompleted || order.PaymentReference == nil || *order.PaymentReference == "" {
		return nil, fmt.Errorf("%w: order %s is %s", ErrActivationFailed, orderId, order.Status)
	}
	plan, ok := entitlement.PlanByID(order.PlanId)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrActivationFailed, order.PlanId)
	}
	reference := *order.PaymentReference

	result, err := retry.Do(ctx, a.policy, func() (*ActivationResult, error) {
		res, err := a.apply(ctx, uow.AccountRepository(), order.AccountId, plan, reference)
		if errors.Is(err, errActivationConflict) {
			return nil, err
		}
		if err != nil {
			return nil, retry.Permanent(err)
		}
		return res, nil
	})
	if errors.Is(err, errActivationConflict) {
		err = fmt.Errorf("%w: %w", ErrActivationFailed, err)
	}
	if err != nil {
		a.logger.Error("ACTIVATION", "Failed to activate subscription", map[string]interface{}{
			"order_id":   orderId.String(),
			"account_id": order.AccountId.String(),
			"error":      err,
		})
		return nil, err
	}

	if !result.AlreadyActive {
		a.logger.Info("ACTIVATION", "Subscription activated", map[string]interface{}{
			"order_id":   orderId.String(),
			"account_id": result.AccountId.String(),
			"tier":       string(result.Tier),
			"ends_at":    result.EndsAt,
		})
		if err := a.eventPublisher.Publish(ctx, events.New(events.TypeSubscriptionActivated, map[string]interface{}{
			"order_id":   orderId.String(),
			"account_id": result.AccountId.String(),
			"plan_id":    plan.Id,
			"tier":       string(result.Tier),
			"ends_at":    result.EndsAt,
		})); err != nil {
			a.logger.Warn("ACTIVATION", "Failed to publish activation event", map[string]interface{}{
				"order_id": orderId.String(),
				"error":    err,
			})
		}
	}
	return result, nil
}

func (a *subscriptionActivator) apply(
	ctx context.Context,
	repo contract.AccountRepository,
	accountId uuid.UUID,
	plan entitlement.Plan,
	reference string,
) (*ActivationResult, error) {
	account, err := repo.FindOne(ctx, specification.ByID{ID: accountId})
	if err != nil {
		return nil, errs.Database("activation.find_account", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %w", ErrActivationFailed, errs.ErrProfileNotFound)
	}

	if account.SubscriptionStatus == entity.SubscriptionStatusActive &&
		account.PaymentReference != nil && *account.PaymentReference == reference {
		return &ActivationResult{
			AccountId:        account.Id,
			Tier:             account.SubscriptionTier,
			EndsAt:           *account.SubscriptionEndsAt,
			PaymentReference: reference,
			AlreadyActive:    true,
		}, nil
	}

	now := a.clock()
	tier := plan.Tier
	base := now
	// a renewal of a running subscription extends it and never downgrades
	if account.SubscriptionStatus == entity.SubscriptionStatusActive &&
		account.SubscriptionEndsAt != nil && account.SubscriptionEndsAt.After(now) {
		base = *account.SubscriptionEndsAt
		if entitlement.TierRank(account.SubscriptionTier) > entitlement.TierRank(tier) {
			tier = account.SubscriptionTier
		}
	}
	endsAt := base.AddDate(0, plan.Months, 0)

	applied, err := repo.ApplySubscription(ctx, contract.SubscriptionChange{
		AccountId:        account.Id,
		ExpectStatus:     account.SubscriptionStatus,
		ExpectReference:  account.PaymentReference,
		Tier:             tier,
		EndsAt:           endsAt,
		PaymentReference: reference,
	})
	if err != nil {
		return nil, errs.Database("activation.apply", err)
	}
	if !applied {
		return nil, errActivationConflict
	}

	return &ActivationResult{
		AccountId:        account.Id,
		Tier:             tier,
		EndsAt:           endsAt,
		PaymentReference: reference,
	}, nil
}
