package service

import (
	"context"
	"fmt"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/mailer"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
)

type IRecoveryService interface {
	Run(ctx context.Context) (*dto.RecoveryRunResponse, error)
}

type RecoveryOptions struct {
	Window          time.Duration
	ReportRecipient string
}

type recoveryService struct {
	uowFactory     unitofwork.RepositoryFactory
	activator      ISubscriptionActivator
	eventPublisher events.Publisher
	emailService   mailer.IEmailService
	logger         logger.ILogger
	metrics        *metrics.Metrics
	opts           RecoveryOptions
	clock          func() time.Time
}

// NewRecoveryService accepts a nil emailService; reports are then only logged.
func NewRecoveryService(
	uowFactory unitofwork.RepositoryFactory,
	activator ISubscriptionActivator,
	eventPublisher events.Publisher,
	emailService mailer.IEmailService,
	logger logger.ILogger,
	metrics *metrics.Metrics,
	opts RecoveryOptions,
) IRecoveryService {
	if opts.Window <= 0 {
		opts.Window = 7 * 24 * time.Hour
	}
	return &recoveryService{
		uowFactory:     uowFactory,
		activator:      activator,
		eventPublisher: eventPublisher,
		emailService:   emailService,
		logger:         logger,
		metrics:        metrics,
		opts:           opts,
		clock:          time.Now,
	}
}

// Run repairs accounts whose payment completed but whose activation never
// landed. One failing candidate never stops the batch. Running it twice in a
// row recovers nothing the second time.
func (s *recoveryService) Run(ctx context.Context) (*dto.RecoveryRunResponse, error) {
	run := &entity.RecoveryRun{
		Id:        uuid.New(),
		StartedAt: s.clock(),
		Failures:  []entity.RecoveryFailure{},
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	candidates, err := uow.OrderRepository().FindRecoveryCandidates(ctx, run.StartedAt.Add(-s.opts.Window))
	if err != nil {
		s.logger.Error("RECOVERY", "Failed to list candidates", map[string]interface{}{"error": err})
		return nil, errs.Database("recovery.candidates", err)
	}

	for _, order := range candidates {
		if ctx.Err() != nil {
			break
		}
		run.Checked++

		if reason := s.recoverOrder(ctx, order); reason != "" {
			run.Failures = append(run.Failures, entity.RecoveryFailure{
				OrderId:   order.Id,
				AccountId: order.AccountId,
				Reason:    reason,
			})
			s.metrics.RecoveryOutcome(false)
			continue
		}
		run.Recovered++
		s.metrics.RecoveryOutcome(true)
	}
	run.FinishedAt = s.clock()

	s.finish(ctx, run)

	return &dto.RecoveryRunResponse{
		RunId:      run.Id,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Checked:    run.Checked,
		Recovered:  run.Recovered,
		Failures:   run.Failures,
	}, nil
}

// recoverOrder returns an empty reason on success.
func (s *recoveryService) recoverOrder(ctx context.Context, order *entity.Order) string {
	if _, err := s.activator.Activate(ctx, order.Id); err != nil {
		return err.Error()
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: order.AccountId})
	if err != nil {
		return fmt.Sprintf("re-reading account: %v", err)
	}
	if account == nil {
		return "account disappeared after activation"
	}
	plan, _ := entitlement.PlanByID(order.PlanId)

	switch {
	case account.SubscriptionStatus != entity.SubscriptionStatusActive:
		return fmt.Sprintf("account is %s after activation", account.SubscriptionStatus)
	case entitlement.TierRank(account.SubscriptionTier) < entitlement.TierRank(plan.Tier):
		return fmt.Sprintf("account tier %s is below plan tier %s", account.SubscriptionTier, plan.Tier)
	case account.PaymentReference == nil || order.PaymentReference == nil || *account.PaymentReference != *order.PaymentReference:
		return "account payment reference does not match the order"
	}

	s.logger.Info("RECOVERY", "Account recovered", map[string]interface{}{
		"order_id":   order.Id.String(),
		"account_id": order.AccountId.String(),
	})
	return ""
}

// finish persists, publishes and reports the run. None of these can fail the run.
func (s *recoveryService) finish(ctx context.Context, run *entity.RecoveryRun) {
	ctx = context.WithoutCancel(ctx)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.OrderRepository().SaveRecoveryRun(ctx, run); err != nil {
		s.logger.Error("RECOVERY", "Failed to persist recovery run", map[string]interface{}{
			"run_id": run.Id.String(),
			"error":  err,
		})
	}

	if err := s.eventPublisher.Publish(ctx, events.New(events.TypeRecoveryCompleted, map[string]interface{}{
		"run_id":    run.Id.String(),
		"checked":   run.Checked,
		"recovered": run.Recovered,
		"failed":    len(run.Failures),
	})); err != nil {
		s.logger.Warn("RECOVERY", "Failed to publish recovery event", map[string]interface{}{
			"run_id": run.Id.String(),
			"error":  err,
		})
	}

	s.logger.Info("RECOVERY", "Recovery run finished", map[string]interface{}{
		"run_id":    run.Id.String(),
		"checked":   run.Checked,
		"recovered": run.Recovered,
		"failed":    len(run.Failures),
	})

	if len(run.Failures) > 0 && s.emailService != nil && s.opts.ReportRecipient != "" {
		if err := s.emailService.SendRecoveryReport(s.opts.ReportRecipient, run); err != nil {
			s.logger.Warn("RECOVERY", "Failed to send recovery report", map[string]interface{}{
				"run_id": run.Id.String(),
				"error":  err,
			})
		}
	}
}
