// Package usage enforces the monthly conversation cap and keeps the storage
// counters of a workspace. All counter writes are single atomic statements.
package usage

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"

	"github.com/google/uuid"
)

type LimitStatus struct {
	Allowed bool  `json:"allowed"`
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}

// Snapshot is the usage endpoint view of the current month.
type Snapshot struct {
	Month                string `json:"month"`
	MonthlyConversations int64  `json:"monthly_conversations"`
	MonthlyUploads       int64  `json:"monthly_uploads"`
	TotalStoredWords     int64  `json:"total_stored_words"`
	MessageLimit         int64  `json:"message_limit"`
}

type Enforcer struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
	clock      func() time.Time
}

func NewEnforcer(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) *Enforcer {
	return &Enforcer{
		uowFactory: uowFactory,
		logger:     logger,
		clock:      time.Now,
	}
}

// WithClock replaces the time source. Tests only.
func (e *Enforcer) WithClock(clock func() time.Time) *Enforcer {
	e.clock = clock
	return e
}

func (e *Enforcer) month() string {
	return entity.MonthKey(e.clock())
}

// CheckLimit reads the current month. A missing row counts as zero.
func (e *Enforcer) CheckLimit(ctx context.Context, workspaceId uuid.UUID, tier entity.SubscriptionTier) (LimitStatus, error) {
	limit := entitlement.MonthlyMessageLimit(tier)

	uow := e.uowFactory.NewUnitOfWork(ctx)
	counter, err := uow.UsageRepository().Find(ctx, workspaceId, e.month())
	if err != nil {
		return LimitStatus{}, errs.Database("usage.check", err)
	}

	var current int64
	if counter != nil {
		current = counter.MonthlyConversations
	}
	return LimitStatus{
		Allowed: entitlement.Within(current, limit),
		Current: current,
		Limit:   limit,
	}, nil
}

// Enforce is CheckLimit turned into an error for the request pipeline.
func (e *Enforcer) Enforce(ctx context.Context, workspaceId uuid.UUID, tier entity.SubscriptionTier) (LimitStatus, error) {
	status, err := e.CheckLimit(ctx, workspaceId, tier)
	if err != nil {
		return status, err
	}
	if !status.Allowed {
		return status, &errs.QuotaExceededError{
			Resource: "messages",
			Tier:     string(tier),
			Limit:    status.Limit,
			Current:  status.Current,
		}
	}
	return status, nil
}

// IncrementUsage counts one conversation unless the tier cap is already
// reached, in which case it returns a QuotaExceededError and leaves the
// counter alone. The check and the increment are one statement, so
// concurrent callers never push the counter past the cap. Once issued it
// commits even if the caller's context is cancelled.
func (e *Enforcer) IncrementUsage(ctx context.Context, workspaceId uuid.UUID, tier entity.SubscriptionTier) (int64, error) {
	ctx = context.WithoutCancel(ctx)
	limit := entitlement.MonthlyMessageLimit(tier)
	quota := func(current int64) error {
		return &errs.QuotaExceededError{
			Resource: "messages",
			Tier:     string(tier),
			Limit:    limit,
			Current:  current,
		}
	}
	if limit == 0 {
		return 0, quota(0)
	}

	uow := e.uowFactory.NewUnitOfWork(ctx)
	current, ok, err := uow.UsageRepository().IncrementConversations(ctx, workspaceId, e.month(), limit)
	if err != nil {
		e.logger.Error("USAGE", "Failed to increment conversations", map[string]interface{}{
			"workspace_id": workspaceId.String(),
			"error":        err,
		})
		return 0, errs.Database("usage.increment", err)
	}
	if !ok {
		return current, quota(current)
	}
	return current, nil
}

// AdjustStorage applies signed word and upload deltas, clamped at zero.
func (e *Enforcer) AdjustStorage(ctx context.Context, workspaceId uuid.UUID, wordsDelta, uploadsDelta int64) error {
	if wordsDelta == 0 && uploadsDelta == 0 {
		return nil
	}
	uow := e.uowFactory.NewUnitOfWork(ctx)
	if err := uow.UsageRepository().AdjustStorage(ctx, workspaceId, e.month(), wordsDelta, uploadsDelta); err != nil {
		return errs.Database("usage.adjust_storage", err)
	}
	return nil
}

func (e *Enforcer) Snapshot(ctx context.Context, workspaceId uuid.UUID, tier entity.SubscriptionTier) (*Snapshot, error) {
	month := e.month()
	uow := e.uowFactory.NewUnitOfWork(ctx)
	counter, err := uow.UsageRepository().Find(ctx, workspaceId, month)
	if err != nil {
		return nil, errs.Database("usage.snapshot", err)
	}
	snap := &Snapshot{Month: month, MessageLimit: entitlement.MonthlyMessageLimit(tier)}
	if counter != nil {
		snap.MonthlyConversations = counter.MonthlyConversations
		snap.MonthlyUploads = counter.MonthlyUploads
		snap.TotalStoredWords = counter.TotalStoredWords
	}
	return snap, nil
}
