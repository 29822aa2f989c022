package service

import (
	"errors"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRecoveryService(store *memory.Store, rec *events.Recorder, mail *recordingMailer) *recoveryService {
	svc := NewRecoveryService(store, newActivator(store, rec), rec, mail, logger.NewNopLogger(), metrics.New(), RecoveryOptions{
		Window:          7 * 24 * time.Hour,
		ReportRecipient: "oncall@example.com",
	}).(*recoveryService)
	svc.clock = fixedClock
	return svc
}

func TestRecoverySecondRunRecoversNothing(t *testing.T) {
	store := memory.NewStore()
	rec := &events.Recorder{}
	svc := newRecoveryService(store, rec, &recordingMailer{})
	account, _ := seedAccount(t, store, nil)
	seedOrder(t, store, account.Id, "pro_monthly", entity.OrderStatusCompleted, ptr("pay-9"), fixedAt.Add(-2*time.Hour))

	first, err := svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Checked)
	assert.Equal(t, 1, first.Recovered)
	assert.Empty(t, first.Failures)

	stored := loadAccount(t, store, account.Id)
	assert.Equal(t, entity.SubscriptionStatusActive, stored.SubscriptionStatus)
	assert.Equal(t, entity.TierPro, stored.SubscriptionTier)
	assert.Equal(t, "pay-9", *stored.PaymentReference)

	second, err := svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Checked)
	assert.Equal(t, 0, second.Recovered)

	assert.Len(t, store.RecoveryRuns(), 2)
	assert.Equal(t, []string{
		events.TypeSubscriptionActivated,
		events.TypeRecoveryCompleted,
		events.TypeRecoveryCompleted,
	}, rec.Types())
}

func TestRecoveryFailureDoesNotAbortBatch(t *testing.T) {
	store := memory.NewStore()
	mail := &recordingMailer{}
	svc := newRecoveryService(store, &events.Recorder{}, mail)

	broken, _ := seedAccount(t, store, nil)
	brokenOrder := seedOrder(t, store, broken.Id, "gold", entity.OrderStatusCompleted, ptr("pay-a"), fixedAt.Add(-3*time.Hour))
	healthy, _ := seedAccount(t, store, nil)
	seedOrder(t, store, healthy.Id, "basic_monthly", entity.OrderStatusCompleted, ptr("pay-b"), fixedAt.Add(-time.Hour))

	res, err := svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Checked)
	assert.Equal(t, 1, res.Recovered)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, brokenOrder.Id, res.Failures[0].OrderId)
	assert.Equal(t, broken.Id, res.Failures[0].AccountId)
	assert.Contains(t, res.Failures[0].Reason, "unknown plan")

	require.Len(t, mail.runs, 1)
	assert.Len(t, mail.runs[0].Failures, 1)

	runs := store.RecoveryRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Recovered)
}

func TestRecoveryRetriesOnNextRun(t *testing.T) {
	store := memory.NewStore()
	svc := newRecoveryService(store, &events.Recorder{}, &recordingMailer{})
	account, _ := seedAccount(t, store, nil)
	seedOrder(t, store, account.Id, "ultra_monthly", entity.OrderStatusCompleted, ptr("pay-u"), fixedAt.Add(-time.Hour))

	store.FailOn("account.ApplySubscription", errors.New("deadlock detected"))
	res, err := svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Recovered)
	assert.Len(t, res.Failures, 1)

	store.FailOn("account.ApplySubscription", nil)
	res, err = svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Recovered)
	assert.Equal(t, entity.TierUltra, loadAccount(t, store, account.Id).SubscriptionTier)
}

func TestRecoveryIgnoresOrdersOutsideWindow(t *testing.T) {
	store := memory.NewStore()
	svc := newRecoveryService(store, &events.Recorder{}, &recordingMailer{})
	account, _ := seedAccount(t, store, nil)
	seedOrder(t, store, account.Id, "pro_monthly", entity.OrderStatusCompleted, ptr("pay-old"), fixedAt.Add(-8*24*time.Hour))
	seedOrder(t, store, account.Id, "pro_monthly", entity.OrderStatusPending, nil, fixedAt.Add(-time.Hour))

	res, err := svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Checked)
}

func TestRecoveryCandidateQueryFailure(t *testing.T) {
	store := memory.NewStore()
	svc := newRecoveryService(store, &events.Recorder{}, &recordingMailer{})
	store.FailOn("order.FindRecoveryCandidates", errBoom)

	_, err := svc.Run(ctxBg)
	assert.ErrorIs(t, err, errs.ErrDatabase)
	assert.Empty(t, store.RecoveryRuns())
}

func TestRecoveryActivatesTrialAccount(t *testing.T) {
	store := memory.NewStore()
	svc := newRecoveryService(store, &events.Recorder{}, &recordingMailer{})
	account, _ := seedAccount(t, store, func(a *entity.Account) {
		a.SubscriptionStatus = entity.SubscriptionStatusTrial
		a.HasUsedTrial = true
		a.TrialEndsAt = ptr(fixedAt.Add(3 * 24 * time.Hour))
	})
	seedOrder(t, store, account.Id, "pro_monthly", entity.OrderStatusCompleted, ptr("pay-t"), fixedAt.Add(-time.Hour))

	res, err := svc.Run(ctxBg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 1, res.Recovered)
	assert.Empty(t, res.Failures)

	stored := loadAccount(t, store, account.Id)
	assert.Equal(t, entity.SubscriptionStatusActive, stored.SubscriptionStatus)
	assert.Equal(t, entity.TierPro, stored.SubscriptionTier)
	assert.Equal(t, "pay-t", *stored.PaymentReference)
}

func TestRecoveryReportFailureIsLogged(t *testing.T) {
	store := memory.NewStore()
	core, logs := observer.New(zapcore.WarnLevel)
	mail := &recordingMailer{err: errors.New("smtp: connection refused")}
	svc := NewRecoveryService(store, newActivator(store, &events.Recorder{}), &events.Recorder{}, mail,
		logger.NewFromZap(zap.New(core)), metrics.New(), RecoveryOptions{
			Window:          7 * 24 * time.Hour,
			ReportRecipient: "oncall@example.com",
		}).(*recoveryService)
	svc.clock = fixedClock

	account, _ := seedAccount(t, store, nil)
	seedOrder(t, store, account.Id, "gold", entity.OrderStatusCompleted, ptr("pay-x"), fixedAt.Add(-time.Hour))

	res, err := svc.Run(ctxBg)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	require.Len(t, mail.runs, 1)

	reported := logs.FilterMessage("Failed to send recovery report").All()
	require.Len(t, reported, 1)
	assert.Equal(t, "RECOVERY", reported[0].ContextMap()["module"])
	details, ok := reported[0].ContextMap()["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, res.RunId.String(), details["run_id"])
	assert.EqualError(t, details["error"].(error), "smtp: connection refused")
}
