package service

import (
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTenantService(store *memory.Store) *tenantService {
	svc := NewTenantService(store, logger.NewNopLogger(), metrics.New()).(*tenantService)
	svc.clock = fixedClock
	return svc
}

func TestResolveErrors(t *testing.T) {
	store := memory.NewStore()
	svc := newTenantService(store)

	_, err := svc.Resolve(ctxBg, nil)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = svc.Resolve(ctxBg, &entity.Identity{})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)

	_, err = svc.Resolve(ctxBg, &entity.Identity{UserId: uuid.New()})
	assert.ErrorIs(t, err, errs.ErrProfileNotFound)

	orphan, _ := seedAccount(t, store, func(a *entity.Account) { a.WorkspaceId = nil })
	_, err = svc.Resolve(ctxBg, &entity.Identity{UserId: orphan.Id})
	assert.ErrorIs(t, err, errs.ErrNoWorkspace)

	store.FailOn("account.FindOne", errBoom)
	_, err = svc.Resolve(ctxBg, &entity.Identity{UserId: orphan.Id})
	assert.ErrorIs(t, err, errs.ErrDatabase)
}

func TestResolveUsesEffectiveTier(t *testing.T) {
	store := memory.NewStore()
	svc := newTenantService(store)

	tests := []struct {
		name      string
		mutate    func(a *entity.Account)
		tier      entity.SubscriptionTier
		status    entity.AccessStatus
		hasAccess bool
	}{
		{"fresh account", nil, entity.TierBasic, entity.AccessStatusEligible, false},
		{"running trial is ultra", func(a *entity.Account) {
			a.SubscriptionStatus = entity.SubscriptionStatusTrial
			a.TrialEndsAt = ptr(fixedAt.Add(72 * time.Hour))
			a.HasUsedTrial = true
		}, entity.TierUltra, entity.AccessStatusTrial, true},
		{"active pro", activePro, entity.TierPro, entity.AccessStatusActive, true},
		{"lapsed pro falls back to basic", func(a *entity.Account) {
			activePro(a)
			a.SubscriptionEndsAt = ptr(fixedAt.Add(-time.Hour))
		}, entity.TierBasic, entity.AccessStatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, _ := seedAccount(t, store, tt.mutate)

			tc, err := svc.Resolve(ctxBg, &entity.Identity{UserId: account.Id})
			require.NoError(t, err)
			assert.Equal(t, *account.WorkspaceId, tc.WorkspaceId)
			assert.Equal(t, account.Email, tc.UserEmail)
			assert.Equal(t, tt.tier, tc.Tier)
			assert.Equal(t, tt.status, tc.Status)
			assert.Equal(t, tt.hasAccess, tc.HasAccess)
		})
	}
}
