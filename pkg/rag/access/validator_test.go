package access

import (
	"context"
	"errors"
	"testing"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, store *memory.Store, tier entity.SubscriptionTier) *entity.TenantContext {
	t.Helper()
	ws := uuid.New()
	a := entity.NewAccount(uuid.New(), uuid.NewString()+"@example.com", ws)
	uow := store.NewUnitOfWork(context.Background())
	require.NoError(t, uow.AccountRepository().Create(context.Background(), a))
	return &entity.TenantContext{UserId: a.Id, UserEmail: a.Email, WorkspaceId: ws, Tier: tier}
}

func TestValidateAccessOwnWorkspace(t *testing.T) {
	store := memory.NewStore()
	tc := seedAccount(t, store, entity.TierPro)

	res := NewValidator(store, logger.NewNopLogger()).ValidateAccess(context.Background(), tc, tc.WorkspaceId.String())

	assert.True(t, res.Valid)
	assert.Equal(t, tc.WorkspaceId, res.WorkspaceId)
	assert.Equal(t, entity.TierPro, res.Tier)
	assert.False(t, res.IsDemo)
}

func TestValidateAccessDeniedReasonsAreIdentical(t *testing.T) {
	store := memory.NewStore()
	alice := seedAccount(t, store, entity.TierBasic)
	bob := seedAccount(t, store, entity.TierBasic)
	v := NewValidator(store, logger.NewNopLogger())
	ctx := context.Background()

	foreign := v.ValidateAccess(ctx, alice, bob.WorkspaceId.String())
	missing := v.ValidateAccess(ctx, alice, uuid.NewString())
	garbage := v.ValidateAccess(ctx, alice, "'; DROP TABLE accounts; --")

	for _, res := range []Result{foreign, missing, garbage} {
		assert.False(t, res.Valid)
		assert.Equal(t, DeniedReason, res.Reason)
		assert.Equal(t, uuid.Nil, res.WorkspaceId)
	}
	assert.Equal(t, foreign, missing)
	assert.Equal(t, missing, garbage)
}

func TestValidateAccessDemo(t *testing.T) {
	v := NewValidator(memory.NewStore(), logger.NewNopLogger())

	res := v.ValidateAccess(context.Background(), nil, DemoBotID)

	assert.True(t, res.Valid)
	assert.True(t, res.IsDemo)
	assert.Equal(t, DemoWorkspaceID, res.WorkspaceId)
	assert.Equal(t, entity.TierBasic, res.Tier)
}

func TestValidateAccessFailsClosedOnLookupError(t *testing.T) {
	store := memory.NewStore()
	tc := seedAccount(t, store, entity.TierUltra)
	store.FailOn("account.Exists", errors.New("timeout"))

	res := NewValidator(store, logger.NewNopLogger()).ValidateAccess(context.Background(), tc, tc.WorkspaceId.String())

	assert.False(t, res.Valid)
	assert.Equal(t, DeniedReason, res.Reason)
}

func TestValidateAccessWithoutTenant(t *testing.T) {
	res := NewValidator(memory.NewStore(), logger.NewNopLogger()).ValidateAccess(context.Background(), nil, uuid.NewString())
	assert.False(t, res.Valid)
}
