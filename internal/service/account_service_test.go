package service

import (
	"testing"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccountService(store *memory.Store, rec *events.Recorder) *accountService {
	svc := NewAccountService(store, rec, logger.NewNopLogger(), 14).(*accountService)
	svc.clock = fixedClock
	return svc
}

func TestOnboardIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	svc := newAccountService(store, &events.Recorder{})
	identity := &entity.Identity{UserId: uuid.New(), Email: "jane@example.com"}

	first, err := svc.Onboard(ctxBg, identity, &dto.OnboardRequest{WorkspaceName: "Jane's Shop"})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, "eligible", first.Access.Status)
	assert.True(t, first.Access.CanStartTrial)
	assert.False(t, first.Access.HasAccess)

	second, err := svc.Onboard(ctxBg, identity, &dto.OnboardRequest{})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.WorkspaceId, second.WorkspaceId)

	ws, err := store.NewUnitOfWork(ctxBg).WorkspaceRepository().FindOne(ctxBg, specification.ByID{ID: first.WorkspaceId})
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, "Jane's Shop", ws.Name)
	assert.Contains(t, ws.Slug, "jane-s-shop-")
	assert.Equal(t, identity.UserId, ws.OwnerId)
}

func TestOnboardEmailTakenRollsBack(t *testing.T) {
	store := memory.NewStore()
	svc := newAccountService(store, &events.Recorder{})
	existing, _ := seedAccount(t, store, nil)

	identity := &entity.Identity{UserId: uuid.New(), Email: existing.Email}
	_, err := svc.Onboard(ctxBg, identity, &dto.OnboardRequest{WorkspaceName: "Dup"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	// seedAccount creates no workspace, so any workspace left behind leaked from the failed transaction
	ws, err := store.NewUnitOfWork(ctxBg).WorkspaceRepository().FindOne(ctxBg)
	require.NoError(t, err)
	assert.Nil(t, ws)

	account, err := store.NewUnitOfWork(ctxBg).AccountRepository().FindOne(ctxBg, specification.ByID{ID: identity.UserId})
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestActivateTrialOnlyOnce(t *testing.T) {
	store := memory.NewStore()
	rec := &events.Recorder{}
	svc := newAccountService(store, rec)
	account, _ := seedAccount(t, store, nil)
	identity := &entity.Identity{UserId: account.Id}

	access, err := svc.ActivateTrial(ctxBg, identity)
	require.NoError(t, err)
	assert.Equal(t, "trial", access.Status)
	assert.Equal(t, "ultra", access.Tier)
	assert.Equal(t, 14, access.DaysRemaining)
	assert.True(t, access.IsTrialActive)
	assert.Equal(t, []string{events.TypeTrialStarted}, rec.Types())

	_, err = svc.ActivateTrial(ctxBg, identity)
	assert.ErrorIs(t, err, errs.ErrValidation)
	assert.Len(t, rec.Types(), 1)

	stored, err := store.NewUnitOfWork(ctxBg).AccountRepository().FindOne(ctxBg, specification.ByID{ID: account.Id})
	require.NoError(t, err)
	assert.True(t, stored.HasUsedTrial)
}

func TestActivateTrialRefusedForPaidAccount(t *testing.T) {
	store := memory.NewStore()
	svc := newAccountService(store, &events.Recorder{})
	account, _ := seedAccount(t, store, activePro)

	_, err := svc.ActivateTrial(ctxBg, &entity.Identity{UserId: account.Id})
	assert.ErrorIs(t, err, ErrTrialUnavailable)
}

func TestAccessRequiresProfile(t *testing.T) {
	svc := newAccountService(memory.NewStore(), &events.Recorder{})

	_, err := svc.Access(ctxBg, &entity.Identity{UserId: uuid.New()})
	assert.ErrorIs(t, err, errs.ErrProfileNotFound)

	_, err = svc.Access(ctxBg, nil)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}
