package service

import (
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/pkg/rag/access"
	"ai-chatbot-be/pkg/rag/indexer"
	"ai-chatbot-be/pkg/ratelimit"
	"ai-chatbot-be/pkg/usage"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	store    *memory.Store
	svc      *chatService
	enforcer *usage.Enforcer
	llm      *stubLLM
	embedder *stubEmbedder
}

func newChatFixture(limiter *ratelimit.Limiter, burst int) *chatFixture {
	store := memory.NewStore()
	nop := logger.NewNopLogger()
	enforcer := usage.NewEnforcer(store, nop).WithClock(fixedClock)
	embedder := &stubEmbedder{}
	model := &stubLLM{}

	svc := NewChatService(store, access.NewValidator(store, nop), limiter, enforcer, embedder, model,
		memory.NewSessionRepository(time.Hour, 20), nop, metrics.New(), ChatOptions{
			BurstPerMinute: burst,
			SearchLimit:    5,
			Threshold:      0.3,
		}).(*chatService)
	svc.policy = noRetry
	return &chatFixture{store: store, svc: svc, enforcer: enforcer, llm: model, embedder: embedder}
}

func paidTenant(t *testing.T, store *memory.Store, tier entity.SubscriptionTier) *entity.TenantContext {
	t.Helper()
	_, tc := seedAccount(t, store, func(a *entity.Account) {
		activePro(a)
		a.SubscriptionTier = tier
	})
	tc.Tier = tier
	tc.HasAccess = true
	return tc
}

func ask(text string) *dto.ChatRequest {
	return &dto.ChatRequest{Messages: []entity.ChatMessage{{Role: entity.ChatRoleUser, Content: text}}}
}

func TestChatAnswersAndCountsUsage(t *testing.T) {
	f := newChatFixture(nil, 30)
	tc := paidTenant(t, f.store, entity.TierPro)

	res, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("hi there"))
	require.NoError(t, err)
	assert.Equal(t, "Hello from the bot", res.Reply)
	assert.False(t, res.IsDemo)
	assert.Empty(t, res.SessionId)
	require.NotNil(t, res.Usage)
	assert.Equal(t, int64(1), res.Usage.Current)
	assert.Equal(t, int64(-1), res.Usage.Limit)

	sent := f.llm.last()
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].Role)
	assert.Equal(t, "user", sent[1].Role)
	assert.Equal(t, "hi there", sent[1].Content)

	status, err := f.enforcer.CheckLimit(ctxBg, tc.WorkspaceId, tc.Tier)
	require.NoError(t, err)
	assert.Equal(t, int64(1), status.Current)
}

func TestChatGroundsOnOwnKnowledge(t *testing.T) {
	f := newChatFixture(nil, 30)
	tc := paidTenant(t, f.store, entity.TierPro)

	doc := &entity.KnowledgeDocument{
		Id:          uuid.New(),
		WorkspaceId: tc.WorkspaceId,
		OwnerId:     tc.UserId,
		Filename:    "shipping.md",
		Content:     "Orders ship within two business days",
		Status:      entity.DocumentStatusPending,
		WordCount:   6,
	}
	require.NoError(t, f.store.NewUnitOfWork(ctxBg).KnowledgeRepository().CreateDocument(ctxBg, doc))
	_, err := indexer.NewIndexer(f.store, f.embedder, logger.NewNopLogger()).WithRetryPolicy(noRetry).
		Index(ctxBg, entity.ScopeFromTenant(tc), doc.Id)
	require.NoError(t, err)

	res, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("when do you ship?"))
	require.NoError(t, err)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "shipping.md", res.Sources[0].Filename)
	assert.Contains(t, f.llm.last()[0].Content, "Orders ship within two business days")

	// a failing embedder degrades to an ungrounded answer
	f.embedder.err = errBoom
	res, err = f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("when do you ship?"))
	require.NoError(t, err)
	assert.Empty(t, res.Sources)
	assert.NotContains(t, f.llm.last()[0].Content, "Orders ship")
}

func TestChatRejectsForeignBot(t *testing.T) {
	f := newChatFixture(nil, 30)
	tc := paidTenant(t, f.store, entity.TierPro)
	other := paidTenant(t, f.store, entity.TierPro)

	for _, botId := range []string{other.WorkspaceId.String(), uuid.NewString(), "not-a-uuid"} {
		_, err := f.svc.Chat(ctxBg, tc, botId, ask("hi"))
		assert.ErrorIs(t, err, errs.ErrAccessDenied, botId)
	}
	assert.Nil(t, f.llm.last())

	status, err := f.enforcer.CheckLimit(ctxBg, other.WorkspaceId, other.Tier)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Current)
}

func TestChatRequiresAccess(t *testing.T) {
	f := newChatFixture(nil, 30)
	_, tc := seedAccount(t, f.store, nil)

	_, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("hi"))
	assert.ErrorIs(t, err, errs.ErrUpgradeRequired)
	assert.Nil(t, f.llm.last())

	_, err = f.svc.Chat(ctxBg, nil, "demo", ask("hi"))
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestChatMonthlyQuota(t *testing.T) {
	f := newChatFixture(nil, 30)
	tc := paidTenant(t, f.store, entity.TierBasic)

	for i := 0; i < 1000; i++ {
		_, err := f.enforcer.IncrementUsage(ctxBg, tc.WorkspaceId, tc.Tier)
		require.NoError(t, err)
	}

	_, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("one more"))
	var qe *errs.QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, "messages", qe.Resource)
	assert.Equal(t, int64(1000), qe.Limit)
	assert.Equal(t, int64(1000), qe.Current)
	assert.Nil(t, f.llm.last())
}

func TestChatInvalidMessagesAreNotCounted(t *testing.T) {
	f := newChatFixture(nil, 30)
	tc := paidTenant(t, f.store, entity.TierPro)

	for _, req := range []*dto.ChatRequest{
		{},
		ask("   "),
	} {
		_, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), req)
		assert.ErrorIs(t, err, errs.ErrValidation)
	}

	status, err := f.enforcer.CheckLimit(ctxBg, tc.WorkspaceId, tc.Tier)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Current)
}

func TestChatModelFailure(t *testing.T) {
	f := newChatFixture(nil, 30)
	tc := paidTenant(t, f.store, entity.TierPro)
	f.llm.err = errBoom

	_, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("hi"))
	assert.ErrorIs(t, err, errBoom)
}

func TestDemoBotKeepsTranscriptPerUser(t *testing.T) {
	f := newChatFixture(nil, 30)
	_, tc := seedAccount(t, f.store, nil)

	first, err := f.svc.Chat(ctxBg, tc, access.DemoBotID, ask("what can you do?"))
	require.NoError(t, err)
	assert.True(t, first.IsDemo)
	assert.Nil(t, first.Usage)
	require.NotEmpty(t, first.SessionId)

	_, err = f.svc.Chat(ctxBg, tc, access.DemoBotID, &dto.ChatRequest{
		SessionId: first.SessionId,
		Messages:  []entity.ChatMessage{{Role: entity.ChatRoleUser, Content: "tell me more"}},
	})
	require.NoError(t, err)

	sent := f.llm.last()
	require.Len(t, sent, 4)
	assert.Equal(t, "what can you do?", sent[1].Content)
	assert.Equal(t, "assistant", sent[2].Role)
	assert.Equal(t, "tell me more", sent[3].Content)

	// another user cannot continue the session
	_, stranger := seedAccount(t, f.store, nil)
	res, err := f.svc.Chat(ctxBg, stranger, access.DemoBotID, &dto.ChatRequest{
		SessionId: first.SessionId,
		Messages:  []entity.ChatMessage{{Role: entity.ChatRoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionId, res.SessionId)
	assert.Len(t, f.llm.last(), 2)

	status, err := f.enforcer.CheckLimit(ctxBg, access.DemoWorkspaceID, entity.TierBasic)
	require.NoError(t, err)
	assert.Equal(t, int64(0), status.Current)
}

func TestDemoChatValidatesRequestBeforeTranscript(t *testing.T) {
	f := newChatFixture(nil, 30)
	_, tc := seedAccount(t, f.store, nil)

	first, err := f.svc.Chat(ctxBg, tc, access.DemoBotID, ask("hello"))
	require.NoError(t, err)
	calls := len(f.llm.calls)

	_, err = f.svc.Chat(ctxBg, tc, access.DemoBotID, &dto.ChatRequest{SessionId: first.SessionId})
	assert.ErrorIs(t, err, errs.ErrValidation)

	tooMany := make([]entity.ChatMessage, 51)
	for i := range tooMany {
		tooMany[i] = entity.ChatMessage{Role: entity.ChatRoleUser, Content: "again"}
	}
	_, err = f.svc.Chat(ctxBg, tc, access.DemoBotID, &dto.ChatRequest{SessionId: first.SessionId, Messages: tooMany})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, err = f.svc.Chat(ctxBg, tc, access.DemoBotID, &dto.ChatRequest{Messages: tooMany})
	assert.ErrorIs(t, err, errs.ErrValidation)

	assert.Len(t, f.llm.calls, calls)
}

func TestDemoChatConcurrentTurnsOnOneSession(t *testing.T) {
	f := newChatFixture(nil, 100)
	_, tc := seedAccount(t, f.store, nil)

	first, err := f.svc.Chat(ctxBg, tc, access.DemoBotID, ask("hello"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.Chat(ctxBg, tc, access.DemoBotID, &dto.ChatRequest{
				SessionId: first.SessionId,
				Messages:  []entity.ChatMessage{{Role: entity.ChatRoleUser, Content: "and then?"}},
			})
			if assert.NoError(t, err) {
				assert.Equal(t, first.SessionId, res.SessionId)
			}
		}()
	}
	wg.Wait()

	session, ok := f.svc.sessions.Get(first.SessionId)
	require.True(t, ok)
	require.Len(t, session.Messages, 4)
	assert.Equal(t, "hello", session.Messages[0].Content)
	assert.Equal(t, entity.ChatRoleAssistant, session.Messages[3].Role)
}

func TestChatBurstLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := newChatFixture(ratelimit.New(client, time.Minute), 1)
	tc := paidTenant(t, f.store, entity.TierPro)

	_, err := f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("first"))
	require.NoError(t, err)

	_, err = f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("second"))
	assert.ErrorIs(t, err, errs.ErrRateLimited)

	mr.FastForward(time.Minute)
	_, err = f.svc.Chat(ctxBg, tc, tc.WorkspaceId.String(), ask("third"))
	assert.NoError(t, err)
}
