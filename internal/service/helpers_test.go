package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/payment"
	"ai-chatbot-be/pkg/retry"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	ctxBg   = context.Background()
	noRetry = retry.Policy{MaxTries: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	fixedAt = time.Date(2026, time.May, 10, 12, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return fixedAt }

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Generate(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0, 0}, nil
}

type stubLLM struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply string
	err   error
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, history)
	if s.err != nil {
		return "", s.err
	}
	if s.reply == "" {
		return "Hello from the bot", nil
	}
	return s.reply, nil
}

func (s *stubLLM) last() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return nil
	}
	return s.calls[len(s.calls)-1]
}

type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

type stubGateway struct {
	secret      []byte
	checkoutErr error
	checkouts   []payment.CheckoutRequest
}

func (g *stubGateway) CreateCheckout(ctx context.Context, req payment.CheckoutRequest) (*payment.Checkout, error) {
	g.checkouts = append(g.checkouts, req)
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	return &payment.Checkout{OrderId: req.OrderId, Token: "snap-token", RedirectURL: "https://pay.example/snap-token"}, nil
}

func (g *stubGateway) VerifySignature(orderId, paymentId, signature string) bool {
	return payment.Verify(g.secret, orderId, paymentId, signature)
}

type recordingMailer struct {
	runs []*entity.RecoveryRun
	err  error
}

func (m *recordingMailer) SendRecoveryReport(toEmail string, run *entity.RecoveryRun) error {
	m.runs = append(m.runs, run)
	return m.err
}

var errBoom = errors.New("boom")

// seedAccount stores an onboarded account and returns it with its tenant context.
func seedAccount(t *testing.T, store *memory.Store, mutate func(a *entity.Account)) (*entity.Account, *entity.TenantContext) {
	t.Helper()
	account := entity.NewAccount(uuid.New(), uuid.NewString()[:8]+"@example.com", uuid.New())
	if mutate != nil {
		mutate(account)
	}
	require.NoError(t, store.NewUnitOfWork(ctxBg).AccountRepository().Create(ctxBg, account))

	tc := &entity.TenantContext{
		UserId:    account.Id,
		UserEmail: account.Email,
		Role:      account.Role,
		Tier:      entity.TierBasic,
	}
	if account.WorkspaceId != nil {
		tc.WorkspaceId = *account.WorkspaceId
	}
	return account, tc
}

func activePro(a *entity.Account) {
	end := fixedAt.Add(30 * 24 * time.Hour)
	ref := "pay-existing"
	a.SubscriptionStatus = entity.SubscriptionStatusActive
	a.SubscriptionTier = entity.TierPro
	a.SubscriptionEndsAt = &end
	a.PaymentReference = &ref
	a.HasUsedTrial = true
}

func ptr[T any](v T) *T { return &v }
