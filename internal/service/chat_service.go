package service

import (
	"context"
	"errors"
	"strings"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/pkg/metrics"
	"ai-chatbot-be/internal/repository/memory"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/embedding"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/llm"
	"ai-chatbot-be/pkg/rag/access"
	"ai-chatbot-be/pkg/rag/prompt"
	"ai-chatbot-be/pkg/ratelimit"
	"ai-chatbot-be/pkg/retry"
	"ai-chatbot-be/pkg/sanitize"
	"ai-chatbot-be/pkg/usage"

	"github.com/google/uuid"
)

type IChatService interface {
	Chat(ctx context.Context, tc *entity.TenantContext, botId string, req *dto.ChatRequest) (*dto.ChatResponse, error)
}

type ChatOptions struct {
	BurstPerMinute int
	SearchLimit    int
	Threshold      float64
}

type chatService struct {
	uowFactory        unitofwork.RepositoryFactory
	validator         *access.Validator
	limiter           *ratelimit.Limiter
	enforcer          *usage.Enforcer
	embeddingProvider embedding.EmbeddingProvider
	llmProvider       llm.LLMProvider
	sessions          *memory.SessionRepository
	logger            logger.ILogger
	metrics           *metrics.Metrics
	opts              ChatOptions
	policy            retry.Policy
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	validator *access.Validator,
	limiter *ratelimit.Limiter,
	enforcer *usage.Enforcer,
	embeddingProvider embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	sessions *memory.SessionRepository,
	logger logger.ILogger,
	metrics *metrics.Metrics,
	opts ChatOptions,
) IChatService {
	if opts.BurstPerMinute <= 0 {
		opts.BurstPerMinute = 30
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 5
	}
	return &chatService{
		uowFactory:        uowFactory,
		validator:         validator,
		limiter:           limiter,
		enforcer:          enforcer,
		embeddingProvider: embeddingProvider,
		llmProvider:       llmProvider,
		sessions:          sessions,
		logger:            logger,
		metrics:           metrics,
		opts:              opts,
		policy:            retry.DefaultPolicy,
	}
}

// Chat runs the request pipeline in a fixed order: resource check, access,
// burst limit, monthly quota, sanitization, usage increment, retrieval and
// finally the model. Each stage short-circuits.
func (s *chatService) Chat(ctx context.Context, tc *entity.TenantContext, botId string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if tc == nil {
		return nil, errs.ErrUnauthenticated
	}

	target := s.validator.ValidateAccess(ctx, tc, botId)
	if !target.Valid {
		s.metrics.Rejected("access_denied")
		return nil, errs.ErrAccessDenied
	}
	if !target.IsDemo && !tc.HasAccess {
		s.metrics.Rejected("upgrade_required")
		return nil, errs.ErrUpgradeRequired
	}

	burstKey := "chat:" + target.WorkspaceId.String()
	if target.IsDemo {
		burstKey = "chat:demo:" + tc.UserId.String()
	}
	if s.limiter != nil {
		if d := s.limiter.Allow(ctx, burstKey, s.opts.BurstPerMinute); !d.Allowed {
			s.metrics.Rejected("rate_limited")
			return nil, errs.ErrRateLimited
		}
	}

	if !target.IsDemo {
		if _, err := s.enforcer.Enforce(ctx, target.WorkspaceId, tc.Tier); err != nil {
			if errors.Is(err, errs.ErrQuotaExceeded) {
				s.metrics.Rejected("quota")
			}
			return nil, err
		}
	}

	checked := sanitize.ValidateMessages(req.Messages)
	if !checked.Valid {
		s.metrics.Rejected("validation")
		return nil, errs.Validation("messages", checked.Error)
	}

	// the stored demo transcript is prepended only after the request itself passed validation
	history := checked.Messages
	var session *memory.DemoSession
	if target.IsDemo {
		session = s.demoSession(tc, req.SessionId)
		history = make([]entity.ChatMessage, 0, len(session.Messages)+len(checked.Messages)+1)
		history = append(append(history, session.Messages...), checked.Messages...)
		if len(history) > sanitize.MaxMessages {
			history = history[len(history)-sanitize.MaxMessages:]
		}
	}

	res := &dto.ChatResponse{IsDemo: target.IsDemo, Sources: []dto.ChatSource{}}

	if !target.IsDemo {
		current, err := s.enforcer.IncrementUsage(ctx, target.WorkspaceId, tc.Tier)
		if err != nil {
			if errors.Is(err, errs.ErrQuotaExceeded) {
				s.metrics.Rejected("quota")
			}
			return nil, err
		}
		res.Usage = &dto.ChatUsage{Current: current, Limit: entitlement.MonthlyMessageLimit(tc.Tier)}
	}
	s.metrics.Conversation()

	var sources []*entity.ScoredChunk
	if !target.IsDemo {
		sources = s.retrieve(ctx, tc, lastUserMessage(history))
		for _, src := range sources {
			res.Sources = append(res.Sources, dto.ChatSource{Filename: src.Filename, Similarity: src.Similarity})
		}
	}

	messages := prompt.NewGroundedBuilder(sources, target.IsDemo).Messages(history)
	reply, err := retry.Do(ctx, s.policy, func() (string, error) {
		return s.llmProvider.Chat(ctx, messages)
	})
	if err != nil {
		s.logger.Error("CHAT", "Model call failed", map[string]interface{}{
			"workspace_id": target.WorkspaceId.String(),
			"error":        err,
		})
		return nil, err
	}
	res.Reply = strings.TrimSpace(reply)

	if session != nil {
		session.Messages = append(history[:len(history):len(history)], entity.ChatMessage{Role: entity.ChatRoleAssistant, Content: res.Reply})
		s.sessions.Save(session)
		res.SessionId = session.ID
	}
	return res, nil
}

// retrieve degrades to an ungrounded answer when the knowledge search fails.
func (s *chatService) retrieve(ctx context.Context, tc *entity.TenantContext, query string) []*entity.ScoredChunk {
	if query == "" {
		return nil
	}
	chunks, err := searchScope(ctx, s.uowFactory, s.embeddingProvider, s.policy,
		entity.ScopeFromTenant(tc), query, s.opts.SearchLimit, s.opts.Threshold)
	if err != nil {
		s.logger.Warn("CHAT", "Knowledge search failed, answering without context", map[string]interface{}{
			"workspace_id": tc.WorkspaceId.String(),
			"error":        err,
		})
		return nil
	}
	return chunks
}

// demoSession only returns transcripts started by the same user. The result
// is a private copy, so concurrent turns on one session never share a slice.
func (s *chatService) demoSession(tc *entity.TenantContext, sessionId string) *memory.DemoSession {
	if sessionId != "" {
		if existing, ok := s.sessions.Get(sessionId); ok && existing.UserID == tc.UserId.String() {
			return existing
		}
	}
	return &memory.DemoSession{ID: uuid.NewString(), UserID: tc.UserId.String()}
}

func lastUserMessage(messages []entity.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == entity.ChatRoleUser {
			return messages[i].Content
		}
	}
	return ""
}
