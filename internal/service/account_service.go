package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/errs"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"
	"ai-chatbot-be/pkg/entitlement"
	"ai-chatbot-be/pkg/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrTrialUnavailable = errs.Validation("trial", "trial already used or account is not eligible")

type IAccountService interface {
	Onboard(ctx context.Context, identity *entity.Identity, req *dto.OnboardRequest) (*dto.OnboardResponse, error)
	ActivateTrial(ctx context.Context, identity *entity.Identity) (*dto.AccessResponse, error)
	Access(ctx context.Context, identity *entity.Identity) (*dto.AccessResponse, error)
}

type accountService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher events.Publisher
	logger         logger.ILogger
	trialDays      int
	clock          func() time.Time
}

func NewAccountService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher events.Publisher,
	logger logger.ILogger,
	trialDays int,
) IAccountService {
	if trialDays <= 0 {
		trialDays = 14
	}
	return &accountService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         logger,
		trialDays:      trialDays,
		clock:          time.Now,
	}
}

// Onboard creates the account and its workspace in one transaction. Calling it
// again, or racing another call for the same identity, returns the existing row.
func (s *accountService) Onboard(ctx context.Context, identity *entity.Identity, req *dto.OnboardRequest) (*dto.OnboardResponse, error) {
	if identity == nil || identity.UserId == uuid.Nil {
		return nil, errs.ErrUnauthenticated
	}

	existing, err := s.findAccount(ctx, identity.UserId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.onboardResponse(existing, false), nil
	}

	name := strings.TrimSpace(req.WorkspaceName)
	if name == "" {
		name = defaultWorkspaceName(identity.Email)
	}
	workspace := &entity.Workspace{
		Id:      uuid.New(),
		Name:    name,
		Slug:    slugify(name) + "-" + strings.Split(uuid.NewString(), "-")[0],
		OwnerId: identity.UserId,
	}
	account := entity.NewAccount(identity.UserId, identity.Email, workspace.Id)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, errs.Database("account.onboard.begin", err)
	}
	defer uow.Rollback()

	if err := uow.WorkspaceRepository().Create(ctx, workspace); err != nil {
		return nil, errs.Database("account.onboard.workspace", err)
	}
	if err := uow.AccountRepository().Create(ctx, account); err != nil {
		if isUniqueViolation(err) {
			uow.Rollback()
			return s.afterOnboardRace(ctx, identity.UserId)
		}
		return nil, errs.Database("account.onboard.account", err)
	}
	if err := uow.Commit(); err != nil {
		if isUniqueViolation(err) {
			return s.afterOnboardRace(ctx, identity.UserId)
		}
		return nil, errs.Database("account.onboard.commit", err)
	}

	s.logger.Info("ACCOUNT", "Account onboarded", map[string]interface{}{
		"account_id":   account.Id.String(),
		"workspace_id": workspace.Id.String(),
	})
	return s.onboardResponse(account, true), nil
}

func (s *accountService) afterOnboardRace(ctx context.Context, userId uuid.UUID) (*dto.OnboardResponse, error) {
	account, err := s.findAccount(ctx, userId)
	if err != nil {
		return nil, err
	}
	if account == nil {
		// unique violation on something other than our own id, e.g. the email
		return nil, errs.Validation("email", "already registered to another account")
	}
	return s.onboardResponse(account, false), nil
}

// ActivateTrial starts the one trial an account ever gets.
func (s *accountService) ActivateTrial(ctx context.Context, identity *entity.Identity) (*dto.AccessResponse, error) {
	account, err := s.requireAccount(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if entitlement.Decide(account, now).Status != entity.AccessStatusEligible {
		return nil, ErrTrialUnavailable
	}

	endsAt := now.AddDate(0, 0, s.trialDays)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	started, err := uow.AccountRepository().StartTrial(ctx, account.Id, endsAt)
	if err != nil {
		return nil, errs.Database("account.start_trial", err)
	}
	if !started {
		return nil, ErrTrialUnavailable
	}

	if err := s.eventPublisher.Publish(ctx, events.New(events.TypeTrialStarted, map[string]interface{}{
		"account_id":    account.Id.String(),
		"workspace_id":  account.WorkspaceId.String(),
		"trial_ends_at": endsAt,
	})); err != nil {
		s.logger.Warn("ACCOUNT", "Failed to publish trial event", map[string]interface{}{
			"account_id": account.Id.String(),
			"error":      err,
		})
	}

	account, err = s.requireAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	return AccessFor(account, s.clock()), nil
}

func (s *accountService) Access(ctx context.Context, identity *entity.Identity) (*dto.AccessResponse, error) {
	account, err := s.requireAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	return AccessFor(account, s.clock()), nil
}

func (s *accountService) requireAccount(ctx context.Context, identity *entity.Identity) (*entity.Account, error) {
	if identity == nil || identity.UserId == uuid.Nil {
		return nil, errs.ErrUnauthenticated
	}
	account, err := s.findAccount(ctx, identity.UserId)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.ErrProfileNotFound
	}
	return account, nil
}

func (s *accountService) findAccount(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	account, err := uow.AccountRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, errs.Database("account.find", err)
	}
	return account, nil
}

func (s *accountService) onboardResponse(account *entity.Account, created bool) *dto.OnboardResponse {
	res := &dto.OnboardResponse{
		AccountId: account.Id,
		Created:   created,
		Access:    AccessFor(account, s.clock()),
	}
	if account.WorkspaceId != nil {
		res.WorkspaceId = *account.WorkspaceId
	}
	return res
}

// AccessFor renders the access decision of an account at now.
func AccessFor(account *entity.Account, now time.Time) *dto.AccessResponse {
	d := entitlement.Decide(account, now)
	res := &dto.AccessResponse{
		Status:        string(d.Status),
		Tier:          string(d.Tier),
		HasAccess:     d.HasAccess,
		DaysRemaining: d.DaysRemaining,
		IsTrialActive: d.IsTrialActive,
		CanStartTrial: d.Status == entity.AccessStatusEligible,
		Features:      d.Features,
	}
	if account != nil {
		res.TrialEndsAt = account.TrialEndsAt
		res.EndsAt = account.SubscriptionEndsAt
	}
	return res
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "workspace"
	}
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	return slug
}

func defaultWorkspaceName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return "My workspace"
	}
	return fmt.Sprintf("%s's workspace", local)
}
