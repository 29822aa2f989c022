package memory

import (
	"context"
	"time"

	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/repository/contract"
	"ai-chatbot-be/internal/repository/specification"

	"github.com/google/uuid"
)

type accountRepository struct {
	store *Store
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("account.Create"); err != nil {
		return err
	}
	if _, ok := s.accounts[account.Id]; ok {
		return uniqueViolation("accounts_pkey")
	}
	for _, a := range s.accounts {
		if a.Email == account.Email {
			return uniqueViolation("idx_accounts_email")
		}
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	s.accounts[account.Id] = *account
	return nil
}

func (r *accountRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("account.FindOne"); err != nil {
		return nil, err
	}
	for _, a := range s.accounts {
		ok, err := matchAccount(&a, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (r *accountRepository) Exists(ctx context.Context, specs ...specification.Specification) (bool, error) {
	s := r.store
	s.mu.Lock()
	if err := s.fail("account.Exists"); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.mu.Unlock()

	a, err := r.FindOne(ctx, specs...)
	return a != nil, err
}

func (r *accountRepository) StartTrial(ctx context.Context, id uuid.UUID, endsAt time.Time) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("account.StartTrial"); err != nil {
		return false, err
	}
	a, ok := s.accounts[id]
	if !ok || a.HasUsedTrial || a.SubscriptionStatus != entity.SubscriptionStatusNone || a.PaymentReference != nil {
		return false, nil
	}
	a.SubscriptionStatus = entity.SubscriptionStatusTrial
	a.TrialEndsAt = &endsAt
	a.HasUsedTrial = true
	a.UpdatedAt = time.Now()
	s.accounts[id] = a
	return true, nil
}

func (r *accountRepository) ApplySubscription(ctx context.Context, change contract.SubscriptionChange) (bool, error) {
	if !change.Tier.Valid() {
		return false, entity.ErrInvalidTier
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("account.ApplySubscription"); err != nil {
		return false, err
	}
	a, ok := s.accounts[change.AccountId]
	if !ok || a.SubscriptionStatus != change.ExpectStatus || !sameReference(a.PaymentReference, change.ExpectReference) {
		return false, nil
	}
	endsAt := change.EndsAt
	ref := change.PaymentReference
	a.SubscriptionStatus = entity.SubscriptionStatusActive
	a.SubscriptionTier = change.Tier
	a.SubscriptionEndsAt = &endsAt
	a.PaymentReference = &ref
	a.UpdatedAt = time.Now()
	s.accounts[change.AccountId] = a
	return true, nil
}

// sameReference is IS NOT DISTINCT FROM.
func sameReference(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type workspaceRepository struct {
	store *Store
}

func (r *workspaceRepository) Create(ctx context.Context, workspace *entity.Workspace) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("workspace.Create"); err != nil {
		return err
	}
	if _, ok := s.workspaces[workspace.Id]; ok {
		return uniqueViolation("workspaces_pkey")
	}
	for _, w := range s.workspaces {
		if w.Slug == workspace.Slug {
			return uniqueViolation("idx_workspaces_slug")
		}
	}
	now := time.Now()
	workspace.CreatedAt = now
	workspace.UpdatedAt = now
	s.workspaces[workspace.Id] = *workspace
	return nil
}

func (r *workspaceRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Workspace, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workspaces {
		ok, err := matchWorkspace(&w, specs)
		if err != nil {
			return nil, err
		}
		if ok {
			found := w
			return &found, nil
		}
	}
	return nil, nil
}
