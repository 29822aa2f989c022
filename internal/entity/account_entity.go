package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type AccountRole string
type SubscriptionStatus string
type SubscriptionTier string

const (
	AccountRoleOwner  AccountRole = "owner"
	AccountRoleAdmin  AccountRole = "admin"
	AccountRoleMember AccountRole = "member"

	SubscriptionStatusNone    SubscriptionStatus = "none"
	SubscriptionStatusTrial   SubscriptionStatus = "trial"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"

	// There is deliberately no "free" tier.
	TierBasic SubscriptionTier = "basic"
	TierPro   SubscriptionTier = "pro"
	TierUltra SubscriptionTier = "ultra"
)

var (
	ErrInvalidRole          = errors.New("account: invalid role")
	ErrInvalidStatus        = errors.New("account: invalid subscription status")
	ErrInvalidTier          = errors.New("account: invalid subscription tier")
	ErrActiveWithoutEndDate = errors.New("account: active subscription requires subscription_ends_at")
	ErrTrialWithoutEndDate  = errors.New("account: trial requires trial_ends_at")
)

func (r AccountRole) Valid() bool {
	switch r {
	case AccountRoleOwner, AccountRoleAdmin, AccountRoleMember:
		return true
	}
	return false
}

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusNone, SubscriptionStatusTrial, SubscriptionStatusActive, SubscriptionStatusExpired:
		return true
	}
	return false
}

func (t SubscriptionTier) Valid() bool {
	switch t {
	case TierBasic, TierPro, TierUltra:
		return true
	}
	return false
}

// Account is the profile row of one authenticated identity.
type Account struct {
	Id                 uuid.UUID
	Email              string
	WorkspaceId        *uuid.UUID
	Role               AccountRole
	SubscriptionStatus SubscriptionStatus
	SubscriptionTier   SubscriptionTier
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
	HasUsedTrial       bool
	PaymentReference   *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewAccount returns the account shape created at onboarding.
func NewAccount(id uuid.UUID, email string, workspaceId uuid.UUID) *Account {
	now := time.Now()
	return &Account{
		Id:                 id,
		Email:              email,
		WorkspaceId:        &workspaceId,
		Role:               AccountRoleOwner,
		SubscriptionStatus: SubscriptionStatusNone,
		SubscriptionTier:   TierBasic,
		HasUsedTrial:       false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Validate rejects states the rest of the system treats as illegal.
func (a *Account) Validate() error {
	if !a.Role.Valid() {
		return ErrInvalidRole
	}
	if !a.SubscriptionStatus.Valid() {
		return ErrInvalidStatus
	}
	if !a.SubscriptionTier.Valid() {
		return ErrInvalidTier
	}
	if a.SubscriptionStatus == SubscriptionStatusActive && a.SubscriptionEndsAt == nil {
		return ErrActiveWithoutEndDate
	}
	if a.SubscriptionStatus == SubscriptionStatusTrial && a.TrialEndsAt == nil {
		return ErrTrialWithoutEndDate
	}
	return nil
}

func (a *Account) HasPaymentReference() bool {
	return a.PaymentReference != nil && *a.PaymentReference != ""
}

type Workspace struct {
	Id        uuid.UUID
	Name      string
	Slug      string
	OwnerId   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}
