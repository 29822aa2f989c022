package dto

import (
	"time"

	"ai-chatbot-be/pkg/entitlement"

	"github.com/google/uuid"
)

type OnboardRequest struct {
	WorkspaceName string `json:"workspace_name" validate:"omitempty,max=80"`
}

type OnboardResponse struct {
	AccountId   uuid.UUID       `json:"account_id"`
	WorkspaceId uuid.UUID       `json:"workspace_id"`
	Created     bool            `json:"created"`
	Access      *AccessResponse `json:"access"`
}

// AccessResponse is the access decision as shown to the account owner.
type AccessResponse struct {
	Status        string                 `json:"status"`
	Tier          string                 `json:"tier"`
	HasAccess     bool                   `json:"has_access"`
	DaysRemaining int                    `json:"days_remaining"`
	IsTrialActive bool                   `json:"is_trial_active"`
	CanStartTrial bool                   `json:"can_start_trial"`
	TrialEndsAt   *time.Time             `json:"trial_ends_at,omitempty"`
	EndsAt        *time.Time             `json:"subscription_ends_at,omitempty"`
	Features      entitlement.FeatureSet `json:"features"`
}
