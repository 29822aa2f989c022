package entity

import "github.com/google/uuid"

// AccessStatus is the outcome status of an access decision. It differs from
// SubscriptionStatus: "eligible" only exists as a decision.
type AccessStatus string

const (
	AccessStatusActive   AccessStatus = "active"
	AccessStatusTrial    AccessStatus = "trial"
	AccessStatusEligible AccessStatus = "eligible"
	AccessStatusExpired  AccessStatus = "expired"
	AccessStatusNone     AccessStatus = "none"
)

// Identity is what the session boundary has already verified.
type Identity struct {
	UserId uuid.UUID
	Email  string
}

// TenantContext is resolved once per request from the account row. It is
// never rebuilt from client supplied workspace ids.
type TenantContext struct {
	UserId        uuid.UUID
	UserEmail     string
	WorkspaceId   uuid.UUID
	Role          AccountRole
	Tier          SubscriptionTier
	Status        AccessStatus
	HasAccess     bool
	DaysRemaining int
}

// KnowledgeScope is the owner filter applied to every knowledge query. Its
// fields are unexported so it can only come from a resolved TenantContext.
type KnowledgeScope struct {
	workspaceId uuid.UUID
	ownerId     uuid.UUID
}

func ScopeFromTenant(tc *TenantContext) KnowledgeScope {
	return KnowledgeScope{workspaceId: tc.WorkspaceId, ownerId: tc.UserId}
}

func (s KnowledgeScope) WorkspaceId() uuid.UUID { return s.workspaceId }
func (s KnowledgeScope) OwnerId() uuid.UUID     { return s.ownerId }

// IsZero reports a scope that was never resolved.
func (s KnowledgeScope) IsZero() bool {
	return s.workspaceId == uuid.Nil || s.ownerId == uuid.Nil
}

// Owns reports whether doc belongs to the scope on both keys.
func (s KnowledgeScope) Owns(doc *KnowledgeDocument) bool {
	return doc != nil && doc.WorkspaceId == s.workspaceId && doc.OwnerId == s.ownerId
}

// ScopeFromJob rebuilds the scope of a background job that was enqueued by a
// scoped operation. Never call it with ids taken from a request.
func ScopeFromJob(workspaceId, ownerId uuid.UUID) KnowledgeScope {
	return KnowledgeScope{workspaceId: workspaceId, ownerId: ownerId}
}
