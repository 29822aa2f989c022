package entity

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
)

// Order is one payment attempt for a plan.
type Order struct {
	Id               uuid.UUID
	AccountId        uuid.UUID
	PlanId           string
	PaymentReference *string
	Status           OrderStatus
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// RecoveryFailure records one candidate the reconciler could not repair.
type RecoveryFailure struct {
	OrderId   uuid.UUID `json:"order_id"`
	AccountId uuid.UUID `json:"account_id"`
	Reason    string    `json:"reason"`
}

// RecoveryRun is the persisted audit row of one reconciler batch.
type RecoveryRun struct {
	Id         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Checked    int
	Recovered  int
	Failures   []RecoveryFailure
}
