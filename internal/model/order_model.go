package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Order struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountId        uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanId           string    `gorm:"type:varchar(50);not null"`
	PaymentReference *string   `gorm:"type:varchar(255);index"`
	Status           string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
	CompletedAt      *time.Time
}

func (Order) TableName() string {
	return "orders"
}

type RecoveryRun struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	StartedAt  time.Time      `gorm:"not null"`
	FinishedAt time.Time      `gorm:"not null"`
	Checked    int            `gorm:"not null;default:0"`
	Recovered  int            `gorm:"not null;default:0"`
	Failed     int            `gorm:"not null;default:0"`
	Failures   datatypes.JSON `gorm:"type:jsonb"`
}

func (RecoveryRun) TableName() string {
	return "recovery_runs"
}
