package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Account struct {
	Id                 uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email              string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	WorkspaceId        *uuid.UUID `gorm:"type:uuid;index"`
	Role               string     `gorm:"type:varchar(20);not null;default:'owner'"`
	SubscriptionStatus string     `gorm:"type:varchar(20);not null;default:'none';index"`
	SubscriptionTier   string     `gorm:"type:varchar(20);not null;default:'basic'"`
	TrialEndsAt        *time.Time
	SubscriptionEndsAt *time.Time
	HasUsedTrial       bool           `gorm:"not null;default:false"`
	PaymentReference   *string        `gorm:"type:varchar(255)"`
	CreatedAt          time.Time      `gorm:"autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Account) TableName() string {
	return "accounts"
}

type Workspace struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name      string         `gorm:"type:varchar(255);not null"`
	Slug      string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	OwnerId   uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Workspace) TableName() string {
	return "workspaces"
}
