package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByAccountID struct {
	AccountID uuid.UUID
}

func (s ByAccountID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("account_id = ?", s.AccountID)
}

type ByPaymentReference struct {
	Reference string
}

func (s ByPaymentReference) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("payment_reference = ?", s.Reference)
}
