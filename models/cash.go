package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CashTypeSale       = "sale"
	CashTypePurchase   = "purchase"
	CashTypeExpense    = "expense"
	CashTypeRefund     = "refund"
	CashTypeAdjustment = "adjustment"
)

// CashTransaction is one entry in a branch's cash ledger. Balance is the
// branch cash balance after this entry was applied.
type CashTransaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BranchID    uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`
	Type        string    `gorm:"not null;index" json:"type"` // sale, purchase, expense, refund, adjustment
	Amount      float64   `gorm:"not null" json:"amount"`     // positive = cash in, negative = cash out
	Balance     float64   `gorm:"not null" json:"balance"`
	Reference   string    `json:"reference"` // invoice number or free-form
	Note        string    `json:"note"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (ct *CashTransaction) BeforeCreate(tx *gorm.DB) error {
	if ct.ID == uuid.Nil {
		ct.ID = uuid.New()
	}
	return nil
}
