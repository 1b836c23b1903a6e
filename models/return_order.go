package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRejected ReturnStatus = "rejected"
)

type ReturnOrder struct {
	ID              uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SaleID          uuid.UUID    `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale            Sale         `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	BranchID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"branch_id"`
	Status          ReturnStatus `gorm:"default:pending;index" json:"status"`
	RejectionReason string       `json:"rejection_reason"`
	RefundTotal     float64      `gorm:"default:0" json:"refund_total"`
	RequestedByID   uuid.UUID    `gorm:"type:uuid;not null" json:"requested_by_id"`
	Items           []ReturnItem `gorm:"foreignKey:ReturnOrderID" json:"items"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

type ReturnItem struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ReturnOrderID uuid.UUID `gorm:"type:uuid;not null;index" json:"return_order_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      float64   `gorm:"not null" json:"quantity"`
	UnitPrice     float64   `gorm:"not null" json:"unit_price"`
	LineTotal     float64   `gorm:"not null" json:"line_total"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (r *ReturnOrder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (ri *ReturnItem) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

// ReturnTransitions: a return only ever moves away from pending.
var ReturnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusPending:  {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved: {},
	ReturnStatusRejected: {},
}

// IsValidReturnTransition checks if a return status transition is allowed.
func IsValidReturnTransition(from, to ReturnStatus) bool {
	allowed, exists := ReturnTransitions[from]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
