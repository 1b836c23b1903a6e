package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleStatus string

const (
	SaleStatusPending    SaleStatus = "pending"
	SaleStatusProcessing SaleStatus = "processing"
	SaleStatusReady      SaleStatus = "ready"
	SaleStatusShipped    SaleStatus = "shipped"
	SaleStatusDelivered  SaleStatus = "delivered"
	SaleStatusCancelled  SaleStatus = "cancelled"
)

const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentSplit = "split"
)

type Sale struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	InvoiceNumber string     `gorm:"uniqueIndex;not null" json:"invoice_number"`
	BranchID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch        Branch     `gorm:"foreignKey:BranchID" json:"branch,omitempty"`
	CashierID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier       User       `gorm:"foreignKey:CashierID" json:"cashier,omitempty"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	// Customer name/phone are denormalized so invoices survive customer edits.
	CustomerName  string     `json:"customer_name"`
	CustomerPhone string     `json:"customer_phone"`
	Status        SaleStatus `gorm:"default:pending;index" json:"status"`
	Subtotal      float64    `gorm:"not null" json:"subtotal"`
	Discount      float64    `gorm:"default:0" json:"discount"`
	Total         float64    `gorm:"not null" json:"total"`
	PaymentMethod string     `gorm:"default:cash" json:"payment_method"` // cash, card, split
	CashAmount    float64    `gorm:"default:0" json:"cash_amount"`
	CardAmount    float64    `gorm:"default:0" json:"card_amount"`
	Items         []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale      Sale      `gorm:"foreignKey:SaleID" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	// Snapshot of the product name at sale time.
	ProductName string  `json:"product_name"`
	Quantity    float64 `gorm:"not null" json:"quantity"` // units, or kilograms for weighed items
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Discount    float64 `gorm:"default:0" json:"discount"`
	LineTotal   float64 `gorm:"not null" json:"line_total"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.InvoiceNumber == "" {
		s.InvoiceNumber = "INV" + time.Now().Format("20060102150405") + s.ID.String()[:8]
	}
	return nil
}

func (si *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if si.ID == uuid.Nil {
		si.ID = uuid.New()
	}
	return nil
}

// SaleTransitions defines the valid sale status state machine. Cancellation is
// allowed from any non-terminal state; delivered and cancelled are terminal.
var SaleTransitions = map[SaleStatus][]SaleStatus{
	SaleStatusPending:    {SaleStatusProcessing, SaleStatusCancelled},
	SaleStatusProcessing: {SaleStatusReady, SaleStatusCancelled},
	SaleStatusReady:      {SaleStatusShipped, SaleStatusCancelled},
	SaleStatusShipped:    {SaleStatusDelivered, SaleStatusCancelled},
	SaleStatusDelivered:  {},
	SaleStatusCancelled:  {},
}

// IsValidSaleTransition checks if a status transition is allowed.
func IsValidSaleTransition(from, to SaleStatus) bool {
	allowed, exists := SaleTransitions[from]
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
