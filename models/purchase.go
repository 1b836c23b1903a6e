package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Supplier struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string         `gorm:"not null;index" json:"name"`
	Phone     string         `json:"phone"`
	// Balance is what the store still owes the supplier.
	Balance   float64        `gorm:"default:0" json:"balance"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type Purchase struct {
	ID            uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	BranchID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"branch_id"`
	SupplierID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	InvoiceNumber string         `json:"invoice_number"`
	Total         float64        `gorm:"not null" json:"total"`
	PaidAmount    float64        `gorm:"default:0" json:"paid_amount"`
	Items         []PurchaseItem `gorm:"foreignKey:PurchaseID" json:"items"`
	CreatedByID   uuid.UUID      `gorm:"type:uuid;not null" json:"created_by_id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity   float64   `gorm:"not null" json:"quantity"`
	UnitCost   float64   `gorm:"not null" json:"unit_cost"`
	LineTotal  float64   `gorm:"not null" json:"line_total"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (pi *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == uuid.Nil {
		pi.ID = uuid.New()
	}
	return nil
}
