package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name          string     `gorm:"not null;index" json:"name"`
	Barcode       string     `gorm:"index" json:"barcode"`
	SalePrice     float64    `gorm:"not null" json:"sale_price"`
	PurchasePrice float64    `gorm:"not null" json:"purchase_price"`
	OfferPrice    *float64   `json:"offer_price,omitempty"`
	OfferQuantity int        `gorm:"default:0" json:"offer_quantity"` // minimum quantity for the offer price
	StockQuantity float64    `gorm:"default:0;index" json:"stock_quantity"`
	ReorderLevel  float64    `gorm:"default:0" json:"reorder_level"`
	SoldByWeight  bool       `gorm:"default:false" json:"sold_by_weight"`
	CategoryID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"category_id"`
	Category      Category   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	SubcategoryID *uuid.UUID `gorm:"type:uuid;index" json:"subcategory_id,omitempty"`
	Subcategory   *Subcategory `gorm:"foreignKey:SubcategoryID" json:"subcategory,omitempty"`
	CompanyID     *uuid.UUID `gorm:"type:uuid;index" json:"company_id,omitempty"`
	Company       *Company   `gorm:"foreignKey:CompanyID" json:"company,omitempty"`

	// Variant products point at a parent and may share its stock pool.
	ParentID          *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	SharesParentStock bool       `gorm:"default:false" json:"shares_parent_stock"`

	BranchID  *uuid.UUID     `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	Status    string         `gorm:"default:active;index" json:"status"` // active, inactive
	Notes     string         `json:"notes"`
	Images    []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// EffectivePrice returns the unit price for the given quantity, applying the
// offer price when the quantity reaches the offer threshold.
func (p *Product) EffectivePrice(quantity float64) float64 {
	if p.OfferPrice != nil && p.OfferQuantity > 0 && quantity >= float64(p.OfferQuantity) {
		return *p.OfferPrice
	}
	return p.SalePrice
}

type ProductImage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	ProductID uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	ImageURL  string         `gorm:"not null" json:"image_url"`
	IsPrimary bool           `gorm:"default:false" json:"is_primary"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (pi *ProductImage) BeforeCreate(tx *gorm.DB) error {
	if pi.ID == uuid.Nil {
		pi.ID = uuid.New()
	}
	return nil
}
