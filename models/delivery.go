package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LocationGovernorate  = "governorate"
	LocationCity         = "city"
	LocationArea         = "area"
	LocationNeighborhood = "neighborhood"
)

// DeliveryLocation is one node in the governorate → city → area → neighborhood
// hierarchy. Pricing hangs off the node it applies to.
type DeliveryLocation struct {
	ID        uuid.UUID          `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name      string             `gorm:"not null;index" json:"name"`
	Kind      string             `gorm:"not null;index" json:"kind"` // governorate, city, area, neighborhood
	ParentID  *uuid.UUID         `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Children  []DeliveryLocation `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Prices    []DeliveryPrice    `gorm:"foreignKey:LocationID" json:"prices,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	DeletedAt gorm.DeletedAt     `gorm:"index" json:"-"`
}

func (d *DeliveryLocation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// childKind returns the expected kind one level below the given one,
// or "" for leaf nodes.
func ChildKind(kind string) string {
	switch kind {
	case LocationGovernorate:
		return LocationCity
	case LocationCity:
		return LocationArea
	case LocationArea:
		return LocationNeighborhood
	}
	return ""
}

type DeliveryPrice struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	LocationID       uuid.UUID `gorm:"type:uuid;not null;index" json:"location_id"`
	DeliveryType     string    `gorm:"not null" json:"delivery_type"` // standard, express
	Price            float64   `gorm:"not null" json:"price"`
	EstimatedMinutes int       `gorm:"default:0" json:"estimated_minutes"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (d *DeliveryPrice) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
