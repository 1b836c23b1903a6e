package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name       string            `gorm:"not null;index" json:"name"`
	Phone      string            `gorm:"index" json:"phone"`
	Email      string            `json:"email"`
	IsVerified bool              `gorm:"default:false" json:"is_verified"`
	Address    string            `json:"address"`
	LocationID *uuid.UUID        `gorm:"type:uuid;index" json:"location_id,omitempty"`
	Location   *DeliveryLocation `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	BranchID   *uuid.UUID        `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
