package database

import (
	"fmt"
	"log"
	"os"

	"matjar-backend/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=matjar_store port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	// Ensure PostgreSQL has gen_random_uuid() available (pgcrypto extension).
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto;`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto extension: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Branch{},
		&models.Category{},
		&models.Subcategory{},
		&models.Company{},
		&models.Product{},
		&models.ProductImage{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.ReturnOrder{},
		&models.ReturnItem{},
		&models.Shift{},
		&models.DeliveryLocation{},
		&models.DeliveryPrice{},
		&models.Supplier{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.CashTransaction{},
		&models.RefreshToken{},
	)
}

func CreateDefaultAdmin(db *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" {
		adminEmail = "admin@matjar.local"
	}
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	var existingUser models.User
	result := db.Where("email = ?", adminEmail).First(&existingUser)
	if result.Error == nil {
		// Admin already exists
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleSuperAdmin,
		Name:     "Admin User",
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Default admin created: %s", adminEmail)
	return nil
}

// CreateDefaultBranch seeds the main branch so single-branch installs work
// out of the box.
func CreateDefaultBranch(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Branch{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	branch := models.Branch{
		Name:     "Main Branch",
		IsActive: true,
	}
	if err := db.Create(&branch).Error; err != nil {
		return err
	}

	log.Printf("Default branch created: %s", branch.ID)
	return nil
}
