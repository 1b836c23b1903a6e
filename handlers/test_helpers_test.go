package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/realtime"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Setenv("JWT_SECRET", "test-secret-key-for-unit-tests")

	var err error
	testDB, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	// Limit to 1 open connection to prevent SQLite concurrent access issues
	// with in-memory databases. This ensures all goroutines (including import
	// workers) share the same connection and see the same tables.
	sqlDB, _ := testDB.DB()
	sqlDB.SetMaxOpenConns(1)

	// Create tables using raw SQLite-compatible SQL instead of AutoMigrate,
	// because the GORM model tags use PostgreSQL-specific defaults like gen_random_uuid().
	if err := createSQLiteTables(testDB); err != nil {
		panic("failed to migrate test database: " + err.Error())
	}

	code := m.Run()
	os.Exit(code)
}

// freshDB returns a clean database for each test by deleting all rows.
func freshDB() *gorm.DB {
	// Delete in correct order to respect foreign keys
	testDB.Exec("DELETE FROM sale_items")
	testDB.Exec("DELETE FROM return_items")
	testDB.Exec("DELETE FROM return_orders")
	testDB.Exec("DELETE FROM sales")
	testDB.Exec("DELETE FROM purchase_items")
	testDB.Exec("DELETE FROM purchases")
	testDB.Exec("DELETE FROM cash_transactions")
	testDB.Exec("DELETE FROM shifts")
	testDB.Exec("DELETE FROM product_images")
	testDB.Exec("DELETE FROM products")
	testDB.Exec("DELETE FROM customers")
	testDB.Exec("DELETE FROM delivery_prices")
	testDB.Exec("DELETE FROM delivery_locations")
	testDB.Exec("DELETE FROM subcategories")
	testDB.Exec("DELETE FROM categories")
	testDB.Exec("DELETE FROM companies")
	testDB.Exec("DELETE FROM suppliers")
	testDB.Exec("DELETE FROM refresh_tokens")
	testDB.Exec("DELETE FROM users")
	testDB.Exec("DELETE FROM branches")
	return testDB
}

// createSQLiteTables creates all tables with SQLite-compatible DDL.
// This avoids GORM AutoMigrate which emits PostgreSQL-specific defaults like gen_random_uuid().
func createSQLiteTables(db *gorm.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS "branches" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"phone" TEXT,
			"address" TEXT,
			"logo_url" TEXT,
			"is_active" INTEGER DEFAULT 1,
			"cash_balance" REAL DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_branches_deleted_at ON "branches"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "users" (
			"id" TEXT PRIMARY KEY,
			"email" TEXT NOT NULL UNIQUE,
			"password" TEXT NOT NULL,
			"name" TEXT,
			"role" TEXT DEFAULT 'employee',
			"branch_id" TEXT,
			"phone" TEXT,
			"is_blocked" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_deleted_at ON "users"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_users_branch_id ON "users"("branch_id")`,

		`CREATE TABLE IF NOT EXISTS "refresh_tokens" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"token" TEXT NOT NULL UNIQUE,
			"expires_at" DATETIME NOT NULL,
			"revoked_at" DATETIME,
			"created_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON "refresh_tokens"("user_id")`,

		`CREATE TABLE IF NOT EXISTS "categories" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"icon" TEXT,
			"description" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_deleted_at ON "categories"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_categories_name ON "categories"("name")`,

		`CREATE TABLE IF NOT EXISTS "subcategories" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"category_id" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_subcategories_category FOREIGN KEY ("category_id") REFERENCES "categories"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subcategories_deleted_at ON "subcategories"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_subcategories_category_id ON "subcategories"("category_id")`,

		`CREATE TABLE IF NOT EXISTS "companies" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_companies_deleted_at ON "companies"("deleted_at")`,

		`CREATE TABLE IF NOT EXISTS "products" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"barcode" TEXT,
			"sale_price" REAL NOT NULL,
			"purchase_price" REAL NOT NULL,
			"offer_price" REAL,
			"offer_quantity" INTEGER DEFAULT 0,
			"stock_quantity" REAL DEFAULT 0,
			"reorder_level" REAL DEFAULT 0,
			"sold_by_weight" INTEGER DEFAULT 0,
			"category_id" TEXT NOT NULL,
			"subcategory_id" TEXT,
			"company_id" TEXT,
			"parent_id" TEXT,
			"shares_parent_stock" INTEGER DEFAULT 0,
			"branch_id" TEXT,
			"status" TEXT DEFAULT 'active',
			"notes" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_products_category FOREIGN KEY ("category_id") REFERENCES "categories"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_deleted_at ON "products"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_products_name ON "products"("name")`,
		`CREATE INDEX IF NOT EXISTS idx_products_barcode ON "products"("barcode")`,
		`CREATE INDEX IF NOT EXISTS idx_products_category_id ON "products"("category_id")`,
		`CREATE INDEX IF NOT EXISTS idx_products_branch_id ON "products"("branch_id")`,
		`CREATE INDEX IF NOT EXISTS idx_products_status ON "products"("status")`,
		`CREATE INDEX IF NOT EXISTS idx_products_stock_quantity ON "products"("stock_quantity")`,
		`CREATE INDEX IF NOT EXISTS idx_products_parent_id ON "products"("parent_id")`,

		`CREATE TABLE IF NOT EXISTS "product_images" (
			"id" TEXT PRIMARY KEY,
			"product_id" TEXT NOT NULL,
			"image_url" TEXT NOT NULL,
			"is_primary" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_product_images_product FOREIGN KEY ("product_id") REFERENCES "products"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_product_images_product_id ON "product_images"("product_id")`,

		`CREATE TABLE IF NOT EXISTS "delivery_locations" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"kind" TEXT NOT NULL,
			"parent_id" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_locations_deleted_at ON "delivery_locations"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_locations_parent_id ON "delivery_locations"("parent_id")`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_locations_kind ON "delivery_locations"("kind")`,

		`CREATE TABLE IF NOT EXISTS "delivery_prices" (
			"id" TEXT PRIMARY KEY,
			"location_id" TEXT NOT NULL,
			"delivery_type" TEXT NOT NULL,
			"price" REAL NOT NULL,
			"estimated_minutes" INTEGER DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_delivery_prices_location FOREIGN KEY ("location_id") REFERENCES "delivery_locations"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_prices_location_id ON "delivery_prices"("location_id")`,

		`CREATE TABLE IF NOT EXISTS "customers" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"phone" TEXT,
			"email" TEXT,
			"is_verified" INTEGER DEFAULT 0,
			"address" TEXT,
			"location_id" TEXT,
			"branch_id" TEXT,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_deleted_at ON "customers"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_customers_name ON "customers"("name")`,
		`CREATE INDEX IF NOT EXISTS idx_customers_phone ON "customers"("phone")`,
		`CREATE INDEX IF NOT EXISTS idx_customers_branch_id ON "customers"("branch_id")`,

		`CREATE TABLE IF NOT EXISTS "sales" (
			"id" TEXT PRIMARY KEY,
			"invoice_number" TEXT NOT NULL UNIQUE,
			"branch_id" TEXT NOT NULL,
			"cashier_id" TEXT NOT NULL,
			"customer_id" TEXT,
			"customer_name" TEXT,
			"customer_phone" TEXT,
			"status" TEXT DEFAULT 'pending',
			"subtotal" REAL NOT NULL,
			"discount" REAL DEFAULT 0,
			"total" REAL NOT NULL,
			"payment_method" TEXT DEFAULT 'cash',
			"cash_amount" REAL DEFAULT 0,
			"card_amount" REAL DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_sales_branch FOREIGN KEY ("branch_id") REFERENCES "branches"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_deleted_at ON "sales"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_sales_branch_id ON "sales"("branch_id")`,
		`CREATE INDEX IF NOT EXISTS idx_sales_cashier_id ON "sales"("cashier_id")`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer_id ON "sales"("customer_id")`,
		`CREATE INDEX IF NOT EXISTS idx_sales_status ON "sales"("status")`,

		`CREATE TABLE IF NOT EXISTS "sale_items" (
			"id" TEXT PRIMARY KEY,
			"sale_id" TEXT NOT NULL,
			"product_id" TEXT NOT NULL,
			"product_name" TEXT,
			"quantity" REAL NOT NULL,
			"unit_price" REAL NOT NULL,
			"discount" REAL DEFAULT 0,
			"line_total" REAL NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_sale_items_sale FOREIGN KEY ("sale_id") REFERENCES "sales"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_sale_id ON "sale_items"("sale_id")`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_product_id ON "sale_items"("product_id")`,

		`CREATE TABLE IF NOT EXISTS "return_orders" (
			"id" TEXT PRIMARY KEY,
			"sale_id" TEXT NOT NULL,
			"branch_id" TEXT NOT NULL,
			"status" TEXT DEFAULT 'pending',
			"rejection_reason" TEXT,
			"refund_total" REAL DEFAULT 0,
			"requested_by_id" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_return_orders_sale FOREIGN KEY ("sale_id") REFERENCES "sales"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_return_orders_deleted_at ON "return_orders"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_return_orders_sale_id ON "return_orders"("sale_id")`,
		`CREATE INDEX IF NOT EXISTS idx_return_orders_branch_id ON "return_orders"("branch_id")`,
		`CREATE INDEX IF NOT EXISTS idx_return_orders_status ON "return_orders"("status")`,

		`CREATE TABLE IF NOT EXISTS "return_items" (
			"id" TEXT PRIMARY KEY,
			"return_order_id" TEXT NOT NULL,
			"product_id" TEXT NOT NULL,
			"product_name" TEXT,
			"quantity" REAL NOT NULL,
			"unit_price" REAL NOT NULL,
			"line_total" REAL NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_return_items_return_order FOREIGN KEY ("return_order_id") REFERENCES "return_orders"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_return_items_return_order_id ON "return_items"("return_order_id")`,
		`CREATE INDEX IF NOT EXISTS idx_return_items_product_id ON "return_items"("product_id")`,

		`CREATE TABLE IF NOT EXISTS "shifts" (
			"id" TEXT PRIMARY KEY,
			"user_id" TEXT NOT NULL,
			"branch_id" TEXT NOT NULL,
			"started_at" DATETIME NOT NULL,
			"ended_at" DATETIME,
			"hours_worked" REAL DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_user_id ON "shifts"("user_id")`,
		`CREATE INDEX IF NOT EXISTS idx_shifts_branch_id ON "shifts"("branch_id")`,

		`CREATE TABLE IF NOT EXISTS "suppliers" (
			"id" TEXT PRIMARY KEY,
			"name" TEXT NOT NULL,
			"phone" TEXT,
			"balance" REAL DEFAULT 0,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME
		)`,
		`CREATE INDEX IF NOT EXISTS idx_suppliers_deleted_at ON "suppliers"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_suppliers_name ON "suppliers"("name")`,

		`CREATE TABLE IF NOT EXISTS "purchases" (
			"id" TEXT PRIMARY KEY,
			"branch_id" TEXT NOT NULL,
			"supplier_id" TEXT NOT NULL,
			"invoice_number" TEXT,
			"total" REAL NOT NULL,
			"paid_amount" REAL DEFAULT 0,
			"created_by_id" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			"deleted_at" DATETIME,
			CONSTRAINT fk_purchases_supplier FOREIGN KEY ("supplier_id") REFERENCES "suppliers"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_deleted_at ON "purchases"("deleted_at")`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_branch_id ON "purchases"("branch_id")`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_supplier_id ON "purchases"("supplier_id")`,

		`CREATE TABLE IF NOT EXISTS "purchase_items" (
			"id" TEXT PRIMARY KEY,
			"purchase_id" TEXT NOT NULL,
			"product_id" TEXT NOT NULL,
			"quantity" REAL NOT NULL,
			"unit_cost" REAL NOT NULL,
			"line_total" REAL NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_purchase_items_purchase FOREIGN KEY ("purchase_id") REFERENCES "purchases"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_items_purchase_id ON "purchase_items"("purchase_id")`,
		`CREATE INDEX IF NOT EXISTS idx_purchase_items_product_id ON "purchase_items"("product_id")`,

		`CREATE TABLE IF NOT EXISTS "cash_transactions" (
			"id" TEXT PRIMARY KEY,
			"branch_id" TEXT NOT NULL,
			"type" TEXT NOT NULL,
			"amount" REAL NOT NULL,
			"balance" REAL NOT NULL,
			"reference" TEXT,
			"note" TEXT,
			"created_by_id" TEXT NOT NULL,
			"created_at" DATETIME,
			"updated_at" DATETIME,
			CONSTRAINT fk_cash_transactions_branch FOREIGN KEY ("branch_id") REFERENCES "branches"("id")
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cash_transactions_branch_id ON "cash_transactions"("branch_id")`,
		`CREATE INDEX IF NOT EXISTS idx_cash_transactions_type ON "cash_transactions"("type")`,
		`CREATE INDEX IF NOT EXISTS idx_cash_transactions_created_at ON "cash_transactions"("created_at")`,
	}

	for _, ddl := range tables {
		if err := db.Exec(ddl).Error; err != nil {
			return err
		}
	}
	return nil
}

// ==================== Seed Helpers ====================

// seedTestUser creates a user with a bcrypt-hashed password and returns the
// user plus a valid JWT token for it.
func seedTestUser(db *gorm.DB, email, role string, branchID *uuid.UUID) (models.User, string) {
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := models.User{
		ID:       uuid.New(),
		Email:    email,
		Password: string(hashed),
		Name:     "Test User",
		Role:     role,
		BranchID: branchID,
	}
	db.Create(&user)

	token, _ := utils.GenerateToken(user.ID, user.Email, user.Role, branchID)
	return user, token
}

// seedBranch creates an active branch with an empty cash drawer.
func seedBranch(db *gorm.DB, name string) models.Branch {
	branch := models.Branch{
		ID:       uuid.New(),
		Name:     name,
		Phone:    "0212345678",
		Address:  "1 Test St",
		IsActive: true,
	}
	db.Create(&branch)
	return branch
}

// seedBranchWithCash creates a branch holding the given cash balance.
func seedBranchWithCash(db *gorm.DB, name string, balance float64) models.Branch {
	branch := seedBranch(db, name)
	db.Model(&branch).Update("cash_balance", balance)
	branch.CashBalance = balance
	return branch
}

// seedCategory creates a test category.
func seedCategory(db *gorm.DB, name string) models.Category {
	cat := models.Category{
		ID:   uuid.New(),
		Name: name,
	}
	db.Create(&cat)
	return cat
}

// seedProduct creates an active product with 100 units in stock.
func seedProduct(db *gorm.DB, name string, categoryID uuid.UUID, price float64) models.Product {
	prod := models.Product{
		ID:            uuid.New(),
		Name:          name,
		Barcode:       "BAR-" + uuid.New().String()[:8],
		SalePrice:     price,
		PurchasePrice: price * 0.5,
		StockQuantity: 100,
		CategoryID:    categoryID,
		Status:        "active",
	}
	db.Create(&prod)
	return prod
}

// seedCustomer creates a customer, optionally pinned to a branch.
func seedCustomer(db *gorm.DB, name, phone string, branchID *uuid.UUID) models.Customer {
	customer := models.Customer{
		ID:       uuid.New(),
		Name:     name,
		Phone:    phone,
		BranchID: branchID,
	}
	db.Create(&customer)
	return customer
}

// seedSale creates a pending cash sale with one line item for the given product.
func seedSale(db *gorm.DB, branchID, cashierID uuid.UUID, product models.Product, quantity float64) models.Sale {
	saleID := uuid.New()
	lineTotal := utils.LineTotal(quantity, product.SalePrice, 0)
	sale := models.Sale{
		ID:            saleID,
		InvoiceNumber: "INV" + time.Now().Format("20060102150405") + saleID.String()[:8],
		BranchID:      branchID,
		CashierID:     cashierID,
		Status:        models.SaleStatusPending,
		Subtotal:      lineTotal,
		Total:         lineTotal,
		PaymentMethod: models.PaymentCash,
		CashAmount:    lineTotal,
		Items: []models.SaleItem{
			{
				ID:          uuid.New(),
				SaleID:      saleID,
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    quantity,
				UnitPrice:   product.SalePrice,
				LineTotal:   lineTotal,
			},
		},
	}
	db.Create(&sale)
	return sale
}

// seedSupplier creates a supplier the store owes the given balance to.
func seedSupplier(db *gorm.DB, name string, balance float64) models.Supplier {
	supplier := models.Supplier{
		ID:      uuid.New(),
		Name:    name,
		Balance: balance,
	}
	db.Create(&supplier)
	return supplier
}

// seedLocation creates one delivery location node.
func seedLocation(db *gorm.DB, name, kind string, parentID *uuid.UUID) models.DeliveryLocation {
	loc := models.DeliveryLocation{
		ID:       uuid.New(),
		Name:     name,
		Kind:     kind,
		ParentID: parentID,
	}
	db.Create(&loc)
	return loc
}

// seedOpenShift creates a shift that started an hour ago and has not ended.
func seedOpenShift(db *gorm.DB, userID, branchID uuid.UUID) models.Shift {
	shift := models.Shift{
		ID:        uuid.New(),
		UserID:    userID,
		BranchID:  branchID,
		StartedAt: time.Now().Add(-time.Hour),
	}
	db.Create(&shift)
	return shift
}

// ==================== Router Setup Helpers ====================

// setupAuthRouter sets up routes for auth handler tests.
func setupAuthRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	authHandler := &AuthHandler{DB: db}

	api := r.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.RefreshTokenHandler)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/auth/profile", authHandler.GetProfile)
	protected.PUT("/auth/profile", authHandler.UpdateProfile)
	protected.PUT("/auth/password", authHandler.ChangePassword)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.POST("/users", authHandler.CreateUser)
	admin.GET("/users", authHandler.ListUsers)
	admin.GET("/users/:id", authHandler.GetUser)
	admin.PUT("/users/:id", authHandler.UpdateUser)

	return r
}

// setupProductRouter sets up routes for product handler tests.
func setupProductRouter(db *gorm.DB) *gin.Engine {
	return setupProductRouterWith(&ProductHandler{DB: db, Storage: newMockStorage()})
}

// setupProductRouterWith accepts a prebuilt handler so tests can inspect the
// storage mock.
func setupProductRouterWith(productHandler *ProductHandler) *gin.Engine {
	r := gin.New()

	api := r.Group("/api")

	pos := api.Group("/pos")
	pos.Use(middleware.AuthMiddleware())
	pos.Use(middleware.CashierMiddleware())
	pos.Use(middleware.BranchScope())
	pos.GET("/products", productHandler.GetProducts)
	pos.GET("/products/barcode/:barcode", productHandler.GetProductByBarcode)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.GET("/products", productHandler.GetProducts)
	admin.GET("/products/:id", productHandler.GetProduct)
	admin.POST("/products", productHandler.CreateProduct)
	admin.PUT("/products/:id", productHandler.UpdateProduct)
	admin.DELETE("/products/:id", productHandler.DeleteProduct)
	admin.GET("/products/:id/variants", productHandler.GetProductVariants)
	admin.POST("/products/:id/images", productHandler.UploadProductImage)
	admin.DELETE("/products/:id/images/:imageId", productHandler.DeleteProductImage)
	admin.POST("/imports/products", productHandler.ImportProducts)
	admin.GET("/imports/:id", productHandler.GetImportJobStatus)

	return r
}

// setupCategoryRouter sets up routes for category handler tests.
func setupCategoryRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	categoryHandler := &CategoryHandler{DB: db}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/categories", categoryHandler.GetCategories)
	admin.GET("/categories/:id", categoryHandler.GetCategory)
	admin.POST("/categories", categoryHandler.CreateCategory)
	admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
	admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
	admin.GET("/subcategories", categoryHandler.GetSubcategories)
	admin.POST("/subcategories", categoryHandler.CreateSubcategory)
	admin.PUT("/subcategories/:id", categoryHandler.UpdateSubcategory)
	admin.DELETE("/subcategories/:id", categoryHandler.DeleteSubcategory)
	admin.GET("/companies", categoryHandler.GetCompanies)
	admin.POST("/companies", categoryHandler.CreateCompany)
	admin.DELETE("/companies/:id", categoryHandler.DeleteCompany)

	return r
}

// setupCustomerRouter sets up routes for customer handler tests.
func setupCustomerRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	customerHandler := &CustomerHandler{DB: db}

	api := r.Group("/api")

	pos := api.Group("/pos")
	pos.Use(middleware.AuthMiddleware())
	pos.Use(middleware.CashierMiddleware())
	pos.Use(middleware.BranchScope())
	pos.GET("/customers", customerHandler.GetCustomers)
	pos.GET("/customers/phone/:phone", customerHandler.LookupByPhone)
	pos.POST("/customers", customerHandler.CreateCustomer)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.GET("/customers", customerHandler.GetCustomers)
	admin.GET("/customers/:id", customerHandler.GetCustomer)
	admin.POST("/customers", customerHandler.CreateCustomer)
	admin.PUT("/customers/:id", customerHandler.UpdateCustomer)
	admin.DELETE("/customers/:id", customerHandler.DeleteCustomer)
	admin.GET("/customers/:id/sales", customerHandler.GetCustomerSales)

	return r
}

// setupSaleRouter sets up POS sale routes for sale handler tests.
func setupSaleRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	saleHandler := &SaleHandler{DB: db, Broker: realtime.NewBroker()}
	invoiceHandler := &InvoiceHandler{DB: db}

	pos := r.Group("/api/pos")
	pos.Use(middleware.AuthMiddleware())
	pos.Use(middleware.CashierMiddleware())
	pos.Use(middleware.BranchScope())
	pos.POST("/sales", saleHandler.Checkout)
	pos.GET("/sales", saleHandler.GetSales)
	pos.GET("/sales/:id", saleHandler.GetSale)
	pos.PUT("/sales/:id/status", saleHandler.UpdateStatus)
	pos.GET("/sales/:id/invoice.pdf", invoiceHandler.GetInvoicePDF)
	pos.GET("/sales/:id/barcode.png", invoiceHandler.GetInvoiceBarcode)

	return r
}

// setupReturnRouter sets up return routes for return handler tests.
func setupReturnRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	returnHandler := &ReturnHandler{DB: db, Broker: realtime.NewBroker()}

	api := r.Group("/api")

	pos := api.Group("/pos")
	pos.Use(middleware.AuthMiddleware())
	pos.Use(middleware.CashierMiddleware())
	pos.Use(middleware.BranchScope())
	pos.POST("/returns", returnHandler.CreateReturn)
	pos.GET("/returns", returnHandler.GetReturns)
	pos.GET("/returns/:id", returnHandler.GetReturn)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.GET("/returns", returnHandler.GetReturns)
	admin.PUT("/returns/:id/approve", returnHandler.ApproveReturn)
	admin.PUT("/returns/:id/reject", returnHandler.RejectReturn)

	return r
}

// setupBranchRouter sets up branch routes for branch handler tests.
func setupBranchRouter(db *gorm.DB) *gin.Engine {
	return setupBranchRouterWith(&BranchHandler{DB: db, Storage: newMockStorage()})
}

func setupBranchRouterWith(branchHandler *BranchHandler) *gin.Engine {
	r := gin.New()

	api := r.Group("/api")

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/branches", branchHandler.GetBranches)
	protected.GET("/branches/:id", branchHandler.GetBranch)

	super := api.Group("/admin")
	super.Use(middleware.AuthMiddleware())
	super.Use(middleware.SuperAdminMiddleware())
	super.POST("/branches", branchHandler.CreateBranch)
	super.PUT("/branches/:id", branchHandler.UpdateBranch)
	super.DELETE("/branches/:id", branchHandler.DeleteBranch)
	super.POST("/branches/:id/logo", branchHandler.UploadLogo)

	return r
}

// setupShiftRouter sets up shift routes for shift handler tests.
func setupShiftRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	shiftHandler := &ShiftHandler{DB: db}

	api := r.Group("/api")

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.POST("/shifts/start", middleware.BranchScope(), shiftHandler.StartShift)
	protected.POST("/shifts/end", shiftHandler.EndShift)
	protected.GET("/shifts/current", shiftHandler.GetCurrentShift)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.GET("/shifts", shiftHandler.GetShifts)
	admin.GET("/shifts/summary", shiftHandler.GetShiftSummary)

	return r
}

// setupDeliveryRouter sets up delivery location routes for delivery handler tests.
func setupDeliveryRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	deliveryHandler := &DeliveryHandler{DB: db}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.GET("/delivery/locations", deliveryHandler.GetLocationChildren)
	admin.GET("/delivery/tree", deliveryHandler.GetLocationTree)
	admin.POST("/delivery/locations", deliveryHandler.CreateLocation)
	admin.PUT("/delivery/locations/:id", deliveryHandler.UpdateLocation)
	admin.DELETE("/delivery/locations/:id", deliveryHandler.DeleteLocation)
	admin.POST("/delivery/locations/:id/prices", deliveryHandler.SetPrice)
	admin.GET("/delivery/locations/:id/price", deliveryHandler.ResolvePrice)

	return r
}

// setupPurchaseRouter sets up purchase and supplier routes for purchase handler tests.
func setupPurchaseRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	purchaseHandler := &PurchaseHandler{DB: db}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.POST("/purchases", purchaseHandler.CreatePurchase)
	admin.GET("/purchases", purchaseHandler.GetPurchases)
	admin.GET("/purchases/:id", purchaseHandler.GetPurchase)
	admin.GET("/suppliers", purchaseHandler.GetSuppliers)
	admin.POST("/suppliers", purchaseHandler.CreateSupplier)
	admin.PUT("/suppliers/:id/pay", purchaseHandler.PaySupplier)

	return r
}

// setupCashRouter sets up cash ledger routes for cash handler tests.
func setupCashRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	cashHandler := &CashHandler{DB: db}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.POST("/cash/transactions", cashHandler.RecordTransaction)
	admin.GET("/cash/transactions", cashHandler.GetTransactions)
	admin.GET("/cash/summary", cashHandler.GetDailySummary)
	admin.GET("/cash/balance", cashHandler.GetBalance)

	return r
}

// setupReportRouter sets up reporting routes for report handler tests.
func setupReportRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	reportHandler := &ReportHandler{DB: db}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	admin.GET("/reports/summary", reportHandler.GetSalesSummary)
	admin.GET("/reports/top-products", reportHandler.GetTopProducts)
	admin.GET("/reports/by-customer", reportHandler.GetSalesByCustomer)
	admin.GET("/reports/heatmap", reportHandler.GetSalesHeatmap)
	admin.GET("/reports/dashboard", reportHandler.GetDashboard)

	return r
}

// ==================== Request Helpers ====================

// jsonRequest creates an HTTP request with JSON body.
func jsonRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// authRequest creates an HTTP request with JSON body and Authorization header.
func authRequest(method, url string, body interface{}, token string) *http.Request {
	req := jsonRequest(method, url, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// multipartRequest creates a multipart form request with the given fields and
// file uploads. files maps form field names to filenames; fileData is written
// as the content of every file part with the given content type. token is the
// JWT for the Authorization header (pass "" to skip).
func multipartRequest(method, url string, fields map[string]string, files map[string]string, fileData []byte, contentType, token string) *http.Request {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, val := range fields {
		_ = writer.WriteField(key, val)
	}

	for fieldName, filename := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, filename))
		h.Set("Content-Type", contentType)

		part, err := writer.CreatePart(h)
		if err != nil {
			panic("failed to create multipart file part: " + err.Error())
		}
		part.Write(fileData)
	}

	writer.Close()

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ==================== Response Helpers ====================

// parseResponse reads the response body into a map.
func parseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// parseResponseArray reads a top-level JSON array response.
func parseResponseArray(w *httptest.ResponseRecorder) []map[string]interface{} {
	var result []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}
