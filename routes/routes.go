package routes

import (
	"time"

	"matjar-backend/firebase"
	"matjar-backend/handlers"
	"matjar-backend/middleware"
	"matjar-backend/realtime"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB, storage firebase.StorageClient, broker *realtime.Broker) {
	// Initialize handlers
	authHandler := &handlers.AuthHandler{DB: db}
	productHandler := &handlers.ProductHandler{DB: db, Storage: storage}
	categoryHandler := &handlers.CategoryHandler{DB: db}
	customerHandler := &handlers.CustomerHandler{DB: db}
	saleHandler := &handlers.SaleHandler{DB: db, Broker: broker}
	returnHandler := &handlers.ReturnHandler{DB: db, Broker: broker}
	branchHandler := &handlers.BranchHandler{DB: db, Storage: storage}
	shiftHandler := &handlers.ShiftHandler{DB: db}
	deliveryHandler := &handlers.DeliveryHandler{DB: db}
	purchaseHandler := &handlers.PurchaseHandler{DB: db}
	cashHandler := &handlers.CashHandler{DB: db}
	reportHandler := &handlers.ReportHandler{DB: db}
	eventsHandler := &handlers.EventsHandler{DB: db, Broker: broker}
	invoiceHandler := &handlers.InvoiceHandler{DB: db}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/login", loginLimiter.Middleware(), authHandler.Login)
	api.POST("/auth/refresh", authHandler.RefreshTokenHandler)

	// Authenticated routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", authHandler.GetProfile)
		protected.PUT("/auth/profile", authHandler.UpdateProfile)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		// Shifts: any staff member manages their own shift
		protected.POST("/shifts/start", middleware.BranchScope(), shiftHandler.StartShift)
		protected.POST("/shifts/end", shiftHandler.EndShift)
		protected.GET("/shifts/current", shiftHandler.GetCurrentShift)

		// Realtime notifications
		protected.GET("/events", middleware.BranchScope(), eventsHandler.Stream)
	}

	// POS routes: cashier or above, always branch scoped
	pos := api.Group("/pos")
	pos.Use(middleware.AuthMiddleware())
	pos.Use(middleware.CashierMiddleware())
	pos.Use(middleware.BranchScope())
	{
		pos.GET("/products", productHandler.GetProducts)
		pos.GET("/products/barcode/:barcode", productHandler.GetProductByBarcode)
		pos.GET("/customers", customerHandler.GetCustomers)
		pos.GET("/customers/phone/:phone", customerHandler.LookupByPhone)
		pos.POST("/customers", customerHandler.CreateCustomer)

		pos.POST("/sales", saleHandler.Checkout)
		pos.GET("/sales", saleHandler.GetSales)
		pos.GET("/sales/:id", saleHandler.GetSale)
		pos.PUT("/sales/:id/status", saleHandler.UpdateStatus)
		pos.GET("/sales/:id/invoice.pdf", invoiceHandler.GetInvoicePDF)
		pos.GET("/sales/:id/barcode.png", invoiceHandler.GetInvoiceBarcode)

		pos.POST("/returns", returnHandler.CreateReturn)
		pos.GET("/returns", returnHandler.GetReturns)
		pos.GET("/returns/:id", returnHandler.GetReturn)
	}

	// Admin routes: back-office management
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.AdminMiddleware())
	admin.Use(middleware.BranchScope())
	{
		// Staff management
		admin.POST("/users", authHandler.CreateUser)
		admin.GET("/users", authHandler.ListUsers)
		admin.GET("/users/:id", authHandler.GetUser)
		admin.PUT("/users/:id", authHandler.UpdateUser)

		// Catalog
		admin.GET("/products", productHandler.GetProducts)
		admin.GET("/products/:id", productHandler.GetProduct)
		admin.POST("/products", productHandler.CreateProduct)
		admin.PUT("/products/:id", productHandler.UpdateProduct)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)
		admin.GET("/products/:id/variants", productHandler.GetProductVariants)
		admin.POST("/products/:id/images", productHandler.UploadProductImage)
		admin.DELETE("/products/:id/images/:imageId", productHandler.DeleteProductImage)
		admin.GET("/products/:id/barcode.png", invoiceHandler.GetProductBarcode)

		// Spreadsheet import
		admin.POST("/imports/products", productHandler.ImportProducts)
		admin.GET("/imports/:id", productHandler.GetImportJobStatus)

		// Categories, subcategories, companies
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

		// Customers
		admin.GET("/customers", customerHandler.GetCustomers)
		admin.GET("/customers/:id", customerHandler.GetCustomer)
		admin.POST("/customers", customerHandler.CreateCustomer)
		admin.PUT("/customers/:id", customerHandler.UpdateCustomer)
		admin.DELETE("/customers/:id", customerHandler.DeleteCustomer)
		admin.GET("/customers/:id/sales", customerHandler.GetCustomerSales)

		// Sales oversight
		admin.GET("/sales", saleHandler.GetSales)
		admin.GET("/sales/:id", saleHandler.GetSale)
		admin.PUT("/sales/:id/status", saleHandler.UpdateStatus)
		admin.GET("/sales/:id/invoice.pdf", invoiceHandler.GetInvoicePDF)

		// Returns approval
		admin.GET("/returns", returnHandler.GetReturns)
		admin.GET("/returns/:id", returnHandler.GetReturn)
		admin.PUT("/returns/:id/approve", returnHandler.ApproveReturn)
		admin.PUT("/returns/:id/reject", returnHandler.RejectReturn)

		// Shifts
		admin.GET("/shifts", shiftHandler.GetShifts)
		admin.GET("/shifts/summary", shiftHandler.GetShiftSummary)

		// Delivery locations and pricing
		admin.GET("/delivery/locations", deliveryHandler.GetLocationChildren)
		admin.GET("/delivery/tree", deliveryHandler.GetLocationTree)
		admin.POST("/delivery/locations", deliveryHandler.CreateLocation)
		admin.PUT("/delivery/locations/:id", deliveryHandler.UpdateLocation)
		admin.DELETE("/delivery/locations/:id", deliveryHandler.DeleteLocation)
		admin.POST("/delivery/locations/:id/prices", deliveryHandler.SetPrice)
		admin.GET("/delivery/locations/:id/price", deliveryHandler.ResolvePrice)

		// Purchases and suppliers
		admin.POST("/purchases", purchaseHandler.CreatePurchase)
		admin.GET("/purchases", purchaseHandler.GetPurchases)
		admin.GET("/purchases/:id", purchaseHandler.GetPurchase)
		admin.GET("/suppliers", purchaseHandler.GetSuppliers)
		admin.POST("/suppliers", purchaseHandler.CreateSupplier)
		admin.PUT("/suppliers/:id/pay", purchaseHandler.PaySupplier)

		// Cash ledger
		admin.POST("/cash/transactions", cashHandler.RecordTransaction)
		admin.GET("/cash/transactions", cashHandler.GetTransactions)
		admin.GET("/cash/summary", cashHandler.GetDailySummary)
		admin.GET("/cash/balance", cashHandler.GetBalance)

		// Reports
		admin.GET("/reports/summary", reportHandler.GetSalesSummary)
		admin.GET("/reports/top-products", reportHandler.GetTopProducts)
		admin.GET("/reports/by-customer", reportHandler.GetSalesByCustomer)
		admin.GET("/reports/heatmap", reportHandler.GetSalesHeatmap)
		admin.GET("/reports/dashboard", reportHandler.GetDashboard)
	}

	// Super admin routes: branch lifecycle
	super := api.Group("/admin")
	super.Use(middleware.AuthMiddleware())
	super.Use(middleware.SuperAdminMiddleware())
	{
		super.POST("/branches", branchHandler.CreateBranch)
		super.PUT("/branches/:id", branchHandler.UpdateBranch)
		super.DELETE("/branches/:id", branchHandler.DeleteBranch)
		super.POST("/branches/:id/logo", branchHandler.UploadLogo)
	}

	// Branch listing is available to any authenticated staff member
	protected.GET("/branches", branchHandler.GetBranches)
	protected.GET("/branches/:id", branchHandler.GetBranch)
}
