package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseHandler struct {
	DB *gorm.DB
}

type purchaseItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"required,gt=0"`
	UnitCost  float64   `json:"unit_cost" binding:"required,gt=0"`
}

// CreatePurchase receives supplier stock: increments inventory, updates the
// supplier balance, and books any cash paid, in one transaction.
func (h *PurchaseHandler) CreatePurchase(c *gin.Context) {
	var req struct {
		BranchID      *uuid.UUID            `json:"branch_id"`
		SupplierID    uuid.UUID             `json:"supplier_id" binding:"required"`
		InvoiceNumber string                `json:"invoice_number"`
		PaidAmount    float64               `json:"paid_amount"`
		PayFromCash   bool                  `json:"pay_from_cash"`
		Items         []purchaseItemRequest `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	branchID, ok := middleware.ScopedBranchID(c)
	if !ok {
		if req.BranchID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
			return
		}
		branchID = *req.BranchID
	}

	if req.PaidAmount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paid_amount cannot be negative"})
		return
	}

	userID, _ := c.Get("user_id")

	var purchase models.Purchase
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var supplier models.Supplier
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", req.SupplierID).First(&supplier).Error; err != nil {
			return fmt.Errorf("supplier not found")
		}

		var items []models.PurchaseItem
		var lineTotals []float64
		for _, reqItem := range req.Items {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", reqItem.ProductID).First(&product).Error; err != nil {
				return fmt.Errorf("product %s not found", reqItem.ProductID)
			}

			// Received stock lands on the pool the product actually draws from
			stockID := product.ID
			if product.ParentID != nil && product.SharesParentStock {
				stockID = *product.ParentID
			}
			if err := tx.Model(&models.Product{}).Where("id = ?", stockID).
				Update("stock_quantity", gorm.Expr("stock_quantity + ?", reqItem.Quantity)).Error; err != nil {
				return err
			}
			// Keep the latest cost on the product
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
				Update("purchase_price", reqItem.UnitCost).Error; err != nil {
				return err
			}

			lineTotal := utils.LineTotal(reqItem.Quantity, reqItem.UnitCost, 0)
			items = append(items, models.PurchaseItem{
				ProductID: product.ID,
				Quantity:  reqItem.Quantity,
				UnitCost:  reqItem.UnitCost,
				LineTotal: lineTotal,
			})
			lineTotals = append(lineTotals, lineTotal)
		}

		total := utils.SumLines(lineTotals)
		if req.PaidAmount > total {
			return fmt.Errorf("paid amount %.2f exceeds purchase total %.2f", req.PaidAmount, total)
		}

		purchase = models.Purchase{
			ID:            uuid.New(),
			BranchID:      branchID,
			SupplierID:    supplier.ID,
			InvoiceNumber: req.InvoiceNumber,
			Total:         total,
			PaidAmount:    req.PaidAmount,
			Items:         items,
			CreatedByID:   userID.(uuid.UUID),
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		// Outstanding remainder goes onto the supplier balance
		outstanding := utils.RoundMoney(total - req.PaidAmount)
		if outstanding > 0 {
			if err := tx.Model(&supplier).
				Update("balance", gorm.Expr("balance + ?", outstanding)).Error; err != nil {
				return err
			}
		}

		if req.PaidAmount > 0 && req.PayFromCash {
			if err := recordCashMovement(tx, branchID, models.CashTypePurchase, -req.PaidAmount,
				req.InvoiceNumber, "supplier payment", userID.(uuid.UUID)); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

func (h *PurchaseHandler) GetPurchases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Purchase{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	if supplierID := c.Query("supplier_id"); supplierID != "" {
		query = query.Where("supplier_id = ?", supplierID)
	}

	var total int64
	query.Count(&total)

	var purchases []models.Purchase
	if err := query.Preload("Supplier").Preload("Items").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&purchases).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"total":     total,
		"page":      page,
		"limit":     limit,
		"pages":     int(math.Ceil(float64(total) / float64(limit))),
	})
}

func (h *PurchaseHandler) GetPurchase(c *gin.Context) {
	id := c.Param("id")

	var purchase models.Purchase
	if err := h.DB.Preload("Supplier").Preload("Items").Where("id = ?", id).First(&purchase).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Purchase not found"})
		return
	}
	c.JSON(http.StatusOK, purchase)
}

func (h *PurchaseHandler) GetSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	query := h.DB.Order("name ASC")
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}
	if err := query.Find(&suppliers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch suppliers"})
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *PurchaseHandler) CreateSupplier(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	supplier := models.Supplier{ID: uuid.New(), Name: req.Name, Phone: req.Phone}
	if err := h.DB.Create(&supplier).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create supplier"})
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

// PaySupplier settles part of a supplier's outstanding balance.
func (h *PurchaseHandler) PaySupplier(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		BranchID    *uuid.UUID `json:"branch_id"`
		Amount      float64    `json:"amount" binding:"required,gt=0"`
		PayFromCash bool       `json:"pay_from_cash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	userID, _ := c.Get("user_id")

	var supplier models.Supplier
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&supplier).Error; err != nil {
			return fmt.Errorf("supplier not found")
		}
		if req.Amount > supplier.Balance {
			return fmt.Errorf("payment %.2f exceeds outstanding balance %.2f", req.Amount, supplier.Balance)
		}

		if err := tx.Model(&supplier).
			Update("balance", gorm.Expr("balance - ?", req.Amount)).Error; err != nil {
			return err
		}

		if req.PayFromCash {
			branchID, ok := middleware.ScopedBranchID(c)
			if !ok {
				if req.BranchID == nil {
					return fmt.Errorf("branch_id is required to pay from cash")
				}
				branchID = *req.BranchID
			}
			return recordCashMovement(tx, branchID, models.CashTypePurchase, -req.Amount,
				"", "supplier balance payment: "+supplier.Name, userID.(uuid.UUID))
		}
		return nil
	})

	if err != nil {
		status := http.StatusBadRequest
		if err.Error() == "supplier not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.DB.Where("id = ?", id).First(&supplier)
	c.JSON(http.StatusOK, supplier)
}
