package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/realtime"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaleHandler struct {
	DB     *gorm.DB
	Broker *realtime.Broker
}

type saleItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"required,gt=0"`
	Discount  float64   `json:"discount"`
}

type checkoutRequest struct {
	BranchID      *uuid.UUID        `json:"branch_id"`
	CustomerID    *uuid.UUID        `json:"customer_id"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	Items         []saleItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount      float64           `json:"discount"`
	PaymentMethod string            `json:"payment_method"`
	CashAmount    float64           `json:"cash_amount"`
	CardAmount    float64           `json:"card_amount"`
}

// Checkout is the POS sale flow: price each line, decrement stock, write the
// invoice and the cash ledger entry in one transaction, then notify listeners.
func (h *SaleHandler) Checkout(c *gin.Context) {
	var req checkoutRequest
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

	if req.PaymentMethod == "" {
		req.PaymentMethod = models.PaymentCash
	}
	switch req.PaymentMethod {
	case models.PaymentCash, models.PaymentCard, models.PaymentSplit:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method"})
		return
	}

	userID, _ := c.Get("user_id")
	cashierID := userID.(uuid.UUID)

	customerName := req.CustomerName
	customerPhone := req.CustomerPhone
	if req.CustomerID != nil {
		var customer models.Customer
		if err := h.DB.Where("id = ?", req.CustomerID).First(&customer).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Customer not found"})
			return
		}
		customerName = customer.Name
		customerPhone = customer.Phone
	}

	var sale models.Sale

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		var branch models.Branch
		if err := tx.Where("id = ?", branchID).First(&branch).Error; err != nil {
			return fmt.Errorf("branch not found")
		}
		if !branch.IsActive {
			return fmt.Errorf("branch %q is deactivated", branch.Name)
		}

		var items []models.SaleItem
		var lineTotals []float64

		for _, reqItem := range req.Items {
			// Lock the product row so concurrent checkouts cannot oversell
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", reqItem.ProductID).First(&product).Error; err != nil {
				return fmt.Errorf("product %s not found", reqItem.ProductID)
			}
			if product.Status != "active" {
				return fmt.Errorf("product %q is not available for sale", product.Name)
			}
			if !product.SoldByWeight && reqItem.Quantity != math.Trunc(reqItem.Quantity) {
				return fmt.Errorf("product %q is sold in whole units", product.Name)
			}

			// Variants flagged to share stock draw from the parent's pool
			stockProduct := &product
			var parent models.Product
			if product.ParentID != nil && product.SharesParentStock {
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("id = ?", product.ParentID).First(&parent).Error; err != nil {
					return fmt.Errorf("parent product for %q not found", product.Name)
				}
				stockProduct = &parent
			}

			if stockProduct.StockQuantity < reqItem.Quantity {
				return fmt.Errorf("insufficient stock for %q: %.3f available", product.Name, stockProduct.StockQuantity)
			}

			if err := tx.Model(&models.Product{}).Where("id = ?", stockProduct.ID).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", reqItem.Quantity)).Error; err != nil {
				return err
			}

			unitPrice := product.EffectivePrice(reqItem.Quantity)
			lineTotal := utils.LineTotal(reqItem.Quantity, unitPrice, reqItem.Discount)
			if lineTotal < 0 {
				return fmt.Errorf("discount on %q exceeds the line total", product.Name)
			}

			items = append(items, models.SaleItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    reqItem.Quantity,
				UnitPrice:   unitPrice,
				Discount:    reqItem.Discount,
				LineTotal:   lineTotal,
			})
			lineTotals = append(lineTotals, lineTotal)
		}

		subtotal := utils.SumLines(lineTotals)
		if req.Discount < 0 || req.Discount > subtotal {
			return fmt.Errorf("invalid invoice discount")
		}
		total := utils.ApplyDiscount(subtotal, req.Discount)

		cashAmount, cardAmount := req.CashAmount, req.CardAmount
		switch req.PaymentMethod {
		case models.PaymentCash:
			cashAmount, cardAmount = total, 0
		case models.PaymentCard:
			cashAmount, cardAmount = 0, total
		case models.PaymentSplit:
			if utils.RoundMoney(cashAmount+cardAmount) != total {
				return fmt.Errorf("split payment must add up to the total: %.2f cash + %.2f card != %.2f", cashAmount, cardAmount, total)
			}
		}

		sale = models.Sale{
			ID:            uuid.New(),
			BranchID:      branchID,
			CashierID:     cashierID,
			CustomerID:    req.CustomerID,
			CustomerName:  customerName,
			CustomerPhone: customerPhone,
			Status:        models.SaleStatusPending,
			Subtotal:      subtotal,
			Discount:      req.Discount,
			Total:         total,
			PaymentMethod: req.PaymentMethod,
			CashAmount:    cashAmount,
			CardAmount:    cardAmount,
			Items:         items,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if cashAmount > 0 {
			if err := recordCashMovement(tx, branchID, models.CashTypeSale, cashAmount, sale.InvoiceNumber, "", cashierID); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.Broker.Publish(realtime.Event{
		Type:     "new_sale",
		BranchID: branchID,
		Payload: gin.H{
			"sale_id":        sale.ID,
			"invoice_number": sale.InvoiceNumber,
			"total":          sale.Total,
			"customer_name":  sale.CustomerName,
			"created_at":     sale.CreatedAt,
		},
	})

	c.JSON(http.StatusCreated, sale)
}

func (h *SaleHandler) GetSales(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Sale{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if invoice := c.Query("invoice"); invoice != "" {
		query = query.Where("invoice_number = ?", invoice)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("created_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("created_at < ?", t.Add(24*time.Hour))
		}
	}

	var total int64
	query.Count(&total)

	var sales []models.Sale
	if err := query.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sales": sales,
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": int(math.Ceil(float64(total) / float64(limit))),
	})
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	id := c.Param("id")

	var sale models.Sale
	if err := h.DB.Preload("Items").Preload("Cashier").Where("id = ?", id).First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	if branchID, ok := middleware.ScopedBranchID(c); ok && sale.BranchID != branchID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	c.JSON(http.StatusOK, sale)
}

// UpdateStatus moves a sale along the fulfillment state machine. Invalid
// transitions are rejected server-side regardless of what the client shows.
func (h *SaleHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Status models.SaleStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var sale models.Sale
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").Where("id = ?", id).First(&sale).Error; err != nil {
			return fmt.Errorf("sale not found")
		}

		if !models.IsValidSaleTransition(sale.Status, req.Status) {
			return fmt.Errorf("cannot transition sale from %s to %s", sale.Status, req.Status)
		}

		if req.Status == models.SaleStatusCancelled {
			// An approved return already gave back part of the stock and cash;
			// cancelling on top would restock and refund those lines twice.
			var approvedReturns int64
			if err := tx.Model(&models.ReturnOrder{}).
				Where("sale_id = ? AND status = ?", sale.ID, models.ReturnStatusApproved).
				Count(&approvedReturns).Error; err != nil {
				return err
			}
			if approvedReturns > 0 {
				return fmt.Errorf("cannot cancel a sale with approved returns")
			}

			if err := restockSaleItems(tx, &sale); err != nil {
				return err
			}
			if sale.CashAmount > 0 {
				userID, _ := c.Get("user_id")
				if err := recordCashMovement(tx, sale.BranchID, models.CashTypeRefund, -sale.CashAmount,
					sale.InvoiceNumber, "sale cancelled", userID.(uuid.UUID)); err != nil {
					return err
				}
			}
		}

		return tx.Model(&sale).Update("status", req.Status).Error
	})

	if err != nil {
		status := http.StatusBadRequest
		if err.Error() == "sale not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.Broker.Publish(realtime.Event{
		Type:     "sale_status",
		BranchID: sale.BranchID,
		Payload: gin.H{
			"sale_id":        sale.ID,
			"invoice_number": sale.InvoiceNumber,
			"status":         req.Status,
		},
	})

	sale.Status = req.Status
	c.JSON(http.StatusOK, sale)
}

// restockSaleItems returns sold quantities to stock, honoring shared pools.
func restockSaleItems(tx *gorm.DB, sale *models.Sale) error {
	for _, item := range sale.Items {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", item.ProductID).First(&product).Error; err != nil {
			// Product was hard-removed; nothing to restock
			continue
		}

		stockID := product.ID
		if product.ParentID != nil && product.SharesParentStock {
			stockID = *product.ParentID
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", stockID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			return err
		}
	}
	return nil
}
