package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/realtime"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReturnHandler struct {
	DB     *gorm.DB
	Broker *realtime.Broker
}

type returnItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"required,gt=0"`
}

// CreateReturn opens a pending return against a sale. Quantities are capped
// at what was sold minus what earlier approved returns already gave back.
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	var req struct {
		SaleID uuid.UUID           `json:"sale_id" binding:"required"`
		Items  []returnItemRequest `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var sale models.Sale
	if err := h.DB.Preload("Items").Where("id = ?", req.SaleID).First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	if branchID, ok := middleware.ScopedBranchID(c); ok && sale.BranchID != branchID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	if sale.Status == models.SaleStatusCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot return items from a cancelled sale"})
		return
	}

	// Sold quantity per product on this sale
	soldByProduct := make(map[uuid.UUID]*models.SaleItem)
	for i := range sale.Items {
		soldByProduct[sale.Items[i].ProductID] = &sale.Items[i]
	}

	// Quantities already approved for return on this sale
	returnedByProduct := make(map[uuid.UUID]float64)
	var priorItems []models.ReturnItem
	h.DB.Joins("JOIN return_orders ON return_orders.id = return_items.return_order_id").
		Where("return_orders.sale_id = ? AND return_orders.status = ?", sale.ID, models.ReturnStatusApproved).
		Find(&priorItems)
	for _, item := range priorItems {
		returnedByProduct[item.ProductID] += item.Quantity
	}

	var items []models.ReturnItem
	var lineTotals []float64
	for _, reqItem := range req.Items {
		sold, ok := soldByProduct[reqItem.ProductID]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product was not part of this sale"})
			return
		}
		remaining := sold.Quantity - returnedByProduct[reqItem.ProductID]
		if reqItem.Quantity > remaining {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(
				"Cannot return %.3f of %q: only %.3f remaining", reqItem.Quantity, sold.ProductName, remaining)})
			return
		}

		// Refund at the price actually paid
		lineTotal := utils.LineTotal(reqItem.Quantity, sold.UnitPrice, 0)
		items = append(items, models.ReturnItem{
			ProductID:   reqItem.ProductID,
			ProductName: sold.ProductName,
			Quantity:    reqItem.Quantity,
			UnitPrice:   sold.UnitPrice,
			LineTotal:   lineTotal,
		})
		lineTotals = append(lineTotals, lineTotal)
	}

	userID, _ := c.Get("user_id")

	returnOrder := models.ReturnOrder{
		ID:            uuid.New(),
		SaleID:        sale.ID,
		BranchID:      sale.BranchID,
		Status:        models.ReturnStatusPending,
		RefundTotal:   utils.SumLines(lineTotals),
		RequestedByID: userID.(uuid.UUID),
		Items:         items,
	}

	if err := h.DB.Create(&returnOrder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create return"})
		return
	}

	h.Broker.Publish(realtime.Event{
		Type:     "new_return",
		BranchID: sale.BranchID,
		Payload: gin.H{
			"return_id":      returnOrder.ID,
			"sale_id":        sale.ID,
			"invoice_number": sale.InvoiceNumber,
			"refund_total":   returnOrder.RefundTotal,
		},
	})

	c.JSON(http.StatusCreated, returnOrder)
}

func (h *ReturnHandler) GetReturns(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.ReturnOrder{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var returns []models.ReturnOrder
	if err := query.Preload("Items").Preload("Sale").Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&returns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch returns"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"returns": returns,
		"total":   total,
		"page":    page,
		"limit":   limit,
		"pages":   int(math.Ceil(float64(total) / float64(limit))),
	})
}

func (h *ReturnHandler) GetReturn(c *gin.Context) {
	id := c.Param("id")

	var returnOrder models.ReturnOrder
	if err := h.DB.Preload("Items").Preload("Sale").Where("id = ?", id).First(&returnOrder).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		return
	}

	if branchID, ok := middleware.ScopedBranchID(c); ok && returnOrder.BranchID != branchID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		return
	}

	c.JSON(http.StatusOK, returnOrder)
}

// ApproveReturn restocks the items and pays the refund out of the branch
// cash drawer, all in one transaction.
func (h *ReturnHandler) ApproveReturn(c *gin.Context) {
	id := c.Param("id")
	userID, _ := c.Get("user_id")

	var returnOrder models.ReturnOrder
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").Where("id = ?", id).First(&returnOrder).Error; err != nil {
			return fmt.Errorf("return not found")
		}

		if !models.IsValidReturnTransition(returnOrder.Status, models.ReturnStatusApproved) {
			return fmt.Errorf("cannot approve a %s return", returnOrder.Status)
		}

		var sale models.Sale
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Items").Where("id = ?", returnOrder.SaleID).First(&sale).Error; err != nil {
			return fmt.Errorf("sale not found")
		}
		if sale.Status == models.SaleStatusCancelled {
			return fmt.Errorf("cannot approve a return against a cancelled sale")
		}

		// The creation-time ceiling only counts returns approved back then;
		// overlapping pending returns must not each pass approval. Recompute
		// the remaining quantities under the sale lock.
		soldByProduct := make(map[uuid.UUID]float64)
		for _, item := range sale.Items {
			soldByProduct[item.ProductID] = item.Quantity
		}
		approvedByProduct := make(map[uuid.UUID]float64)
		var priorItems []models.ReturnItem
		if err := tx.Joins("JOIN return_orders ON return_orders.id = return_items.return_order_id").
			Where("return_orders.sale_id = ? AND return_orders.status = ? AND return_orders.id != ?",
				sale.ID, models.ReturnStatusApproved, returnOrder.ID).
			Find(&priorItems).Error; err != nil {
			return err
		}
		for _, item := range priorItems {
			approvedByProduct[item.ProductID] += item.Quantity
		}
		for _, item := range returnOrder.Items {
			remaining := soldByProduct[item.ProductID] - approvedByProduct[item.ProductID]
			if item.Quantity > remaining {
				return fmt.Errorf("cannot approve: only %.3f of %q remaining to return", remaining, item.ProductName)
			}
		}

		for _, item := range returnOrder.Items {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", item.ProductID).First(&product).Error; err != nil {
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

		if returnOrder.RefundTotal > 0 {
			if err := recordCashMovement(tx, returnOrder.BranchID, models.CashTypeRefund,
				-returnOrder.RefundTotal, sale.InvoiceNumber, "return approved", userID.(uuid.UUID)); err != nil {
				return err
			}
		}

		return tx.Model(&returnOrder).Update("status", models.ReturnStatusApproved).Error
	})

	if err != nil {
		status := http.StatusBadRequest
		if err.Error() == "return not found" {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.Broker.Publish(realtime.Event{
		Type:     "return_status",
		BranchID: returnOrder.BranchID,
		Payload: gin.H{
			"return_id": returnOrder.ID,
			"status":    models.ReturnStatusApproved,
		},
	})

	returnOrder.Status = models.ReturnStatusApproved
	c.JSON(http.StatusOK, returnOrder)
}

// RejectReturn closes a return without touching stock or cash. A reason is
// mandatory so the customer-facing record explains itself.
func (h *ReturnHandler) RejectReturn(c *gin.Context) {
	id := c.Param("id")

	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required"})
		return
	}

	var returnOrder models.ReturnOrder
	if err := h.DB.Where("id = ?", id).First(&returnOrder).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Return not found"})
		return
	}

	if !models.IsValidReturnTransition(returnOrder.Status, models.ReturnStatusRejected) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot reject a %s return", returnOrder.Status)})
		return
	}

	updates := map[string]interface{}{
		"status":           models.ReturnStatusRejected,
		"rejection_reason": req.Reason,
	}
	if err := h.DB.Model(&returnOrder).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject return"})
		return
	}

	h.Broker.Publish(realtime.Event{
		Type:     "return_status",
		BranchID: returnOrder.BranchID,
		Payload: gin.H{
			"return_id": returnOrder.ID,
			"status":    models.ReturnStatusRejected,
			"reason":    req.Reason,
		},
	})

	returnOrder.Status = models.ReturnStatusRejected
	returnOrder.RejectionReason = req.Reason
	c.JSON(http.StatusOK, returnOrder)
}
