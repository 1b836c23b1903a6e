package handlers

import (
	"net/http"
	"strconv"
	"time"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportHandler struct {
	DB *gorm.DB
}

// reportRange parses from/to query params, defaulting to the last 30 days.
func reportRange(c *gin.Context) (time.Time, time.Time) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			start = t
		}
	}
	if raw := c.Query("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			end = t.Add(24 * time.Hour)
		}
	}
	return start, end
}

func (h *ReportHandler) scopedSales(c *gin.Context, start, end time.Time) *gorm.DB {
	query := h.DB.Model(&models.Sale{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Where("status != ?", models.SaleStatusCancelled)
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	return query
}

// GetSalesSummary totals revenue, discounts, and invoice counts for a range.
func (h *ReportHandler) GetSalesSummary(c *gin.Context) {
	start, end := reportRange(c)

	var summary struct {
		TotalRevenue  float64 `json:"total_revenue"`
		TotalDiscount float64 `json:"total_discount"`
		TotalCash     float64 `json:"total_cash"`
		TotalCard     float64 `json:"total_card"`
		SaleCount     int64   `json:"sale_count"`
	}

	if err := h.scopedSales(c, start, end).
		Select("COALESCE(SUM(total), 0) as total_revenue, COALESCE(SUM(discount), 0) as total_discount, COALESCE(SUM(cash_amount), 0) as total_cash, COALESCE(SUM(card_amount), 0) as total_card, COUNT(*) as sale_count").
		Scan(&summary).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	// Refunds paid out over the same range
	refundQuery := h.DB.Model(&models.ReturnOrder{}).
		Where("status = ? AND updated_at >= ? AND updated_at < ?", models.ReturnStatusApproved, start, end)
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		refundQuery = refundQuery.Where("branch_id = ?", branchID)
	}
	var refundTotal float64
	refundQuery.Select("COALESCE(SUM(refund_total), 0)").Scan(&refundTotal)

	avgSale := 0.0
	if summary.SaleCount > 0 {
		avgSale = utils.RoundMoney(summary.TotalRevenue / float64(summary.SaleCount))
	}

	c.JSON(http.StatusOK, gin.H{
		"from":           start.Format("2006-01-02"),
		"to":             end.Format("2006-01-02"),
		"total_revenue":  summary.TotalRevenue,
		"total_discount": summary.TotalDiscount,
		"total_cash":     summary.TotalCash,
		"total_card":     summary.TotalCard,
		"sale_count":     summary.SaleCount,
		"average_sale":   avgSale,
		"refund_total":   refundTotal,
		"net_revenue":    utils.RoundMoney(summary.TotalRevenue - refundTotal),
	})
}

// GetTopProducts ranks products by quantity sold over a range.
func (h *ReportHandler) GetTopProducts(c *gin.Context) {
	start, end := reportRange(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	query := h.DB.Model(&models.SaleItem{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.created_at >= ? AND sales.created_at < ?", start, end).
		Where("sales.status != ?", models.SaleStatusCancelled)
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("sales.branch_id = ?", branchID)
	}

	type productRank struct {
		ProductID    uuid.UUID `json:"product_id"`
		ProductName  string    `json:"product_name"`
		QuantitySold float64   `json:"quantity_sold"`
		Revenue      float64   `json:"revenue"`
	}
	var ranking []productRank
	if err := query.
		Select("sale_items.product_id, sale_items.product_name, COALESCE(SUM(sale_items.quantity), 0) as quantity_sold, COALESCE(SUM(sale_items.line_total), 0) as revenue").
		Group("sale_items.product_id, sale_items.product_name").
		Order("quantity_sold DESC").Limit(limit).Scan(&ranking).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute ranking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"top_products": ranking})
}

// GetSalesByCustomer ranks registered customers by spend.
func (h *ReportHandler) GetSalesByCustomer(c *gin.Context) {
	start, end := reportRange(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	type customerRank struct {
		CustomerID   uuid.UUID `json:"customer_id"`
		CustomerName string    `json:"customer_name"`
		SaleCount    int64     `json:"sale_count"`
		TotalSpent   float64   `json:"total_spent"`
	}
	var ranking []customerRank
	if err := h.scopedSales(c, start, end).
		Where("customer_id IS NOT NULL").
		Select("customer_id, customer_name, COUNT(*) as sale_count, COALESCE(SUM(total), 0) as total_spent").
		Group("customer_id, customer_name").
		Order("total_spent DESC").Limit(limit).Scan(&ranking).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute ranking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"by_customer": ranking})
}

// GetSalesHeatmap buckets sales by weekday and hour. Bucketing happens in Go
// so the query stays portable across databases.
func (h *ReportHandler) GetSalesHeatmap(c *gin.Context) {
	start, end := reportRange(c)

	type saleStamp struct {
		CreatedAt time.Time
		Total     float64
	}
	var stamps []saleStamp
	if err := h.scopedSales(c, start, end).
		Select("created_at, total").Scan(&stamps).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	type bucket struct {
		Weekday int     `json:"weekday"` // 0 = Sunday
		Hour    int     `json:"hour"`
		Count   int     `json:"count"`
		Revenue float64 `json:"revenue"`
	}

	grid := make(map[[2]int]*bucket)
	for _, s := range stamps {
		key := [2]int{int(s.CreatedAt.Weekday()), s.CreatedAt.Hour()}
		b, ok := grid[key]
		if !ok {
			b = &bucket{Weekday: key[0], Hour: key[1]}
			grid[key] = b
		}
		b.Count++
		b.Revenue = utils.RoundMoney(b.Revenue + s.Total)
	}

	// Full 7x24 grid, quiet hours included, so clients can render it directly
	buckets := make([]bucket, 0, 7*24)
	for weekday := 0; weekday < 7; weekday++ {
		for hour := 0; hour < 24; hour++ {
			if b, ok := grid[[2]int{weekday, hour}]; ok {
				buckets = append(buckets, *b)
			} else {
				buckets = append(buckets, bucket{Weekday: weekday, Hour: hour})
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"heatmap": buckets})
}

// GetDashboard is the landing summary: today's trade plus inventory alerts.
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var today struct {
		Revenue   float64 `json:"revenue"`
		SaleCount int64   `json:"sale_count"`
	}
	h.scopedSales(c, todayStart, todayStart.Add(24*time.Hour)).
		Select("COALESCE(SUM(total), 0) as revenue, COUNT(*) as sale_count").Scan(&today)

	productQuery := h.DB.Model(&models.Product{}).Where("status = ?", "active")
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		productQuery = productQuery.Where("branch_id = ? OR branch_id IS NULL", branchID)
	}
	var lowStockCount int64
	productQuery.Where("stock_quantity <= reorder_level").Count(&lowStockCount)

	returnQuery := h.DB.Model(&models.ReturnOrder{}).Where("status = ?", models.ReturnStatusPending)
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		returnQuery = returnQuery.Where("branch_id = ?", branchID)
	}
	var pendingReturns int64
	returnQuery.Count(&pendingReturns)

	openShiftQuery := h.DB.Model(&models.Shift{}).Where("ended_at IS NULL")
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		openShiftQuery = openShiftQuery.Where("branch_id = ?", branchID)
	}
	var openShifts int64
	openShiftQuery.Count(&openShifts)

	c.JSON(http.StatusOK, gin.H{
		"today_revenue":   today.Revenue,
		"today_sales":     today.SaleCount,
		"low_stock_count": lowStockCount,
		"pending_returns": pendingReturns,
		"open_shifts":     openShifts,
	})
}
