package handlers

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashHandler struct {
	DB *gorm.DB
}

// recordCashMovement applies a signed amount to a branch's cash balance and
// writes the matching ledger entry. Must run inside the caller's transaction;
// the branch row is locked so the running balance stays consistent under
// concurrent sales.
func recordCashMovement(tx *gorm.DB, branchID uuid.UUID, movementType string, amount float64, reference, note string, userID uuid.UUID) error {
	var branch models.Branch
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", branchID).First(&branch).Error; err != nil {
		return fmt.Errorf("branch not found: %v", err)
	}

	newBalance := utils.RoundMoney(branch.CashBalance + amount)
	if newBalance < 0 {
		return fmt.Errorf("insufficient cash balance: %.2f available, %.2f requested", branch.CashBalance, -amount)
	}

	if err := tx.Model(&branch).Update("cash_balance", newBalance).Error; err != nil {
		return err
	}

	entry := models.CashTransaction{
		BranchID:    branchID,
		Type:        movementType,
		Amount:      amount,
		Balance:     newBalance,
		Reference:   reference,
		Note:        note,
		CreatedByID: userID,
	}
	return tx.Create(&entry).Error
}

// RecordTransaction is the manual ledger endpoint (expenses, adjustments).
func (h *CashHandler) RecordTransaction(c *gin.Context) {
	var req struct {
		BranchID  uuid.UUID `json:"branch_id" binding:"required"`
		Type      string    `json:"type" binding:"required"`
		Amount    float64   `json:"amount" binding:"required"`
		Reference string    `json:"reference"`
		Note      string    `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	validTypes := map[string]bool{
		models.CashTypeExpense:    true,
		models.CashTypeAdjustment: true,
	}
	if !validTypes[req.Type] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Type must be expense or adjustment"})
		return
	}

	amount := req.Amount
	// Expenses are always cash out
	if req.Type == models.CashTypeExpense && amount > 0 {
		amount = -amount
	}

	userID, _ := c.Get("user_id")

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		return recordCashMovement(tx, req.BranchID, req.Type, amount, req.Reference, req.Note, userID.(uuid.UUID))
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var branch models.Branch
	h.DB.Where("id = ?", req.BranchID).First(&branch)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Transaction recorded",
		"balance": branch.CashBalance,
	})
}

func (h *CashHandler) GetTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.CashTransaction{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
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

	var transactions []models.CashTransaction
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&transactions).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"limit":        limit,
		"pages":        int(math.Ceil(float64(total) / float64(limit))),
	})
}

// GetDailySummary totals the ledger by type for one day.
func (h *CashHandler) GetDailySummary(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	query := h.DB.Model(&models.CashTransaction{}).Where("created_at >= ? AND created_at < ?", start, end)
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}

	type typeTotal struct {
		Type  string  `json:"type"`
		Total float64 `json:"total"`
		Count int64   `json:"count"`
	}
	var totals []typeTotal
	if err := query.Select("type, COALESCE(SUM(amount), 0) as total, COUNT(*) as count").
		Group("type").Scan(&totals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	net := 0.0
	for _, t := range totals {
		net += t.Total
	}

	c.JSON(http.StatusOK, gin.H{
		"date":      start.Format("2006-01-02"),
		"by_type":   totals,
		"net_total": utils.RoundMoney(net),
	})
}

// GetBalance reports a branch's current cash balance.
func (h *CashHandler) GetBalance(c *gin.Context) {
	branchID, ok := middleware.ScopedBranchID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}

	var branch models.Branch
	if err := h.DB.Where("id = ?", branchID).First(&branch).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"branch_id":    branch.ID,
		"cash_balance": branch.CashBalance,
	})
}
