package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"matjar-backend/middleware"
	"matjar-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShiftHandler struct {
	DB *gorm.DB
}

// StartShift opens a shift for the caller. One open shift per user.
func (h *ShiftHandler) StartShift(c *gin.Context) {
	userID, _ := c.Get("user_id")

	branchID, ok := middleware.ScopedBranchID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "branch_id is required"})
		return
	}

	var open models.Shift
	if err := h.DB.Where("user_id = ? AND ended_at IS NULL", userID).First(&open).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "You already have an open shift"})
		return
	}

	shift := models.Shift{
		ID:        uuid.New(),
		UserID:    userID.(uuid.UUID),
		BranchID:  branchID,
		StartedAt: time.Now(),
	}
	if err := h.DB.Create(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start shift"})
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// EndShift closes the caller's open shift and records the hours worked.
func (h *ShiftHandler) EndShift(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var shift models.Shift
	if err := h.DB.Where("user_id = ? AND ended_at IS NULL", userID).First(&shift).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No open shift found"})
		return
	}

	shift.Close(time.Now())
	if err := h.DB.Save(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end shift"})
		return
	}
	c.JSON(http.StatusOK, shift)
}

// GetCurrentShift returns the caller's open shift, if any.
func (h *ShiftHandler) GetCurrentShift(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var shift models.Shift
	if err := h.DB.Where("user_id = ? AND ended_at IS NULL", userID).First(&shift).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No open shift"})
		return
	}
	c.JSON(http.StatusOK, shift)
}

// GetShifts lists shifts for payroll review, branch scoped.
func (h *ShiftHandler) GetShifts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Shift{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("started_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("started_at < ?", t.Add(24*time.Hour))
		}
	}

	var total int64
	query.Count(&total)

	var shifts []models.Shift
	if err := query.Preload("User").Order("started_at DESC").Offset(offset).Limit(limit).Find(&shifts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shifts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shifts": shifts,
		"total":  total,
		"page":   page,
		"limit":  limit,
		"pages":  int(math.Ceil(float64(total) / float64(limit))),
	})
}

// GetShiftSummary totals hours per employee over a date range.
func (h *ShiftHandler) GetShiftSummary(c *gin.Context) {
	query := h.DB.Model(&models.Shift{}).Where("ended_at IS NOT NULL")
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ?", branchID)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("started_at >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			query = query.Where("started_at < ?", t.Add(24*time.Hour))
		}
	}

	type userHours struct {
		UserID     uuid.UUID `json:"user_id"`
		TotalHours float64   `json:"total_hours"`
		ShiftCount int64     `json:"shift_count"`
	}
	var summary []userHours
	if err := query.Select("user_id, COALESCE(SUM(hours_worked), 0) as total_hours, COUNT(*) as shift_count").
		Group("user_id").Scan(&summary).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
