package handlers

import (
	"math"
	"net/http"
	"strconv"

	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerHandler struct {
	DB *gorm.DB
}

func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.DB.Model(&models.Customer{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ? OR branch_id IS NULL", branchID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?) OR phone LIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	query.Count(&total)

	var customers []models.Customer
	if err := query.Preload("Location").Order("created_at DESC").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"total":     total,
		"page":      page,
		"limit":     limit,
		"pages":     int(math.Ceil(float64(total) / float64(limit))),
	})
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Preload("Location").Where("id = ?", id).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// LookupByPhone supports the POS flow of attaching a known customer by number.
func (h *CustomerHandler) LookupByPhone(c *gin.Context) {
	phone := c.Param("phone")

	var customer models.Customer
	if err := h.DB.Where("phone = ?", phone).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req struct {
		Name       string     `json:"name" binding:"required"`
		Phone      string     `json:"phone"`
		Email      string     `json:"email" binding:"omitempty,email"`
		Address    string     `json:"address"`
		LocationID *uuid.UUID `json:"location_id"`
		BranchID   *uuid.UUID `json:"branch_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Phone != "" {
		var existing models.Customer
		if err := h.DB.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this phone already exists"})
			return
		}
	}

	if req.LocationID != nil {
		var location models.DeliveryLocation
		if err := h.DB.Where("id = ?", req.LocationID).First(&location).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Delivery location not found"})
			return
		}
	}

	branchID := req.BranchID
	if branchID == nil {
		if scoped, ok := middleware.ScopedBranchID(c); ok {
			branchID = &scoped
		}
	}

	customer := models.Customer{
		ID:         uuid.New(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Address:    req.Address,
		LocationID: req.LocationID,
		BranchID:   branchID,
	}
	if err := h.DB.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var req struct {
		Name       *string    `json:"name"`
		Phone      *string    `json:"phone"`
		Email      *string    `json:"email" binding:"omitempty,email"`
		Address    *string    `json:"address"`
		LocationID *uuid.UUID `json:"location_id"`
		IsVerified *bool      `json:"is_verified"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Phone != nil && *req.Phone != "" && *req.Phone != customer.Phone {
		var existing models.Customer
		if err := h.DB.Where("phone = ? AND id != ?", *req.Phone, customer.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this phone already exists"})
			return
		}
	}
	if req.LocationID != nil {
		var location models.DeliveryLocation
		if err := h.DB.Where("id = ?", req.LocationID).First(&location).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Delivery location not found"})
			return
		}
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Email != nil {
		customer.Email = *req.Email
	}
	if req.Address != nil {
		customer.Address = *req.Address
	}
	if req.LocationID != nil {
		customer.LocationID = req.LocationID
	}
	if req.IsVerified != nil {
		customer.IsVerified = *req.IsVerified
	}

	if err := h.DB.Save(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	if err := h.DB.Delete(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}

// GetCustomerSales lists a customer's purchase history.
func (h *CustomerHandler) GetCustomerSales(c *gin.Context) {
	id := c.Param("id")

	var customer models.Customer
	if err := h.DB.Where("id = ?", id).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var sales []models.Sale
	if err := h.DB.Preload("Items").Where("customer_id = ?", customer.ID).
		Order("created_at DESC").Limit(100).Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": sales, "total": len(sales)})
}
