package handlers

import (
	"net/http"

	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeliveryHandler struct {
	DB *gorm.DB
}

// GetLocationTree returns the full governorate tree with nested children
// and prices, for address pickers.
func (h *DeliveryHandler) GetLocationTree(c *gin.Context) {
	var roots []models.DeliveryLocation
	if err := h.DB.Where("parent_id IS NULL").Order("name ASC").
		Preload("Prices").
		Preload("Children", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Children.Prices").
		Preload("Children.Children", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Children.Children.Prices").
		Preload("Children.Children.Children", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Preload("Children.Children.Children.Prices").
		Find(&roots).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
		return
	}
	c.JSON(http.StatusOK, roots)
}

// GetLocationChildren lists direct children of a node (or governorates when
// no parent is given), for lazy pickers.
func (h *DeliveryHandler) GetLocationChildren(c *gin.Context) {
	query := h.DB.Model(&models.DeliveryLocation{}).Order("name ASC")
	if parentID := c.Query("parent_id"); parentID != "" {
		query = query.Where("parent_id = ?", parentID)
	} else {
		query = query.Where("parent_id IS NULL")
	}

	var locations []models.DeliveryLocation
	if err := query.Preload("Prices").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch locations"})
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (h *DeliveryHandler) CreateLocation(c *gin.Context) {
	var req struct {
		Name     string     `json:"name" binding:"required"`
		Kind     string     `json:"kind" binding:"required"`
		ParentID *uuid.UUID `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	switch req.Kind {
	case models.LocationGovernorate, models.LocationCity, models.LocationArea, models.LocationNeighborhood:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid location kind"})
		return
	}

	if req.Kind == models.LocationGovernorate {
		if req.ParentID != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Governorates cannot have a parent"})
			return
		}
	} else {
		if req.ParentID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parent_id is required for this kind"})
			return
		}
		var parent models.DeliveryLocation
		if err := h.DB.Where("id = ?", req.ParentID).First(&parent).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent location not found"})
			return
		}
		if models.ChildKind(parent.Kind) != req.Kind {
			c.JSON(http.StatusBadRequest, gin.H{"error": "A " + req.Kind + " cannot be placed under a " + parent.Kind})
			return
		}
	}

	location := models.DeliveryLocation{
		ID:       uuid.New(),
		Name:     req.Name,
		Kind:     req.Kind,
		ParentID: req.ParentID,
	}
	if err := h.DB.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
		return
	}
	c.JSON(http.StatusCreated, location)
}

func (h *DeliveryHandler) UpdateLocation(c *gin.Context) {
	id := c.Param("id")

	var location models.DeliveryLocation
	if err := h.DB.Where("id = ?", id).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	var req struct {
		Name *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.Name != nil {
		location.Name = *req.Name
	}
	if err := h.DB.Save(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update location"})
		return
	}
	c.JSON(http.StatusOK, location)
}

func (h *DeliveryHandler) DeleteLocation(c *gin.Context) {
	id := c.Param("id")

	var location models.DeliveryLocation
	if err := h.DB.Where("id = ?", id).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	var childCount int64
	h.DB.Model(&models.DeliveryLocation{}).Where("parent_id = ?", location.ID).Count(&childCount)
	if childCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Location has child locations; delete them first"})
		return
	}

	var customerCount int64
	h.DB.Model(&models.Customer{}).Where("location_id = ?", location.ID).Count(&customerCount)
	if customerCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Customers are attached to this location"})
		return
	}

	h.DB.Where("location_id = ?", location.ID).Delete(&models.DeliveryPrice{})
	if err := h.DB.Delete(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete location"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"})
}

// SetPrice creates or updates the delivery price of a location for one
// delivery type.
func (h *DeliveryHandler) SetPrice(c *gin.Context) {
	id := c.Param("id")

	var location models.DeliveryLocation
	if err := h.DB.Where("id = ?", id).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	var req struct {
		DeliveryType     string  `json:"delivery_type" binding:"required"`
		Price            float64 `json:"price" binding:"required,gte=0"`
		EstimatedMinutes int     `json:"estimated_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.DeliveryType != "standard" && req.DeliveryType != "express" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delivery_type must be standard or express"})
		return
	}

	var price models.DeliveryPrice
	if err := h.DB.Where("location_id = ? AND delivery_type = ?", location.ID, req.DeliveryType).First(&price).Error; err == nil {
		price.Price = req.Price
		price.EstimatedMinutes = req.EstimatedMinutes
		if err := h.DB.Save(&price).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update price"})
			return
		}
		c.JSON(http.StatusOK, price)
		return
	}

	price = models.DeliveryPrice{
		ID:               uuid.New(),
		LocationID:       location.ID,
		DeliveryType:     req.DeliveryType,
		Price:            req.Price,
		EstimatedMinutes: req.EstimatedMinutes,
	}
	if err := h.DB.Create(&price).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create price"})
		return
	}
	c.JSON(http.StatusCreated, price)
}

// ResolvePrice walks up the tree from a location until it finds a price for
// the requested delivery type.
func (h *DeliveryHandler) ResolvePrice(c *gin.Context) {
	id := c.Param("id")
	deliveryType := c.DefaultQuery("type", "standard")

	var location models.DeliveryLocation
	if err := h.DB.Where("id = ?", id).First(&location).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
		return
	}

	current := &location
	for current != nil {
		var price models.DeliveryPrice
		if err := h.DB.Where("location_id = ? AND delivery_type = ?", current.ID, deliveryType).First(&price).Error; err == nil {
			c.JSON(http.StatusOK, gin.H{
				"location_id":       location.ID,
				"priced_at":         current.ID,
				"delivery_type":     deliveryType,
				"price":             price.Price,
				"estimated_minutes": price.EstimatedMinutes,
			})
			return
		}
		if current.ParentID == nil {
			break
		}
		var parent models.DeliveryLocation
		if err := h.DB.Where("id = ?", current.ParentID).First(&parent).Error; err != nil {
			break
		}
		current = &parent
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "No delivery price configured for this location"})
}
