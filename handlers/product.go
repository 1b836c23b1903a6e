package handlers

import (
	"math"
	"net/http"
	"strconv"

	"matjar-backend/firebase"
	"matjar-backend/middleware"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

// scopedProducts applies the branch scope set by middleware. Shared catalog
// rows (branch_id IS NULL) are always visible.
func (h *ProductHandler) scopedProducts(c *gin.Context) *gorm.DB {
	query := h.DB.Model(&models.Product{})
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ? OR branch_id IS NULL", branchID)
	}
	return query
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := h.scopedProducts(c)

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if subcategoryID := c.Query("subcategory_id"); subcategoryID != "" {
		query = query.Where("subcategory_id = ?", subcategoryID)
	}
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?) OR barcode LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if c.Query("low_stock") == "true" {
		query = query.Where("stock_quantity <= reorder_level")
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	if err := query.Preload("Category").Preload("Images").
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
		"limit":    limit,
		"pages":    int(math.Ceil(float64(total) / float64(limit))),
	})
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Preload("Category").Preload("Subcategory").Preload("Company").Preload("Images").
		Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetProductByBarcode is the POS scanner lookup.
func (h *ProductHandler) GetProductByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")

	var product models.Product
	query := h.DB.Preload("Images").Where("barcode = ? AND status = ?", barcode, "active")
	if branchID, ok := middleware.ScopedBranchID(c); ok {
		query = query.Where("branch_id = ? OR branch_id IS NULL", branchID)
	}
	if err := query.First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, product)
}

type productRequest struct {
	Name              string     `json:"name" binding:"required"`
	Barcode           string     `json:"barcode"`
	SalePrice         float64    `json:"sale_price" binding:"required,gt=0"`
	PurchasePrice     float64    `json:"purchase_price"`
	OfferPrice        *float64   `json:"offer_price"`
	OfferQuantity     int        `json:"offer_quantity"`
	StockQuantity     float64    `json:"stock_quantity"`
	ReorderLevel      float64    `json:"reorder_level"`
	SoldByWeight      bool       `json:"sold_by_weight"`
	CategoryID        uuid.UUID  `json:"category_id" binding:"required"`
	SubcategoryID     *uuid.UUID `json:"subcategory_id"`
	CompanyID         *uuid.UUID `json:"company_id"`
	ParentID          *uuid.UUID `json:"parent_id"`
	SharesParentStock bool       `json:"shares_parent_stock"`
	BranchID          *uuid.UUID `json:"branch_id"`
	Notes             string     `json:"notes"`
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var category models.Category
	if err := h.DB.Where("id = ?", req.CategoryID).First(&category).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}

	if req.OfferPrice != nil && *req.OfferPrice >= req.SalePrice {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Offer price must be below the sale price"})
		return
	}

	if req.ParentID != nil {
		var parent models.Product
		if err := h.DB.Where("id = ?", req.ParentID).First(&parent).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent product not found"})
			return
		}
		if parent.ParentID != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Variants cannot be nested"})
			return
		}
	} else if req.SharesParentStock {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shares_parent_stock requires a parent product"})
		return
	}

	if req.Barcode != "" {
		var existing models.Product
		if err := h.DB.Where("barcode = ?", req.Barcode).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Barcode already in use"})
			return
		}
	}

	product := models.Product{
		ID:                uuid.New(),
		Name:              req.Name,
		Barcode:           req.Barcode,
		SalePrice:         req.SalePrice,
		PurchasePrice:     req.PurchasePrice,
		OfferPrice:        req.OfferPrice,
		OfferQuantity:     req.OfferQuantity,
		StockQuantity:     req.StockQuantity,
		ReorderLevel:      req.ReorderLevel,
		SoldByWeight:      req.SoldByWeight,
		CategoryID:        req.CategoryID,
		SubcategoryID:     req.SubcategoryID,
		CompanyID:         req.CompanyID,
		ParentID:          req.ParentID,
		SharesParentStock: req.SharesParentStock,
		BranchID:          req.BranchID,
		Status:            "active",
		Notes:             req.Notes,
	}

	if err := h.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var req struct {
		Name          *string    `json:"name"`
		Barcode       *string    `json:"barcode"`
		SalePrice     *float64   `json:"sale_price"`
		PurchasePrice *float64   `json:"purchase_price"`
		OfferPrice    *float64   `json:"offer_price"`
		OfferQuantity *int       `json:"offer_quantity"`
		StockQuantity *float64   `json:"stock_quantity"`
		ReorderLevel  *float64   `json:"reorder_level"`
		SoldByWeight  *bool      `json:"sold_by_weight"`
		CategoryID    *uuid.UUID `json:"category_id"`
		SubcategoryID *uuid.UUID `json:"subcategory_id"`
		CompanyID     *uuid.UUID `json:"company_id"`
		Status        *string    `json:"status"`
		Notes         *string    `json:"notes"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	if req.SalePrice != nil && *req.SalePrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Sale price must be positive"})
		return
	}
	if req.Status != nil && *req.Status != "active" && *req.Status != "inactive" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	if req.Barcode != nil && *req.Barcode != "" && *req.Barcode != product.Barcode {
		var existing models.Product
		if err := h.DB.Where("barcode = ? AND id != ?", *req.Barcode, product.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Barcode already in use"})
			return
		}
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.Where("id = ?", req.CategoryID).First(&category).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
			return
		}
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Barcode != nil {
		updates["barcode"] = *req.Barcode
	}
	if req.SalePrice != nil {
		updates["sale_price"] = *req.SalePrice
	}
	if req.PurchasePrice != nil {
		updates["purchase_price"] = *req.PurchasePrice
	}
	if req.OfferPrice != nil {
		updates["offer_price"] = *req.OfferPrice
	}
	if req.OfferQuantity != nil {
		updates["offer_quantity"] = *req.OfferQuantity
	}
	if req.StockQuantity != nil {
		updates["stock_quantity"] = *req.StockQuantity
	}
	if req.ReorderLevel != nil {
		updates["reorder_level"] = *req.ReorderLevel
	}
	if req.SoldByWeight != nil {
		updates["sold_by_weight"] = *req.SoldByWeight
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.SubcategoryID != nil {
		updates["subcategory_id"] = *req.SubcategoryID
	}
	if req.CompanyID != nil {
		updates["company_id"] = *req.CompanyID
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&product).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
	}

	h.DB.Preload("Category").Preload("Images").Where("id = ?", id).First(&product)
	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var variantCount int64
	h.DB.Model(&models.Product{}).Where("parent_id = ?", product.ID).Count(&variantCount)
	if variantCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Product has variants; delete or reassign them first"})
		return
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// GetProductVariants lists the variants attached to a parent product.
func (h *ProductHandler) GetProductVariants(c *gin.Context) {
	id := c.Param("id")

	var parent models.Product
	if err := h.DB.Where("id = ?", id).First(&parent).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	var variants []models.Product
	if err := h.DB.Preload("Images").Where("parent_id = ?", parent.ID).Order("created_at ASC").Find(&variants).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch variants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"variants": variants, "total": len(variants)})
}

func (h *ProductHandler) UploadProductImage(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	if err := utils.ValidateFileUpload(fileHeader); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read image file"})
		return
	}
	defer file.Close()

	url, err := h.Storage.UploadProductImage(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	isPrimary := c.PostForm("is_primary") == "true"
	if isPrimary {
		h.DB.Model(&models.ProductImage{}).Where("product_id = ?", product.ID).Update("is_primary", false)
	}

	image := models.ProductImage{
		ProductID: product.ID,
		ImageURL:  url,
		IsPrimary: isPrimary,
	}
	if err := h.DB.Create(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save image record"})
		return
	}

	c.JSON(http.StatusCreated, image)
}

func (h *ProductHandler) DeleteProductImage(c *gin.Context) {
	imageID := c.Param("imageId")

	var image models.ProductImage
	if err := h.DB.Where("id = ? AND product_id = ?", imageID, c.Param("id")).First(&image).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}

	// Best effort: remove the object from storage, then the record
	if objectPath, err := utils.ExtractObjectPath(image.ImageURL); err == nil {
		_ = h.Storage.DeleteFile(objectPath)
	}

	if err := h.DB.Delete(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted"})
}
