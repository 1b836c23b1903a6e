package handlers

import (
	"fmt"
	"net/http"

	"matjar-backend/invoice"
	"matjar-backend/middleware"
	"matjar-backend/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InvoiceHandler struct {
	DB *gorm.DB
}

// GetInvoicePDF renders a sale as a printable A4 invoice.
func (h *InvoiceHandler) GetInvoicePDF(c *gin.Context) {
	id := c.Param("id")

	var sale models.Sale
	if err := h.DB.Preload("Items").Where("id = ?", id).First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	if branchID, ok := middleware.ScopedBranchID(c); ok && sale.BranchID != branchID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	var branch models.Branch
	if err := h.DB.Where("id = ?", sale.BranchID).First(&branch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Branch not found"})
		return
	}

	data, err := invoice.RenderPDF(&sale, &branch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render invoice"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", sale.InvoiceNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}

// GetInvoiceBarcode renders the invoice number as a Code 128 PNG.
func (h *InvoiceHandler) GetInvoiceBarcode(c *gin.Context) {
	id := c.Param("id")

	var sale models.Sale
	if err := h.DB.Where("id = ?", id).First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	data, err := invoice.RenderBarcodePNG(sale.InvoiceNumber, 300, 80)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render barcode"})
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}

// GetProductBarcode renders a product's barcode as a PNG for label printing.
func (h *InvoiceHandler) GetProductBarcode(c *gin.Context) {
	id := c.Param("id")

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if product.Barcode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product has no barcode"})
		return
	}

	data, err := invoice.RenderBarcodePNG(product.Barcode, 300, 80)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render barcode"})
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}
