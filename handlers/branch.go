package handlers

import (
	"net/http"

	"matjar-backend/firebase"
	"matjar-backend/models"
	"matjar-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BranchHandler struct {
	DB      *gorm.DB
	Storage firebase.StorageClient
}

func (h *BranchHandler) GetBranches(c *gin.Context) {
	var branches []models.Branch
	query := h.DB.Order("name ASC")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&branches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch branches"})
		return
	}
	c.JSON(http.StatusOK, branches)
}

func (h *BranchHandler) GetBranch(c *gin.Context) {
	id := c.Param("id")

	var branch models.Branch
	if err := h.DB.Where("id = ?", id).First(&branch).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}
	c.JSON(http.StatusOK, branch)
}

func (h *BranchHandler) CreateBranch(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	branch := models.Branch{
		ID:       uuid.New(),
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		IsActive: true,
	}
	if err := h.DB.Create(&branch).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create branch"})
		return
	}
	c.JSON(http.StatusCreated, branch)
}

func (h *BranchHandler) UpdateBranch(c *gin.Context) {
	id := c.Param("id")

	var branch models.Branch
	if err := h.DB.Where("id = ?", id).First(&branch).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}

	var req struct {
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		Address  *string `json:"address"`
		IsActive *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&branch).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update branch"})
			return
		}
	}

	h.DB.Where("id = ?", id).First(&branch)
	c.JSON(http.StatusOK, branch)
}

// DeleteBranch deactivates rather than removes: sales history must keep
// resolving its branch.
func (h *BranchHandler) DeleteBranch(c *gin.Context) {
	id := c.Param("id")

	var branch models.Branch
	if err := h.DB.Where("id = ?", id).First(&branch).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}

	var staffCount int64
	h.DB.Model(&models.User{}).Where("branch_id = ?", branch.ID).Count(&staffCount)
	if staffCount > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Branch still has assigned staff; reassign them first"})
		return
	}

	if err := h.DB.Model(&branch).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate branch"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Branch deactivated"})
}

func (h *BranchHandler) UploadLogo(c *gin.Context) {
	id := c.Param("id")

	var branch models.Branch
	if err := h.DB.Where("id = ?", id).First(&branch).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Branch not found"})
		return
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No logo file provided"})
		return
	}

	if err := utils.ValidateFileUpload(fileHeader); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read logo file"})
		return
	}
	defer file.Close()

	url, err := h.Storage.UploadBranchLogo(file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload logo"})
		return
	}

	// Replace the previous logo object if there was one
	if branch.LogoURL != "" {
		if objectPath, err := utils.ExtractObjectPath(branch.LogoURL); err == nil {
			_ = h.Storage.DeleteFile(objectPath)
		}
	}

	if err := h.DB.Model(&branch).Update("logo_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save logo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logo_url": url})
}
