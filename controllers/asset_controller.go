package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/models"
	"gorm.io/gorm"
)

// CreateAssetRequest represents the request body for listing an asset
type CreateAssetRequest struct {
	OwnerID     string `json:"owner_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"omitempty"`
	Value       int64  `json:"value" binding:"required,gt=0"`
	ImagePath   string `json:"image_path" binding:"omitempty"`
}

// CreateAsset handles POST /api/assets - lists a new asset for lending
func CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	asset := models.Asset{
		OwnerID:     req.OwnerID,
		Name:        req.Name,
		Description: req.Description,
		Value:       req.Value,
		ImagePath:   req.ImagePath,
	}

	db := config.GetDB().WithContext(c.Request.Context())
	if err := db.Create(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create asset",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    asset,
	})
}

// ListAssets handles GET /api/assets
func ListAssets(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var assets []models.Asset
	if err := db.Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch assets",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    assets,
	})
}

// ListOwnerAssets handles GET /api/assets/owner/:ownerId
func ListOwnerAssets(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var assets []models.Asset
	if err := db.Where("owner_id = ?", c.Param("ownerId")).Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch assets",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    assets,
	})
}

// UpdateAssetRequest represents the request body for updating an asset listing
type UpdateAssetRequest struct {
	Name        string `json:"name" binding:"omitempty"`
	Description string `json:"description" binding:"omitempty"`
	Value       int64  `json:"value" binding:"omitempty,gt=0"`
	ImagePath   string `json:"image_path" binding:"omitempty"`
}

// UpdateAsset handles PUT /api/assets/:id
func UpdateAsset(c *gin.Context) {
	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var asset models.Asset
	if err := db.Where("id = ?", c.Param("id")).First(&asset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ASSET_NOT_FOUND",
					"message": "Asset not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch asset",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Value > 0 {
		updates["value"] = req.Value
	}
	if req.ImagePath != "" {
		updates["image_path"] = req.ImagePath
	}

	if len(updates) > 0 {
		if err := db.Model(&asset).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update asset",
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    asset,
	})
}

// DeleteAsset handles DELETE /api/assets/:id
func DeleteAsset(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	result := db.Where("id = ?", c.Param("id")).Delete(&models.Asset{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete asset",
			},
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ASSET_NOT_FOUND",
				"message": "Asset not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
