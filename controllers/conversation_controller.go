package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/models"
	"gorm.io/gorm"
)

// CreateConversationRequest represents the request body for opening a conversation
type CreateConversationRequest struct {
	ItemID       string `json:"item_id" binding:"required"`
	ItemName     string `json:"item_name" binding:"required"`
	OwnerID      string `json:"owner_id" binding:"required"`
	OwnerName    string `json:"owner_name" binding:"required"`
	BorrowerID   string `json:"borrower_id" binding:"required"`
	BorrowerName string `json:"borrower_name" binding:"required"`
}

// isDuplicateKeyError detects a unique constraint violation
// (works with both PostgreSQL and SQLite)
func isDuplicateKeyError(err error) bool {
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate") ||
		strings.Contains(errMsg, "unique constraint") ||
		strings.Contains(errMsg, "unique")
}

// CreateOrGetConversation handles POST /api/conversations - finds the existing
// conversation for the item and party pair, or creates one.
//
// The pair is unordered: a request with owner and borrower swapped still matches
// the existing thread. The existence check is backed by a unique index on the
// normalized pair key, so two concurrent creates for the same pair cannot both
// insert; the loser of the race re-fetches and returns the winner's row.
func CreateOrGetConversation(c *gin.Context) {
	var req CreateConversationRequest
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

	// Either assignment of the two party IDs to the owner/borrower roles matches
	var existing models.Conversation
	err := db.Where(
		"item_id = ? AND ((owner_id = ? AND borrower_id = ?) OR (owner_id = ? AND borrower_id = ?))",
		req.ItemID, req.OwnerID, req.BorrowerID, req.BorrowerID, req.OwnerID,
	).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    existing,
		})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to look up conversation",
			},
		})
		return
	}

	conversation := models.Conversation{
		ItemID:       req.ItemID,
		ItemName:     req.ItemName,
		OwnerID:      req.OwnerID,
		OwnerName:    req.OwnerName,
		BorrowerID:   req.BorrowerID,
		BorrowerName: req.BorrowerName,
		Status:       models.ConversationActive,
	}

	if err := db.Create(&conversation).Error; err != nil {
		if isDuplicateKeyError(err) {
			// Lost a create race: the unique pair key already exists, return that row
			pairKey := models.ConversationPairKey(req.ItemID, req.OwnerID, req.BorrowerID)
			if err := db.Where("pair_key = ?", pairKey).First(&existing).Error; err == nil {
				c.JSON(http.StatusOK, gin.H{
					"success": true,
					"data":    existing,
				})
				return
			}
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create conversation",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    conversation,
	})
}

// ListUserConversations handles GET /api/conversations/user/:userId - lists all
// conversations the user participates in, most recently active first
func ListUserConversations(c *gin.Context) {
	userID := c.Param("userId")

	db := config.GetDB().WithContext(c.Request.Context())

	var conversations []models.Conversation
	if err := db.Where("owner_id = ? OR borrower_id = ?", userID, userID).
		Order("updated_at DESC").
		Find(&conversations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch conversations",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversations,
	})
}

// GetConversation handles GET /api/conversations/:id
func GetConversation(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var conversation models.Conversation
	if err := db.Where("id = ?", c.Param("id")).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONVERSATION_NOT_FOUND",
					"message": "Conversation not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch conversation",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversation,
	})
}

// UpdateConversationStatusRequest represents the request body for a status change
type UpdateConversationStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateConversationStatus handles PUT /api/conversations/:id/status - advances the
// conversation state machine. Unknown statuses are rejected, as are transitions out
// of a terminal state. Re-applying the current status is a no-op success.
func UpdateConversationStatus(c *gin.Context) {
	var req UpdateConversationStatusRequest
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

	if !models.IsValidConversationStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Unknown conversation status: " + req.Status,
			},
		})
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var conversation models.Conversation
	if err := db.Where("id = ?", c.Param("id")).First(&conversation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONVERSATION_NOT_FOUND",
					"message": "Conversation not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch conversation",
			},
		})
		return
	}

	if !conversation.CanTransitionTo(req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS_TRANSITION",
				"message": "Cannot change conversation status from " + conversation.Status + " to " + req.Status,
			},
		})
		return
	}

	if req.Status != conversation.Status {
		if err := db.Model(&conversation).Update("status", req.Status).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update conversation status",
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversation,
	})
}

// FindConversation handles GET /api/conversations/find?itemId=&borrowerId= - looks
// up the conversation for an item where the given user participates in either role.
// Returns null data instead of 404 when nothing matches, so clients can probe before
// creating a thread.
func FindConversation(c *gin.Context) {
	itemID := c.Query("itemId")
	borrowerID := c.Query("borrowerId")
	if itemID == "" || borrowerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "itemId and borrowerId query parameters are required",
			},
		})
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var conversation models.Conversation
	err := db.Where(
		"item_id = ? AND (owner_id = ? OR borrower_id = ?)",
		itemID, borrowerID, borrowerID,
	).First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    nil,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to look up conversation",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversation,
	})
}
