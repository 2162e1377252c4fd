package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	SenderID   string          `json:"sender_id" binding:"required"`
	SenderName string          `json:"sender_name" binding:"required"`
	Content    string          `json:"content" binding:"required"`
	Type       string          `json:"type" binding:"omitempty"`
	Metadata   json.RawMessage `json:"metadata" binding:"omitempty"`
}

// SendMessage handles POST /api/conversations/:id/messages - appends a message to
// the conversation's log.
//
// The message insert and the parent conversation's summary refresh (last_message
// snapshot, unread counter, updated_at) run in one transaction, so the summary can
// never go stale relative to the log.
func SendMessage(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	// The parent conversation must exist before anything is written
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

	var req SendMessageRequest
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

	messageType := req.Type
	if messageType == "" {
		messageType = models.MessageText
	}
	if !models.IsValidMessageType(messageType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_MESSAGE_TYPE",
				"message": "Unknown message type: " + messageType,
			},
		})
		return
	}

	message := models.Message{
		ConversationID: conversation.ID,
		SenderID:       req.SenderID,
		SenderName:     req.SenderName,
		Content:        req.Content,
		Type:           messageType,
		Metadata:       datatypes.JSON(req.Metadata),
		IsRead:         false,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&message).Error; err != nil {
			return err
		}

		snapshot, err := json.Marshal(message)
		if err != nil {
			return err
		}

		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversation.ID).
			Updates(map[string]interface{}{
				"last_message": datatypes.JSON(snapshot),
				"unread_count": gorm.Expr("unread_count + 1"),
				"updated_at":   time.Now(),
			}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to send message",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /api/conversations/:id/messages - returns the full
// message log in chat order (oldest first)
func ListMessages(c *gin.Context) {
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

	var messages []models.Message
	if err := db.Where("conversation_id = ?", conversation.ID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch messages",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// MarkReadRequest represents the request body for marking a conversation read
type MarkReadRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// MarkMessagesRead handles PUT /api/conversations/:id/read - flips is_read on every
// message in the conversation sent by the other party. The reader's own messages are
// never touched, and re-invoking is a no-op. The conversation's unread counter is
// recomputed from the log in the same transaction.
func MarkMessagesRead(c *gin.Context) {
	var req MarkReadRequest
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

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversation.ID, req.UserID, false).
			Update("is_read", true).Error; err != nil {
			return err
		}

		var unread int64
		if err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND is_read = ?", conversation.ID, false).
			Count(&unread).Error; err != nil {
			return err
		}

		// UpdateColumn keeps updated_at untouched: reading is not conversation activity
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversation.ID).
			UpdateColumn("unread_count", unread).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to mark messages as read",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
