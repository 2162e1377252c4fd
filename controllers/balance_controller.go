package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/middleware"
	"github.com/hipposhare/hipposhare-api/models"
	"gorm.io/gorm"
)

// BalanceChangeRequest represents the request body for a deposit or withdrawal
type BalanceChangeRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required,gt=0"`
}

// requireSelf checks that the authenticated caller is operating on their own account
func requireSelf(c *gin.Context) (string, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return "", false
	}

	if userID != c.Param("id") {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only operate on your own balance",
			},
		})
		return "", false
	}

	return userID, true
}

// Deposit handles POST /api/users/:id/deposit - adds virtual currency to the
// caller's balance
func Deposit(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	var req BalanceChangeRequest
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

	result := db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance_cents", gorm.Expr("balance_cents + ?", req.AmountCents))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update balance",
			},
		})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "User not found",
			},
		})
		return
	}

	respondWithBalance(c, db, userID)
}

// Withdraw handles POST /api/users/:id/withdraw - removes virtual currency from
// the caller's balance. The guard against overdrawing runs inside the UPDATE, so
// concurrent withdrawals cannot take the balance negative.
func Withdraw(c *gin.Context) {
	userID, ok := requireSelf(c)
	if !ok {
		return
	}

	var req BalanceChangeRequest
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

	result := db.Model(&models.User{}).
		Where("id = ? AND balance_cents >= ?", userID, req.AmountCents).
		Update("balance_cents", gorm.Expr("balance_cents - ?", req.AmountCents))
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update balance",
			},
		})
		return
	}
	if result.RowsAffected == 0 {
		// Either the user is gone or the balance is too low; tell them apart
		var user models.User
		if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User not found",
				},
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INSUFFICIENT_FUNDS",
				"message": "Balance is too low for this withdrawal",
			},
		})
		return
	}

	respondWithBalance(c, db, userID)
}

// GetBalance handles GET /api/users/:id/balance
func GetBalance(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())
	respondWithBalance(c, db, c.Param("id"))
}

// respondWithBalance writes the user's current balance
func respondWithBalance(c *gin.Context, db *gorm.DB, userID string) {
	var user models.User
	if err := db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch balance",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_id":       user.ID,
			"balance_cents": user.BalanceCents,
		},
	})
}
