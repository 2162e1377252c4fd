package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hipposhare/hipposhare-api/config"
	"github.com/hipposhare/hipposhare-api/models"
	"gorm.io/gorm"
)

// listedLoanStatuses are the statuses included in the listing views. Cancelled
// loans never show up in any list.
var listedLoanStatuses = []string{models.LoanActive, models.LoanCompleted, models.LoanReturned}

// openLoanStatuses mark an item as currently lent to a borrower. Cancelled and
// returned loans are excluded, so a closed loan does not block re-borrowing.
var openLoanStatuses = []string{models.LoanActive, models.LoanCompleted}

// CreateLoanRequest represents the request body for recording a lending agreement
type CreateLoanRequest struct {
	ItemID             string     `json:"item_id" binding:"required"`
	ItemName           string     `json:"item_name" binding:"required"`
	ItemDescription    string     `json:"item_description" binding:"required"`
	ItemImagePath      string     `json:"item_image_path" binding:"omitempty"`
	OwnerID            string     `json:"owner_id" binding:"required"`
	OwnerName          string     `json:"owner_name" binding:"required"`
	BorrowerID         string     `json:"borrower_id" binding:"required"`
	BorrowerName       string     `json:"borrower_name" binding:"required"`
	ItemValue          int64      `json:"item_value" binding:"required,gt=0"`
	ExpectedReturnDate *time.Time `json:"expected_return_date" binding:"omitempty"`
	Notes              string     `json:"notes" binding:"omitempty"`
}

// CreateLoan handles POST /api/loans - records a new lending agreement.
//
// No duplicate check is performed here: a caller that wants at most one open loan
// per item and borrower probes FindOpenLoan first.
func CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
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

	loan := models.Loan{
		ItemID:             req.ItemID,
		ItemName:           req.ItemName,
		ItemDescription:    req.ItemDescription,
		ItemImagePath:      req.ItemImagePath,
		OwnerID:            req.OwnerID,
		OwnerName:          req.OwnerName,
		BorrowerID:         req.BorrowerID,
		BorrowerName:       req.BorrowerName,
		ItemValue:          req.ItemValue,
		StartDate:          time.Now(),
		ExpectedReturnDate: req.ExpectedReturnDate,
		Status:             models.LoanActive,
		Notes:              req.Notes,
	}

	db := config.GetDB().WithContext(c.Request.Context())
	if err := db.Create(&loan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create loan",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    loan,
	})
}

// listLoans runs a listing query and writes the response
func listLoans(c *gin.Context, query *gorm.DB) {
	var loans []models.Loan
	if err := query.Where("status IN ?", listedLoanStatuses).
		Order("start_date DESC").
		Find(&loans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch loans",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loans,
	})
}

// ListBorrowerLoans handles GET /api/loans/borrower/:userId
func ListBorrowerLoans(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())
	listLoans(c, db.Where("borrower_id = ?", c.Param("userId")))
}

// ListOwnerLoans handles GET /api/loans/owner/:userId
func ListOwnerLoans(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())
	listLoans(c, db.Where("owner_id = ?", c.Param("userId")))
}

// ListUserLoans handles GET /api/loans/user/:userId - loans where the user is
// either party
func ListUserLoans(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())
	listLoans(c, db.Where("borrower_id = ? OR owner_id = ?", c.Param("userId"), c.Param("userId")))
}

// GetLoan handles GET /api/loans/:id
func GetLoan(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var loan models.Loan
	if err := db.Where("id = ?", c.Param("id")).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "LOAN_NOT_FOUND",
					"message": "Loan not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch loan",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loan,
	})
}

// UpdateLoanStatusRequest represents the request body for a loan status change
type UpdateLoanStatusRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes" binding:"omitempty"`
}

// UpdateLoanStatus handles PUT /api/loans/:id/status - advances the loan state
// machine and optionally replaces the notes. This generic path never stamps
// end_date; ReturnLoan is the only operation that does.
func UpdateLoanStatus(c *gin.Context) {
	var req UpdateLoanStatusRequest
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

	if !models.IsValidLoanStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS",
				"message": "Unknown loan status: " + req.Status,
			},
		})
		return
	}

	db := config.GetDB().WithContext(c.Request.Context())

	var loan models.Loan
	if err := db.Where("id = ?", c.Param("id")).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "LOAN_NOT_FOUND",
					"message": "Loan not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch loan",
			},
		})
		return
	}

	if !loan.CanTransitionTo(req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS_TRANSITION",
				"message": "Cannot change loan status from " + loan.Status + " to " + req.Status,
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Status != loan.Status {
		updates["status"] = req.Status
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	// Re-applying the current status with no new notes is a true no-op: the row
	// (including updated_at) is left untouched
	if len(updates) > 0 {
		if err := db.Model(&loan).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to update loan status",
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loan,
	})
}

// ReturnLoan handles PUT /api/loans/:id/return - the return path of the state
// machine. Unlike UpdateLoanStatus it also stamps end_date with the return time.
func ReturnLoan(c *gin.Context) {
	db := config.GetDB().WithContext(c.Request.Context())

	var loan models.Loan
	if err := db.Where("id = ?", c.Param("id")).First(&loan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "LOAN_NOT_FOUND",
					"message": "Loan not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch loan",
			},
		})
		return
	}

	// Only an active loan can be returned. Re-applying other statuses is a no-op
	// elsewhere, but the return path stamps end_date, so a second return must be
	// rejected rather than re-stamp a closed loan.
	if loan.Status != models.LoanActive {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_STATUS_TRANSITION",
				"message": "Cannot return a loan with status " + loan.Status,
			},
		})
		return
	}

	now := time.Now()
	if err := db.Model(&loan).Updates(map[string]interface{}{
		"status":   models.LoanReturned,
		"end_date": now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to mark loan as returned",
			},
		})
		return
	}
	loan.EndDate = &now

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loan,
	})
}

// FindOpenLoan handles GET /api/loans/find?itemId=&borrowerId= - looks up a
// currently open loan for the item and borrower. Returns null data instead of 404
// when nothing matches, so clients can probe before creating a duplicate.
func FindOpenLoan(c *gin.Context) {
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

	var loan models.Loan
	err := db.Where("item_id = ? AND borrower_id = ? AND status IN ?", itemID, borrowerID, openLoanStatuses).
		First(&loan).Error
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
				"message": "Failed to look up loan",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    loan,
	})
}
