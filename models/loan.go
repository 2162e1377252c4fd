package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Loan statuses
const (
	LoanActive    = "active"
	LoanCompleted = "completed"
	LoanCancelled = "cancelled"
	LoanReturned  = "returned"
)

// Loan represents a tracked lending agreement for a physical asset. Item and party
// fields are denormalized snapshots taken when the agreement is struck; the loan's
// lifecycle is independent of any conversation about the same item.
type Loan struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID             string     `gorm:"not null;index" json:"item_id"`
	ItemName           string     `gorm:"not null" json:"item_name"`
	ItemDescription    string     `gorm:"type:text;not null" json:"item_description"`
	ItemImagePath      string     `json:"item_image_path"`
	OwnerID            string     `gorm:"not null;index" json:"owner_id"`
	OwnerName          string     `gorm:"not null" json:"owner_name"`
	BorrowerID         string     `gorm:"not null;index" json:"borrower_id"`
	BorrowerName       string     `gorm:"not null" json:"borrower_name"`
	ItemValue          int64      `gorm:"not null" json:"item_value"` // replacement value in cents
	StartDate          time.Time  `gorm:"not null;index:idx_loans_start,sort:desc" json:"start_date"`
	EndDate            *time.Time `json:"end_date"`             // set only when the loan is returned
	ExpectedReturnDate *time.Time `json:"expected_return_date"` // nullable, agreed up front
	Status             string     `gorm:"not null;default:'active'" json:"status"`
	Notes              string     `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Loan model
func (Loan) TableName() string {
	return "loans"
}

// BeforeCreate assigns a UUID primary key if one was not provided
func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsValidLoanStatus reports whether s is a known loan status
func IsValidLoanStatus(s string) bool {
	switch s {
	case LoanActive, LoanCompleted, LoanCancelled, LoanReturned:
		return true
	}
	return false
}

// loanTransitions is the allowed state machine. Completed, cancelled and returned
// are terminal.
var loanTransitions = map[string][]string{
	LoanActive: {LoanCompleted, LoanCancelled, LoanReturned},
}

// CanTransitionTo reports whether the loan may move to the given status.
// Re-applying the current status is allowed and treated as a no-op by callers.
func (l *Loan) CanTransitionTo(status string) bool {
	if status == l.Status {
		return true
	}
	for _, next := range loanTransitions[l.Status] {
		if next == status {
			return true
		}
	}
	return false
}
