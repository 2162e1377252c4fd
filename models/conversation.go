package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Conversation statuses
const (
	ConversationActive    = "active"
	ConversationCompleted = "completed"
	ConversationCancelled = "cancelled"
	ConversationArchived  = "archived"
)

// Conversation represents a messaging thread between an item's owner and a borrower.
// ItemName, OwnerName and BorrowerName are denormalized snapshots taken at creation.
type Conversation struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID       string         `gorm:"not null;index" json:"item_id"`
	ItemName     string         `gorm:"not null" json:"item_name"`
	OwnerID      string         `gorm:"not null;index" json:"owner_id"`
	OwnerName    string         `gorm:"not null" json:"owner_name"`
	BorrowerID   string         `gorm:"not null;index" json:"borrower_id"`
	BorrowerName string         `gorm:"not null" json:"borrower_name"`
	PairKey      string         `gorm:"uniqueIndex;not null" json:"-"` // item + sorted party pair, see ConversationPairKey
	Status       string         `gorm:"not null;default:'active'" json:"status"`
	LastMessage  datatypes.JSON `json:"last_message"` // snapshot of the most recent message
	UnreadCount  int64          `gorm:"not null;default:0" json:"unread_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index:idx_conversations_updated,sort:desc" json:"updated_at"`
}

// TableName specifies the table name for the Conversation model
func (Conversation) TableName() string {
	return "conversations"
}

// BeforeCreate assigns a UUID primary key and derives the dedup key
func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PairKey == "" {
		c.PairKey = ConversationPairKey(c.ItemID, c.OwnerID, c.BorrowerID)
	}
	return nil
}

// ConversationPairKey builds the unique key that enforces at most one conversation
// per item and unordered party pair. The party IDs are sorted so that (A,B) and
// (B,A) produce the same key regardless of who holds the owner role.
func ConversationPairKey(itemID, partyA, partyB string) string {
	if partyA > partyB {
		partyA, partyB = partyB, partyA
	}
	return itemID + ":" + partyA + ":" + partyB
}

// IsValidConversationStatus reports whether s is a known conversation status
func IsValidConversationStatus(s string) bool {
	switch s {
	case ConversationActive, ConversationCompleted, ConversationCancelled, ConversationArchived:
		return true
	}
	return false
}

// conversationTransitions is the allowed state machine. Cancelled and archived
// are terminal.
var conversationTransitions = map[string][]string{
	ConversationActive:    {ConversationCompleted, ConversationCancelled, ConversationArchived},
	ConversationCompleted: {ConversationArchived},
}

// CanTransitionTo reports whether the conversation may move to the given status.
// Re-applying the current status is allowed and treated as a no-op by callers.
func (c *Conversation) CanTransitionTo(status string) bool {
	if status == c.Status {
		return true
	}
	for _, next := range conversationTransitions[c.Status] {
		if next == status {
			return true
		}
	}
	return false
}
