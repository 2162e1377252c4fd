package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Message types
const (
	MessageText      = "text"
	MessageImage     = "image"
	MessageSystem    = "system"
	MessageRequest   = "request"
	MessageApproval  = "approval"
	MessageRejection = "rejection"
)

// Message represents a single message in a conversation. Messages are append-only:
// the only field ever mutated after creation is IsRead.
type Message struct {
	ID             string         `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID string         `gorm:"type:uuid;not null;index" json:"conversation_id"` // foreign key to conversations table
	SenderID       string         `gorm:"not null;index" json:"sender_id"`
	SenderName     string         `gorm:"not null" json:"sender_name"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	Type           string         `gorm:"not null;default:'text'" json:"type"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"` // type-specific payload for request/approval/rejection
	IsRead         bool           `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate assigns a UUID primary key if one was not provided
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// IsValidMessageType reports whether s is a known message type
func IsValidMessageType(s string) bool {
	switch s {
	case MessageText, MessageImage, MessageSystem, MessageRequest, MessageApproval, MessageRejection:
		return true
	}
	return false
}
