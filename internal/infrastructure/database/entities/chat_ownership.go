package entities

import (
	"time"

	"chat-gateway/internal/domain/ownership"
)

// ChatOwnership is the database schema for chat ownership rows. The chat id
// is unique: ownership is written once and never mutated.
type ChatOwnership struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID    string    `gorm:"type:varchar(64);index:idx_chat_ownership_user_created;not null"`
	CreatedAt time.Time `gorm:"index:idx_chat_ownership_user_created"`
}

// NewSchemaChatOwnership maps a domain row to its schema form.
func NewSchemaChatOwnership(row *ownership.ChatOwnership) *ChatOwnership {
	return &ChatOwnership{
		ChatID: row.ChatID,
		UserID: row.UserID,
	}
}

// EtoD maps the schema row back to the domain form.
func (e *ChatOwnership) EtoD() *ownership.ChatOwnership {
	return &ownership.ChatOwnership{
		ChatID:    e.ChatID,
		UserID:    e.UserID,
		CreatedAt: e.CreatedAt,
	}
}
