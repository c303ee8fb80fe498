package entities

import (
	"time"

	"chat-gateway/internal/domain/ownership"
)

// AnonymousChatLog is the database schema for anonymous creation records.
// Append-only; the chat id is deliberately not unique since the table only
// backs quota counting.
type AnonymousChatLog struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    string    `gorm:"type:varchar(64);not null"`
	IPAddress string    `gorm:"type:varchar(64);index:idx_anonymous_chat_log_ip_created;not null"`
	CreatedAt time.Time `gorm:"index:idx_anonymous_chat_log_ip_created"`
}

// NewSchemaAnonymousChatLog maps a domain row to its schema form.
func NewSchemaAnonymousChatLog(row *ownership.AnonymousChatLog) *AnonymousChatLog {
	return &AnonymousChatLog{
		ChatID:    row.ChatID,
		IPAddress: row.IPAddress,
	}
}

// EtoD maps the schema row back to the domain form.
func (e *AnonymousChatLog) EtoD() *ownership.AnonymousChatLog {
	return &ownership.AnonymousChatLog{
		ChatID:    e.ChatID,
		IPAddress: e.IPAddress,
		CreatedAt: e.CreatedAt,
	}
}
