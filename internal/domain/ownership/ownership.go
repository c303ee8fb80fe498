package ownership

import (
	"context"
	"time"
)

// ChatOwnership binds an externally created chat to the user who created it.
// Written exactly once, at first successful creation, and never mutated.
type ChatOwnership struct {
	ChatID    string
	UserID    string
	CreatedAt time.Time
}

// AnonymousChatLog is an append-only record of an anonymous chat creation,
// used only for quota accounting. Multiple rows may reference one chat.
type AnonymousChatLog struct {
	ChatID    string
	IPAddress string
	CreatedAt time.Time
}

// Repository is the persistence contract for ownership and anonymous logs.
type Repository interface {
	CreateOwnership(ctx context.Context, row *ChatOwnership) error
	CreateAnonymousLog(ctx context.Context, row *AnonymousChatLog) error

	// FindOwnership returns (nil, nil) when no row exists for the chat.
	FindOwnership(ctx context.Context, chatID string) (*ChatOwnership, error)
	ListOwnedChatIDs(ctx context.Context, userID string) ([]string, error)

	CountOwnedSince(ctx context.Context, userID string, since time.Time) (int64, error)
	CountAnonymousSince(ctx context.Context, ipAddress string, since time.Time) (int64, error)

	PruneAnonymousLogs(ctx context.Context, before time.Time) (int64, error)
}
