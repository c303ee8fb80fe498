package ownershiprepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chat-gateway/internal/domain/ownership"
)

// InMemoryRepository is a mutex-guarded ownership.Repository for tests and
// local development without PostgreSQL.
type InMemoryRepository struct {
	mu         sync.RWMutex
	ownerships map[string]*ownership.ChatOwnership
	logs       []*ownership.AnonymousChatLog
	now        func() time.Time
}

var _ ownership.Repository = (*InMemoryRepository)(nil)

// NewInMemoryRepository builds an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		ownerships: make(map[string]*ownership.ChatOwnership),
		now:        time.Now,
	}
}

// SetClock overrides the time source, for tests exercising window edges.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// CreateOwnership implements ownership.Repository.
func (r *InMemoryRepository) CreateOwnership(_ context.Context, row *ownership.ChatOwnership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ownerships[row.ChatID]; exists {
		return fmt.Errorf("ownership already recorded for chat %s", row.ChatID)
	}

	row.CreatedAt = r.now()
	stored := *row
	r.ownerships[row.ChatID] = &stored
	return nil
}

// CreateAnonymousLog implements ownership.Repository.
func (r *InMemoryRepository) CreateAnonymousLog(_ context.Context, row *ownership.AnonymousChatLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	row.CreatedAt = r.now()
	stored := *row
	r.logs = append(r.logs, &stored)
	return nil
}

// FindOwnership implements ownership.Repository.
func (r *InMemoryRepository) FindOwnership(_ context.Context, chatID string) (*ownership.ChatOwnership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.ownerships[chatID]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

// ListOwnedChatIDs implements ownership.Repository.
func (r *InMemoryRepository) ListOwnedChatIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chatIDs []string
	for _, row := range r.ownerships {
		if row.UserID == userID {
			chatIDs = append(chatIDs, row.ChatID)
		}
	}
	return chatIDs, nil
}

// CountOwnedSince implements ownership.Repository.
func (r *InMemoryRepository) CountOwnedSince(_ context.Context, userID string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, row := range r.ownerships {
		if row.UserID == userID && !row.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// CountAnonymousSince implements ownership.Repository.
func (r *InMemoryRepository) CountAnonymousSince(_ context.Context, ipAddress string, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, row := range r.logs {
		if row.IPAddress == ipAddress && !row.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// PruneAnonymousLogs implements ownership.Repository.
func (r *InMemoryRepository) PruneAnonymousLogs(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.logs[:0]
	var pruned int64
	for _, row := range r.logs {
		if row.CreatedAt.Before(before) {
			pruned++
			continue
		}
		kept = append(kept, row)
	}
	r.logs = kept
	return pruned, nil
}
