package ownershiprepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"chat-gateway/internal/domain/ownership"
	"chat-gateway/internal/infrastructure/database/entities"
	"chat-gateway/internal/utils/platformerrors"
)

// PostgresRepository persists ownership rows and anonymous creation logs.
type PostgresRepository struct {
	db *gorm.DB
}

var _ ownership.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository builds the GORM-backed repository.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateOwnership inserts a chat ownership row.
func (r *PostgresRepository) CreateOwnership(ctx context.Context, row *ownership.ChatOwnership) error {
	entity := entities.NewSchemaChatOwnership(row)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create chat ownership")
	}
	row.CreatedAt = entity.CreatedAt
	return nil
}

// CreateAnonymousLog appends an anonymous creation record.
func (r *PostgresRepository) CreateAnonymousLog(ctx context.Context, row *ownership.AnonymousChatLog) error {
	entity := entities.NewSchemaAnonymousChatLog(row)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.AsError(platformerrors.LayerRepository, err, "failed to create anonymous chat log")
	}
	row.CreatedAt = entity.CreatedAt
	return nil
}

// FindOwnership fetches the ownership row for a chat, (nil, nil) when absent.
func (r *PostgresRepository) FindOwnership(ctx context.Context, chatID string) (*ownership.ChatOwnership, error) {
	var entity entities.ChatOwnership
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to fetch chat ownership")
	}
	return entity.EtoD(), nil
}

// ListOwnedChatIDs returns the chat ids owned by a user, newest first.
func (r *PostgresRepository) ListOwnedChatIDs(ctx context.Context, userID string) ([]string, error) {
	var chatIDs []string
	err := r.db.WithContext(ctx).
		Model(&entities.ChatOwnership{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("chat_id", &chatIDs).Error
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to list owned chats")
	}
	return chatIDs, nil
}

// CountOwnedSince counts a user's chat creations within the trailing window.
func (r *PostgresRepository) CountOwnedSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.ChatOwnership{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to count owned chats")
	}
	return count, nil
}

// CountAnonymousSince counts anonymous creations for a network address
// within the trailing window.
func (r *PostgresRepository) CountAnonymousSince(ctx context.Context, ipAddress string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.AnonymousChatLog{}).
		Where("ip_address = ? AND created_at >= ?", ipAddress, since).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.AsError(platformerrors.LayerRepository, err, "failed to count anonymous chat logs")
	}
	return count, nil
}

// PruneAnonymousLogs removes anonymous records older than the cutoff and
// returns the number of rows deleted.
func (r *PostgresRepository) PruneAnonymousLogs(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&entities.AnonymousChatLog{})
	if result.Error != nil {
		return 0, platformerrors.AsError(platformerrors.LayerRepository, result.Error, "failed to prune anonymous chat logs")
	}
	return result.RowsAffected, nil
}
