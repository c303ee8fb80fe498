package ownership

import (
	"context"

	"github.com/rs/zerolog"

	"chat-gateway/internal/domain/identity"
	"chat-gateway/internal/utils/platformerrors"
)

// Ledger answers ownership and visibility questions and records chat
// attribution. Authorization mismatches are reported as not-found so the
// existence of another user's chat is never confirmed.
type Ledger struct {
	repo Repository
	log  zerolog.Logger
}

// NewLedger constructs the ledger service.
func NewLedger(repo Repository, log zerolog.Logger) *Ledger {
	return &Ledger{
		repo: repo,
		log:  log.With().Str("component", "ownership").Logger(),
	}
}

// RecordCreation attributes a newly created chat to the caller: an ownership
// row for authenticated users, an anonymous log row otherwise. Called exactly
// once per creation, never for sends to an existing chat.
func (l *Ledger) RecordCreation(ctx context.Context, chatID string, id identity.Identity) error {
	if id.IsAuthenticated() {
		err := l.repo.CreateOwnership(ctx, &ChatOwnership{
			ChatID: chatID,
			UserID: id.UserID,
		})
		if err != nil {
			return platformerrors.AsError(platformerrors.LayerDomain, err, "failed to record chat ownership")
		}
		return nil
	}

	err := l.repo.CreateAnonymousLog(ctx, &AnonymousChatLog{
		ChatID:    chatID,
		IPAddress: id.NetworkAddress,
	})
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "failed to record anonymous chat log")
	}
	return nil
}

// Ownership returns the ownership row for a chat, or nil when unowned.
func (l *Ledger) Ownership(ctx context.Context, chatID string) (*ChatOwnership, error) {
	row, err := l.repo.FindOwnership(ctx, chatID)
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "failed to look up chat ownership")
	}
	return row, nil
}

// AuthorizeRead checks whether the caller may fetch a chat. A missing
// ownership row allows the read: unowned chats and chats that do not exist
// are indistinguishable here, and the upstream fetch is the source of truth
// for existence.
func (l *Ledger) AuthorizeRead(ctx context.Context, chatID string, id identity.Identity) error {
	row, err := l.Ownership(ctx, chatID)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	if !id.IsAuthenticated() || row.UserID != id.UserID {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"chat not found", nil)
	}
	return nil
}

// AuthorizeMutate checks whether the caller may change a chat. Stricter than
// read: requires an authenticated caller and a matching ownership row.
func (l *Ledger) AuthorizeMutate(ctx context.Context, chatID string, id identity.Identity) error {
	if !id.IsAuthenticated() {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"authentication required", nil)
	}

	row, err := l.Ownership(ctx, chatID)
	if err != nil {
		return err
	}
	if row == nil || row.UserID != id.UserID {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"chat not found or access denied", nil)
	}
	return nil
}

// ListOwnedChatIDs returns the chat ids owned by a user.
func (l *Ledger) ListOwnedChatIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := l.repo.ListOwnedChatIDs(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(platformerrors.LayerDomain, err, "failed to list owned chats")
	}
	return ids, nil
}
