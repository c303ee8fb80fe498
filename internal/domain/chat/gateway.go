package chat

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"chat-gateway/internal/domain/identity"
	"chat-gateway/internal/domain/ownership"
	"chat-gateway/internal/domain/ratelimit"
	"chat-gateway/internal/infrastructure/metrics"
	"chat-gateway/internal/utils/platformerrors"
)

// Gateway orchestrates a chat request: quota check, dispatch to the
// generation service, ownership attribution and authorization for reads and
// visibility changes. It is the only component that touches all of them.
type Gateway struct {
	client  Client
	limiter *ratelimit.Limiter
	ledger  *ownership.Ledger
	log     zerolog.Logger
}

// NewGateway constructs the gateway service.
func NewGateway(client Client, limiter *ratelimit.Limiter, ledger *ownership.Ledger, log zerolog.Logger) *Gateway {
	return &Gateway{
		client:  client,
		limiter: limiter,
		ledger:  ledger,
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

// SubmitParams describes one inbound chat message.
type SubmitParams struct {
	Message     string
	ChatID      string
	Streaming   bool
	Attachments []Attachment
}

// SubmitResult is either a materialized chat detail or a live byte stream,
// never both. Created reports whether this dispatch created a new chat.
type SubmitResult struct {
	Detail  *ChatDetail
	Stream  io.ReadCloser
	Created bool
}

// Submit handles a create-or-continue request. A quota denial is terminal:
// no dispatch happens. Sync creations are attributed before returning;
// streaming creations cannot be, because the new chat id only surfaces once
// the stream completes, so attribution is deferred to Attribute.
func (g *Gateway) Submit(ctx context.Context, id identity.Identity, params SubmitParams) (*SubmitResult, error) {
	if params.Message == "" {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"message is required", nil)
	}

	if err := g.limiter.CheckQuota(ctx, id); err != nil {
		if platformerrors.IsType(err, platformerrors.ErrorTypeRateLimited) {
			metrics.RecordRateLimited(string(id.Class()))
			g.log.Warn().
				Str("quota_key", id.QuotaKey()).
				Str("identity_class", string(id.Class())).
				Msg("message quota exceeded")
		}
		return nil, err
	}

	msg := MessageParams{Message: params.Message, Attachments: params.Attachments}

	if params.ChatID != "" {
		return g.sendToExisting(ctx, params.ChatID, msg, params.Streaming)
	}
	return g.createNew(ctx, id, msg, params.Streaming)
}

func (g *Gateway) sendToExisting(ctx context.Context, chatID string, msg MessageParams, streaming bool) (*SubmitResult, error) {
	if streaming {
		stream, err := g.client.SendMessageStream(ctx, chatID, msg)
		if err != nil {
			return nil, g.upstreamError(err, "send_message")
		}
		return &SubmitResult{Stream: stream}, nil
	}

	detail, err := g.client.SendMessage(ctx, chatID, msg)
	if err != nil {
		return nil, g.upstreamError(err, "send_message")
	}
	return &SubmitResult{Detail: detail}, nil
}

func (g *Gateway) createNew(ctx context.Context, id identity.Identity, msg MessageParams, streaming bool) (*SubmitResult, error) {
	if streaming {
		stream, err := g.client.CreateStream(ctx, msg)
		if err != nil {
			return nil, g.upstreamError(err, "create")
		}
		return &SubmitResult{Stream: stream, Created: true}, nil
	}

	detail, err := g.client.Create(ctx, msg)
	if err != nil {
		return nil, g.upstreamError(err, "create")
	}

	if detail.ID != "" {
		// The external chat exists regardless of whether attribution lands,
		// so a failed write must not fail the response.
		if err := g.ledger.RecordCreation(ctx, detail.ID, id); err != nil {
			g.log.Error().Err(err).Str("chat_id", detail.ID).Msg("chat attribution failed")
		} else {
			metrics.RecordChatCreated(string(id.Class()))
		}
	}

	return &SubmitResult{Detail: detail, Created: true}, nil
}

// Attribute records ownership for a chat created out of band, typically after
// the caller consumed a creation stream and learned the chat id from its
// terminal event. Unlike the inline path, failures are surfaced.
func (g *Gateway) Attribute(ctx context.Context, chatID string, id identity.Identity) error {
	if chatID == "" {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"chat id is required", nil)
	}
	if err := g.ledger.RecordCreation(ctx, chatID, id); err != nil {
		return err
	}
	metrics.RecordChatCreated(string(id.Class()))
	return nil
}

// GetChat authorizes then fetches a chat. A missing ownership row does not
// block the fetch; the generation service decides existence.
func (g *Gateway) GetChat(ctx context.Context, id identity.Identity, chatID string) (*ChatDetail, error) {
	if chatID == "" {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"chat id is required", nil)
	}
	if err := g.ledger.AuthorizeRead(ctx, chatID, id); err != nil {
		return nil, err
	}

	detail, err := g.client.GetByID(ctx, chatID)
	if err != nil {
		return nil, g.upstreamError(err, "get_chat")
	}
	return detail, nil
}

// ListChats returns the chats owned by the caller. Unauthenticated callers
// get an empty list.
func (g *Gateway) ListChats(ctx context.Context, id identity.Identity) ([]ChatSummary, error) {
	if !id.IsAuthenticated() {
		return []ChatSummary{}, nil
	}

	ownedIDs, err := g.ledger.ListOwnedChatIDs(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if len(ownedIDs) == 0 {
		return []ChatSummary{}, nil
	}

	all, err := g.client.List(ctx)
	if err != nil {
		return nil, g.upstreamError(err, "list_chats")
	}

	owned := make(map[string]struct{}, len(ownedIDs))
	for _, chatID := range ownedIDs {
		owned[chatID] = struct{}{}
	}

	result := make([]ChatSummary, 0, len(ownedIDs))
	for _, summary := range all {
		if _, ok := owned[summary.ID]; ok {
			result = append(result, summary)
		}
	}
	return result, nil
}

// ChangeVisibility authorizes, validates the requested value against the
// fixed set, then updates the chat. Both checks run before any upstream call.
func (g *Gateway) ChangeVisibility(ctx context.Context, id identity.Identity, chatID, rawVisibility string) (*ChatDetail, error) {
	if chatID == "" {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"chat id is required", nil)
	}
	if err := g.ledger.AuthorizeMutate(ctx, chatID, id); err != nil {
		return nil, err
	}

	visibility, ok := ParseVisibility(rawVisibility)
	if !ok {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"invalid privacy setting", nil)
	}

	detail, err := g.client.UpdateVisibility(ctx, chatID, visibility)
	if err != nil {
		return nil, g.upstreamError(err, "update_visibility")
	}
	return detail, nil
}

// Fork forks a chat on the generation service.
func (g *Gateway) Fork(ctx context.Context, chatID string) (*ChatDetail, error) {
	if chatID == "" {
		return nil, platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"chat id is required", nil)
	}
	detail, err := g.client.Fork(ctx, chatID)
	if err != nil {
		return nil, g.upstreamError(err, "fork")
	}
	return detail, nil
}

// Delete deletes a chat on the generation service. The ownership row, if
// any, is intentionally left in place: it is historical quota data.
func (g *Gateway) Delete(ctx context.Context, chatID string) error {
	if chatID == "" {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"chat id is required", nil)
	}
	if err := g.client.Delete(ctx, chatID); err != nil {
		return g.upstreamError(err, "delete")
	}
	return nil
}

func (g *Gateway) upstreamError(err error, operation string) error {
	metrics.RecordGenerationError(operation)
	return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
		"failed to process request", err)
}
