package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-gateway/internal/domain/chat"
	"chat-gateway/internal/domain/identity"
	"chat-gateway/internal/infrastructure/metrics"
	"chat-gateway/internal/infrastructure/observability"
	"chat-gateway/internal/interfaces/httpserver/middlewares"
	"chat-gateway/internal/interfaces/httpserver/requests"
	"chat-gateway/internal/interfaces/httpserver/responses"
	"chat-gateway/internal/utils/platformerrors"
)

// streamChunkSize is the read buffer size used when relaying upstream
// streams to the client.
const streamChunkSize = 4096

// ChatHandler exposes the gateway over HTTP.
type ChatHandler struct {
	gateway *chat.Gateway
	log     zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(gateway *chat.Gateway, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		gateway: gateway,
		log:     log.With().Str("component", "chat_handler").Logger(),
	}
}

// Submit handles chat creation and continuation.
//
//	@Summary	Submit a chat message
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		request	body		requests.SubmitChatRequest	true	"Chat message"
//	@Success	200		{object}	responses.ChatDetailResponse
//	@Failure	400		{object}	platformerrors.HTTPErrorResponse
//	@Failure	429		{object}	platformerrors.HTTPErrorResponse
//	@Router		/chat [post]
func (h *ChatHandler) Submit(c *gin.Context) {
	var req requests.SubmitChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "invalid request body")
		return
	}

	id := identity.FromContext(c)

	ctx, span := observability.StartDispatchSpan(c.Request.Context(), string(id.Class()), req.Streaming, req.ChatID == "")
	defer span.End()

	result, err := h.gateway.Submit(ctx, id, chat.SubmitParams{
		Message:     req.Message,
		ChatID:      req.ChatID,
		Streaming:   req.Streaming,
		Attachments: req.ChatAttachments(),
	})
	if err != nil {
		observability.RecordError(span, err)
		platformerrors.WriteError(c, err, h.log)
		return
	}

	if result.Stream != nil {
		h.relayStream(c, result.Stream)
		return
	}

	c.JSON(http.StatusOK, responses.NewChatDetailResponse(result.Detail))
}

// relayStream copies upstream bytes to the client as they arrive,
// flushing after every chunk. Client disconnect aborts the upstream
// read through the deferred close.
func (h *ChatHandler) relayStream(c *gin.Context, stream io.ReadCloser) {
	defer stream.Close()

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		h.log.Error().Msg("response writer does not support streaming")
		return
	}

	metrics.StreamRelaysActive.Inc()
	defer metrics.StreamRelaysActive.Dec()

	clientGone := c.Request.Context().Done()
	buf := make([]byte, streamChunkSize)
	for {
		select {
		case <-clientGone:
			h.log.Debug().Msg("client disconnected during stream relay")
			return
		default:
		}

		n, err := stream.Read(buf)
		if n > 0 {
			if _, writeErr := c.Writer.Write(buf[:n]); writeErr != nil {
				h.log.Debug().Err(writeErr).Msg("stream relay write failed")
				return
			}
			flusher.Flush()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.log.Warn().Err(err).Msg("stream relay ended with error")
			}
			return
		}
	}
}

// List returns the chats owned by the caller.
//
//	@Summary	List owned chats
//	@Tags		chat
//	@Produce	json
//	@Success	200	{object}	responses.ChatListResponse
//	@Router		/chats [get]
func (h *ChatHandler) List(c *gin.Context) {
	id := identity.FromContext(c)

	summaries, err := h.gateway.ListChats(c.Request.Context(), id)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.ChatListResponse{Data: summaries})
}

// Get returns a single chat subject to ownership checks.
//
//	@Summary	Get a chat
//	@Tags		chat
//	@Produce	json
//	@Param		chatId	path		string	true	"Chat id"
//	@Success	200		{object}	responses.ChatDetailResponse
//	@Failure	404		{object}	platformerrors.HTTPErrorResponse
//	@Router		/chats/{chatId} [get]
func (h *ChatHandler) Get(c *gin.Context) {
	id := identity.FromContext(c)

	detail, err := h.gateway.GetChat(c.Request.Context(), id, c.Param("chatId"))
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.NewChatDetailResponse(detail))
}

// UpdateVisibility changes a chat's privacy setting.
//
//	@Summary	Update chat visibility
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		chatId	path		string								true	"Chat id"
//	@Param		request	body		requests.UpdateVisibilityRequest	true	"New visibility"
//	@Success	200		{object}	responses.ChatDetailResponse
//	@Failure	400		{object}	platformerrors.HTTPErrorResponse
//	@Failure	401		{object}	platformerrors.HTTPErrorResponse
//	@Failure	404		{object}	platformerrors.HTTPErrorResponse
//	@Router		/chats/{chatId}/visibility [patch]
func (h *ChatHandler) UpdateVisibility(c *gin.Context) {
	id := identity.FromContext(c)

	// Binding failures leave Privacy empty; authorization runs before the
	// value check, so unauthenticated callers get 401 and non-owners get
	// 404 regardless of what the body holds.
	var req requests.UpdateVisibilityRequest
	_ = c.ShouldBindJSON(&req)

	detail, err := h.gateway.ChangeVisibility(c.Request.Context(), id, c.Param("chatId"), req.Privacy)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.NewChatDetailResponse(detail))
}

// Fork duplicates an existing chat into a new private one.
//
//	@Summary	Fork a chat
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		request	body		requests.ChatRefRequest	true	"Chat to fork"
//	@Success	200		{object}	responses.ChatDetailResponse
//	@Failure	400		{object}	platformerrors.HTTPErrorResponse
//	@Router		/chat/fork [post]
func (h *ChatHandler) Fork(c *gin.Context) {
	var req requests.ChatRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "chatId is required")
		return
	}

	detail, err := h.gateway.Fork(c.Request.Context(), req.ChatID)
	if err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.NewChatDetailResponse(detail))
}

// Delete removes a chat from the generation service.
//
//	@Summary	Delete a chat
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		request	body		requests.ChatRefRequest	true	"Chat to delete"
//	@Success	200		{object}	responses.DeleteResponse
//	@Failure	400		{object}	platformerrors.HTTPErrorResponse
//	@Router		/chat/delete [post]
func (h *ChatHandler) Delete(c *gin.Context) {
	var req requests.ChatRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "chatId is required")
		return
	}

	if err := h.gateway.Delete(c.Request.Context(), req.ChatID); err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.DeleteResponse{Success: true})
}

// RecordOwnership attributes a chat to the caller. Used after streaming
// creations, where the chat id is only known once the stream completes.
//
//	@Summary	Record chat ownership
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		request	body		requests.ChatRefRequest	true	"Chat to attribute"
//	@Success	200		{object}	responses.OwnershipResponse
//	@Failure	400		{object}	platformerrors.HTTPErrorResponse
//	@Router		/chat/ownership [post]
func (h *ChatHandler) RecordOwnership(c *gin.Context) {
	var req requests.ChatRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "chatId is required")
		return
	}

	id := identity.FromContext(c)

	if err := h.gateway.Attribute(c.Request.Context(), req.ChatID, id); err != nil {
		platformerrors.WriteError(c, err, h.log)
		return
	}

	c.JSON(http.StatusOK, responses.OwnershipResponse{Success: true, ChatID: req.ChatID})
}
