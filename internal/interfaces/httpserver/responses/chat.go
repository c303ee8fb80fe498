package responses

import "chat-gateway/internal/domain/chat"

// ChatDetailResponse is the shape returned for a single conversation.
type ChatDetailResponse struct {
	ID       string         `json:"id"`
	Demo     string         `json:"demo,omitempty"`
	Privacy  string         `json:"privacy,omitempty"`
	Messages []chat.Message `json:"messages"`
}

// NewChatDetailResponse maps a domain detail to the HTTP shape. Messages
// is never null in the response body.
func NewChatDetailResponse(detail *chat.ChatDetail) ChatDetailResponse {
	messages := detail.Messages
	if messages == nil {
		messages = []chat.Message{}
	}
	return ChatDetailResponse{
		ID:       detail.ID,
		Demo:     detail.Demo,
		Privacy:  string(detail.Privacy),
		Messages: messages,
	}
}

// ChatListResponse wraps the conversation listing.
type ChatListResponse struct {
	Data []chat.ChatSummary `json:"data"`
}

// OwnershipResponse acknowledges a recorded attribution.
type OwnershipResponse struct {
	Success bool   `json:"success"`
	ChatID  string `json:"chatId"`
}

// DeleteResponse acknowledges a deleted conversation.
type DeleteResponse struct {
	Success bool `json:"success"`
}
