package requests

import "chat-gateway/internal/domain/chat"

// SubmitChatRequest is the body for POST /chat. When ChatID is empty a
// new conversation is created, otherwise the message is appended to the
// existing one.
type SubmitChatRequest struct {
	Message     string   `json:"message"`
	ChatID      string   `json:"chatId"`
	Streaming   bool     `json:"streaming"`
	Attachments []string `json:"attachments"`
}

// ChatAttachments converts the raw attachment URLs into domain values.
func (r *SubmitChatRequest) ChatAttachments() []chat.Attachment {
	if len(r.Attachments) == 0 {
		return nil
	}
	attachments := make([]chat.Attachment, 0, len(r.Attachments))
	for _, url := range r.Attachments {
		attachments = append(attachments, chat.Attachment{URL: url})
	}
	return attachments
}

// ChatRefRequest carries a chat id in the body, used by the fork,
// delete and ownership endpoints.
type ChatRefRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

// UpdateVisibilityRequest is the body for PATCH /chats/:chatId/visibility.
// Privacy is validated after authorization, not at binding time, so a bad
// body never reveals more than the caller is allowed to learn.
type UpdateVisibilityRequest struct {
	Privacy string `json:"privacy"`
}
