package chat

import (
	"context"
	"io"
)

// Visibility is the fixed set of chat privacy settings understood by the
// generation service.
type Visibility string

const (
	VisibilityPublic   Visibility = "public"
	VisibilityPrivate  Visibility = "private"
	VisibilityTeam     Visibility = "team"
	VisibilityTeamEdit Visibility = "team-edit"
	VisibilityUnlisted Visibility = "unlisted"
)

// ParseVisibility validates a raw privacy value against the fixed set.
func ParseVisibility(raw string) (Visibility, bool) {
	switch Visibility(raw) {
	case VisibilityPublic, VisibilityPrivate, VisibilityTeam, VisibilityTeamEdit, VisibilityUnlisted:
		return Visibility(raw), true
	default:
		return "", false
	}
}

// Message is an opaque chat message owned by the generation service. The
// gateway forwards it without interpreting its shape.
type Message map[string]any

// ChatDetail is the materialized view of a chat as returned by the
// generation service. Opaque except for id, privacy and messages.
type ChatDetail struct {
	ID       string     `json:"id"`
	Demo     string     `json:"demo,omitempty"`
	Privacy  Visibility `json:"privacy,omitempty"`
	Messages []Message  `json:"messages"`
}

// ChatSummary is a list entry from the generation service.
type ChatSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Privacy   string `json:"privacy,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// Attachment references externally hosted content included with a message.
type Attachment struct {
	URL string `json:"url"`
}

// MessageParams carries the user message for a create or send dispatch.
type MessageParams struct {
	Message     string
	Attachments []Attachment
}

// Client is the contract the gateway consumes from the external generation
// service. Streams are live byte streams relayed verbatim to the caller.
// Errors are surfaced as-is; the gateway never retries.
type Client interface {
	Create(ctx context.Context, params MessageParams) (*ChatDetail, error)
	CreateStream(ctx context.Context, params MessageParams) (io.ReadCloser, error)
	SendMessage(ctx context.Context, chatID string, params MessageParams) (*ChatDetail, error)
	SendMessageStream(ctx context.Context, chatID string, params MessageParams) (io.ReadCloser, error)
	GetByID(ctx context.Context, chatID string) (*ChatDetail, error)
	UpdateVisibility(ctx context.Context, chatID string, visibility Visibility) (*ChatDetail, error)
	Fork(ctx context.Context, chatID string) (*ChatDetail, error)
	Delete(ctx context.Context, chatID string) error
	List(ctx context.Context) ([]ChatSummary, error)
}
