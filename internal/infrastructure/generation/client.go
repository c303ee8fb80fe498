package generation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"chat-gateway/internal/config"
	"chat-gateway/internal/domain/chat"
)

const (
	responseModeSync   = "sync"
	responseModeStream = "experimental_stream"
)

// Client talks to the external chat-generation service. It implements
// chat.Client; errors are returned as-is and never retried here.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	log     zerolog.Logger
}

var _ chat.Client = (*Client)(nil)

// NewClient builds the generation service client.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	return &Client{
		client:  newRestyClient("generation", cfg.GenerationTimeout, log),
		baseURL: strings.TrimRight(cfg.GenerationAPIURL, "/"),
		apiKey:  cfg.GenerationAPIKey,
		log:     log.With().Str("client", "generation").Logger(),
	}
}

type messagePayload struct {
	Message      string            `json:"message"`
	ResponseMode string            `json:"responseMode,omitempty"`
	Attachments  []chat.Attachment `json:"attachments,omitempty"`
}

type listEnvelope struct {
	Data []chat.ChatSummary `json:"data"`
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if c.apiKey != "" {
		req.SetHeader("Authorization", "Bearer "+c.apiKey)
	}
	return req
}

// Create starts a new chat synchronously.
func (c *Client) Create(ctx context.Context, params chat.MessageParams) (*chat.ChatDetail, error) {
	var detail chat.ChatDetail
	resp, err := c.prepareRequest(ctx).
		SetBody(messagePayload{
			Message:      params.Message,
			ResponseMode: responseModeSync,
			Attachments:  params.Attachments,
		}).
		SetResult(&detail).
		Post(c.endpoint("/v1/chats"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	return &detail, nil
}

// CreateStream starts a new chat and returns the live response byte stream.
func (c *Client) CreateStream(ctx context.Context, params chat.MessageParams) (io.ReadCloser, error) {
	return c.streamingRequest(ctx, c.endpoint("/v1/chats"), messagePayload{
		Message:      params.Message,
		ResponseMode: responseModeStream,
		Attachments:  params.Attachments,
	})
}

// SendMessage appends a message to an existing chat synchronously.
func (c *Client) SendMessage(ctx context.Context, chatID string, params chat.MessageParams) (*chat.ChatDetail, error) {
	var detail chat.ChatDetail
	resp, err := c.prepareRequest(ctx).
		SetBody(messagePayload{
			Message:     params.Message,
			Attachments: params.Attachments,
		}).
		SetResult(&detail).
		Post(c.endpoint("/v1/chats/" + chatID + "/messages"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	return &detail, nil
}

// SendMessageStream appends a message and returns the live byte stream.
func (c *Client) SendMessageStream(ctx context.Context, chatID string, params chat.MessageParams) (io.ReadCloser, error) {
	return c.streamingRequest(ctx, c.endpoint("/v1/chats/"+chatID+"/messages"), messagePayload{
		Message:      params.Message,
		ResponseMode: responseModeStream,
		Attachments:  params.Attachments,
	})
}

// GetByID fetches a materialized chat detail.
func (c *Client) GetByID(ctx context.Context, chatID string) (*chat.ChatDetail, error) {
	var detail chat.ChatDetail
	resp, err := c.prepareRequest(ctx).
		SetResult(&detail).
		Get(c.endpoint("/v1/chats/" + chatID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	return &detail, nil
}

// UpdateVisibility changes a chat's privacy setting.
func (c *Client) UpdateVisibility(ctx context.Context, chatID string, visibility chat.Visibility) (*chat.ChatDetail, error) {
	var detail chat.ChatDetail
	resp, err := c.prepareRequest(ctx).
		SetBody(map[string]string{"privacy": string(visibility)}).
		SetResult(&detail).
		Patch(c.endpoint("/v1/chats/" + chatID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	return &detail, nil
}

// Fork duplicates a chat. Forks always start private.
func (c *Client) Fork(ctx context.Context, chatID string) (*chat.ChatDetail, error) {
	var detail chat.ChatDetail
	resp, err := c.prepareRequest(ctx).
		SetBody(map[string]string{"privacy": string(chat.VisibilityPrivate)}).
		SetResult(&detail).
		Post(c.endpoint("/v1/chats/" + chatID + "/fork"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	return &detail, nil
}

// Delete removes a chat on the generation service.
func (c *Client) Delete(ctx context.Context, chatID string) error {
	resp, err := c.prepareRequest(ctx).
		Delete(c.endpoint("/v1/chats/" + chatID))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.errorFromResponse(resp)
	}
	return nil
}

// List fetches all chat summaries visible to the service credential.
func (c *Client) List(ctx context.Context) ([]chat.ChatSummary, error) {
	var envelope listEnvelope
	resp, err := c.prepareRequest(ctx).
		SetResult(&envelope).
		Get(c.endpoint("/v1/chats"))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(resp)
	}
	return envelope.Data, nil
}

// streamingRequest performs a request with raw response handling and pipes
// the body through unparsed. The returned reader is closed by the relay;
// closing it aborts the upstream read.
func (c *Client) streamingRequest(ctx context.Context, url string, payload messagePayload) (io.ReadCloser, error) {
	resp, err := c.prepareRequest(ctx).
		SetHeader("Accept-Encoding", "identity").
		SetBody(payload).
		SetDoNotParseResponse(true).
		Post(url)
	if err != nil {
		return nil, err
	}

	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, fmt.Errorf("generation service returned no body")
	}

	if resp.IsError() {
		body, _ := io.ReadAll(resp.RawResponse.Body)
		resp.RawResponse.Body.Close()
		return nil, fmt.Errorf("generation service returned %d: %s", resp.StatusCode(), strings.TrimSpace(string(body)))
	}

	reader, writer := io.Pipe()
	go func() {
		defer func() {
			if closeErr := resp.RawResponse.Body.Close(); closeErr != nil {
				c.log.Error().Err(closeErr).Msg("unable to close upstream stream body")
			}
		}()

		if _, copyErr := io.Copy(writer, resp.RawResponse.Body); copyErr != nil {
			_ = writer.CloseWithError(copyErr)
			return
		}
		_ = writer.Close()
	}()

	return reader, nil
}

func (c *Client) errorFromResponse(resp *resty.Response) error {
	body := strings.TrimSpace(resp.String())
	if body == "" {
		body = resp.Status()
	}
	return fmt.Errorf("generation service returned %d: %s", resp.StatusCode(), body)
}
