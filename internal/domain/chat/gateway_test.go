package chat_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-gateway/internal/domain/chat"
	"chat-gateway/internal/domain/entitlement"
	"chat-gateway/internal/domain/identity"
	"chat-gateway/internal/domain/ownership"
	"chat-gateway/internal/domain/ratelimit"
	"chat-gateway/internal/infrastructure/repository/ownershiprepo"
	"chat-gateway/internal/utils/platformerrors"
)

type mockClient struct {
	createFn           func(ctx context.Context, params chat.MessageParams) (*chat.ChatDetail, error)
	createStreamFn     func(ctx context.Context, params chat.MessageParams) (io.ReadCloser, error)
	sendFn             func(ctx context.Context, chatID string, params chat.MessageParams) (*chat.ChatDetail, error)
	sendStreamFn       func(ctx context.Context, chatID string, params chat.MessageParams) (io.ReadCloser, error)
	getFn              func(ctx context.Context, chatID string) (*chat.ChatDetail, error)
	updateVisibilityFn func(ctx context.Context, chatID string, visibility chat.Visibility) (*chat.ChatDetail, error)
	forkFn             func(ctx context.Context, chatID string) (*chat.ChatDetail, error)
	deleteFn           func(ctx context.Context, chatID string) error
	listFn             func(ctx context.Context) ([]chat.ChatSummary, error)

	calls int
}

func (m *mockClient) Create(ctx context.Context, params chat.MessageParams) (*chat.ChatDetail, error) {
	m.calls++
	return m.createFn(ctx, params)
}

func (m *mockClient) CreateStream(ctx context.Context, params chat.MessageParams) (io.ReadCloser, error) {
	m.calls++
	return m.createStreamFn(ctx, params)
}

func (m *mockClient) SendMessage(ctx context.Context, chatID string, params chat.MessageParams) (*chat.ChatDetail, error) {
	m.calls++
	return m.sendFn(ctx, chatID, params)
}

func (m *mockClient) SendMessageStream(ctx context.Context, chatID string, params chat.MessageParams) (io.ReadCloser, error) {
	m.calls++
	return m.sendStreamFn(ctx, chatID, params)
}

func (m *mockClient) GetByID(ctx context.Context, chatID string) (*chat.ChatDetail, error) {
	m.calls++
	return m.getFn(ctx, chatID)
}

func (m *mockClient) UpdateVisibility(ctx context.Context, chatID string, visibility chat.Visibility) (*chat.ChatDetail, error) {
	m.calls++
	return m.updateVisibilityFn(ctx, chatID, visibility)
}

func (m *mockClient) Fork(ctx context.Context, chatID string) (*chat.ChatDetail, error) {
	m.calls++
	return m.forkFn(ctx, chatID)
}

func (m *mockClient) Delete(ctx context.Context, chatID string) error {
	m.calls++
	return m.deleteFn(ctx, chatID)
}

func (m *mockClient) List(ctx context.Context) ([]chat.ChatSummary, error) {
	m.calls++
	return m.listFn(ctx)
}

func newGateway(client chat.Client) (*chat.Gateway, *ownershiprepo.InMemoryRepository) {
	repo := ownershiprepo.NewInMemoryRepository()
	ledger := ownership.NewLedger(repo, zerolog.Nop())
	entitlements := entitlement.Table{
		identity.ClassAnonymous: {MaxMessagesPerDay: 2},
		identity.ClassGuest:     {MaxMessagesPerDay: 5},
		identity.ClassRegular:   {MaxMessagesPerDay: 10},
	}
	limiter := ratelimit.NewLimiter(repo, entitlements, 24*time.Hour)
	return chat.NewGateway(client, limiter, ledger, zerolog.Nop()), repo
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	client := &mockClient{}
	gateway, _ := newGateway(client)

	_, err := gateway.Submit(context.Background(), identity.NewAnonymous("203.0.113.7"), chat.SubmitParams{})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
	assert.Zero(t, client.calls, "no dispatch on validation failure")
}

func TestSubmitQuotaDenialSkipsDispatch(t *testing.T) {
	client := &mockClient{}
	gateway, _ := newGateway(client)
	ctx := context.Background()
	anon := identity.NewAnonymous("203.0.113.7")

	// Exhaust the anonymous allowance of two creations.
	for i := 0; i < 2; i++ {
		chatID := fmt.Sprintf("chat-%d", i)
		client.createFn = func(_ context.Context, _ chat.MessageParams) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: chatID}, nil
		}
		_, err := gateway.Submit(ctx, anon, chat.SubmitParams{Message: "hello"})
		require.NoError(t, err)
	}

	callsBefore := client.calls
	_, err := gateway.Submit(ctx, anon, chat.SubmitParams{Message: "one too many"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeRateLimited))
	assert.Equal(t, callsBefore, client.calls, "denied request must not reach the generation service")
}

func TestSubmitQuotaDenialLogsQuotaKey(t *testing.T) {
	client := &mockClient{}
	repo := ownershiprepo.NewInMemoryRepository()
	ledger := ownership.NewLedger(repo, zerolog.Nop())
	entitlements := entitlement.Table{
		identity.ClassAnonymous: {MaxMessagesPerDay: 0},
	}
	limiter := ratelimit.NewLimiter(repo, entitlements, 24*time.Hour)

	var logs bytes.Buffer
	gateway := chat.NewGateway(client, limiter, ledger, zerolog.New(&logs))

	_, err := gateway.Submit(context.Background(), identity.NewAnonymous("203.0.113.7"), chat.SubmitParams{Message: "hello"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeRateLimited))
	assert.Contains(t, logs.String(), "ip:203.0.113.7", "denial log should carry the quota bucketing key")
}

func TestSubmitSyncCreateAttributesOwnership(t *testing.T) {
	client := &mockClient{
		createFn: func(_ context.Context, _ chat.MessageParams) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: "chat-1", Messages: []chat.Message{{"role": "assistant"}}}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	result, err := gateway.Submit(ctx, identity.NewUser("user-1", identity.UserTypeRegular), chat.SubmitParams{Message: "hello"})
	require.NoError(t, err)
	assert.True(t, result.Created)
	require.NotNil(t, result.Detail)
	assert.Equal(t, "chat-1", result.Detail.ID)

	row, err := repo.FindOwnership(ctx, "chat-1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "user-1", row.UserID)
}

func TestSubmitSyncCreateAnonymousLogsUsage(t *testing.T) {
	client := &mockClient{
		createFn: func(_ context.Context, _ chat.MessageParams) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: "chat-1"}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	_, err := gateway.Submit(ctx, identity.NewAnonymous("203.0.113.7"), chat.SubmitParams{Message: "hello"})
	require.NoError(t, err)

	count, err := repo.CountAnonymousSince(ctx, "203.0.113.7", time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	row, err := repo.FindOwnership(ctx, "chat-1")
	require.NoError(t, err)
	assert.Nil(t, row, "anonymous creations never own the chat")
}

func TestSubmitSendDoesNotAttribute(t *testing.T) {
	client := &mockClient{
		sendFn: func(_ context.Context, chatID string, _ chat.MessageParams) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: chatID}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	result, err := gateway.Submit(ctx, identity.NewUser("user-1", identity.UserTypeRegular),
		chat.SubmitParams{Message: "follow up", ChatID: "chat-1"})
	require.NoError(t, err)
	assert.False(t, result.Created)

	row, err := repo.FindOwnership(ctx, "chat-1")
	require.NoError(t, err)
	assert.Nil(t, row, "sends to existing chats never attribute")
}

func TestSubmitStreamingCreateDefersAttribution(t *testing.T) {
	client := &mockClient{
		createStreamFn: func(_ context.Context, _ chat.MessageParams) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data: chunk\n\n")), nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()
	id := identity.NewUser("user-1", identity.UserTypeRegular)

	result, err := gateway.Submit(ctx, id, chat.SubmitParams{Message: "hello", Streaming: true})
	require.NoError(t, err)
	require.NotNil(t, result.Stream)
	assert.True(t, result.Created)
	defer result.Stream.Close()

	// The chat id is unknown until the stream completes; the caller reports
	// it afterwards.
	require.NoError(t, gateway.Attribute(ctx, "chat-1", id))

	row, err := repo.FindOwnership(ctx, "chat-1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "user-1", row.UserID)
}

func TestSubmitAttributionFailureDoesNotFailResponse(t *testing.T) {
	client := &mockClient{
		createFn: func(_ context.Context, _ chat.MessageParams) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: "chat-dup"}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	// A pre-existing row makes the attribution write fail.
	require.NoError(t, repo.CreateOwnership(ctx, &ownership.ChatOwnership{ChatID: "chat-dup", UserID: "someone-else"}))

	result, err := gateway.Submit(ctx, identity.NewUser("user-1", identity.UserTypeRegular), chat.SubmitParams{Message: "hello"})
	require.NoError(t, err, "the chat exists upstream, so the response must succeed")
	assert.Equal(t, "chat-dup", result.Detail.ID)
}

func TestGetChatDeniesNonOwner(t *testing.T) {
	client := &mockClient{
		getFn: func(_ context.Context, chatID string) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: chatID}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	require.NoError(t, repo.CreateOwnership(ctx, &ownership.ChatOwnership{ChatID: "chat-1", UserID: "user-1"}))

	callsBefore := client.calls
	_, err := gateway.GetChat(ctx, identity.NewUser("user-2", identity.UserTypeRegular), "chat-1")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeNotFound))
	assert.Equal(t, callsBefore, client.calls, "denied read must not hit the generation service")

	detail, err := gateway.GetChat(ctx, identity.NewUser("user-1", identity.UserTypeRegular), "chat-1")
	require.NoError(t, err)
	assert.Equal(t, "chat-1", detail.ID)
}

func TestListChatsFiltersToOwned(t *testing.T) {
	client := &mockClient{
		listFn: func(_ context.Context) ([]chat.ChatSummary, error) {
			return []chat.ChatSummary{{ID: "chat-1"}, {ID: "chat-2"}, {ID: "chat-3"}}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	require.NoError(t, repo.CreateOwnership(ctx, &ownership.ChatOwnership{ChatID: "chat-1", UserID: "user-1"}))
	require.NoError(t, repo.CreateOwnership(ctx, &ownership.ChatOwnership{ChatID: "chat-3", UserID: "user-1"}))

	summaries, err := gateway.ListChats(ctx, identity.NewUser("user-1", identity.UserTypeRegular))
	require.NoError(t, err)

	ids := make([]string, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"chat-1", "chat-3"}, ids)
}

func TestListChatsAnonymousIsEmpty(t *testing.T) {
	client := &mockClient{}
	gateway, _ := newGateway(client)

	summaries, err := gateway.ListChats(context.Background(), identity.NewAnonymous("203.0.113.7"))
	require.NoError(t, err)
	assert.Empty(t, summaries)
	assert.Zero(t, client.calls, "anonymous listing never hits the generation service")
}

func TestChangeVisibilityValidatesValue(t *testing.T) {
	client := &mockClient{}
	gateway, repo := newGateway(client)
	ctx := context.Background()
	id := identity.NewUser("user-1", identity.UserTypeRegular)

	require.NoError(t, repo.CreateOwnership(ctx, &ownership.ChatOwnership{ChatID: "chat-1", UserID: "user-1"}))

	_, err := gateway.ChangeVisibility(ctx, id, "chat-1", "everyone")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeValidation))
	assert.Zero(t, client.calls, "invalid visibility must not reach the generation service")
}

func TestChangeVisibilityRequiresOwnership(t *testing.T) {
	client := &mockClient{
		updateVisibilityFn: func(_ context.Context, chatID string, visibility chat.Visibility) (*chat.ChatDetail, error) {
			return &chat.ChatDetail{ID: chatID, Privacy: visibility}, nil
		},
	}
	gateway, repo := newGateway(client)
	ctx := context.Background()

	require.NoError(t, repo.CreateOwnership(ctx, &ownership.ChatOwnership{ChatID: "chat-1", UserID: "user-1"}))

	_, err := gateway.ChangeVisibility(ctx, identity.NewAnonymous("203.0.113.7"), "chat-1", "public")
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeUnauthorized))

	detail, err := gateway.ChangeVisibility(ctx, identity.NewUser("user-1", identity.UserTypeRegular), "chat-1", "public")
	require.NoError(t, err)
	assert.Equal(t, chat.VisibilityPublic, detail.Privacy)
}

func TestUpstreamFailureIsExternal(t *testing.T) {
	client := &mockClient{
		createFn: func(_ context.Context, _ chat.MessageParams) (*chat.ChatDetail, error) {
			return nil, io.ErrUnexpectedEOF
		},
	}
	gateway, _ := newGateway(client)

	_, err := gateway.Submit(context.Background(), identity.NewUser("user-1", identity.UserTypeRegular),
		chat.SubmitParams{Message: "hello"})
	require.Error(t, err)
	assert.True(t, platformerrors.IsType(err, platformerrors.ErrorTypeExternal))
}
