package ratelimit

import (
	"context"
	"fmt"
	"time"

	"chat-gateway/internal/domain/entitlement"
	"chat-gateway/internal/domain/identity"
	"chat-gateway/internal/utils/platformerrors"
)

// UsageCounter counts prior chat creations for an identity within a window.
// The ownership repository satisfies this.
type UsageCounter interface {
	CountOwnedSince(ctx context.Context, userID string, since time.Time) (int64, error)
	CountAnonymousSince(ctx context.Context, ipAddress string, since time.Time) (int64, error)
}

// Limiter enforces per-identity creation quotas over a rolling window. The
// check is read-only and advisory: it is not atomic with the attribution
// write that follows, so concurrent requests from one identity can both pass
// before either creation is recorded.
type Limiter struct {
	counter      UsageCounter
	entitlements entitlement.Table
	window       time.Duration
	now          func() time.Time
}

// NewLimiter constructs the limiter.
func NewLimiter(counter UsageCounter, entitlements entitlement.Table, window time.Duration) *Limiter {
	return &Limiter{
		counter:      counter,
		entitlements: entitlements,
		window:       window,
		now:          time.Now,
	}
}

// CheckQuota returns a rate-limited error when the identity's creation count
// within the trailing window has reached its entitlement. Reaching the limit
// blocks the next attempt.
func (l *Limiter) CheckQuota(ctx context.Context, id identity.Identity) error {
	since := l.now().Add(-l.window)

	var (
		count int64
		err   error
	)
	if id.IsAuthenticated() {
		count, err = l.counter.CountOwnedSince(ctx, id.UserID, since)
	} else {
		count, err = l.counter.CountAnonymousSince(ctx, id.NetworkAddress, since)
	}
	if err != nil {
		return platformerrors.AsError(platformerrors.LayerDomain, err, "failed to count prior chat creations")
	}

	limit := l.entitlements.ForIdentity(id).MaxMessagesPerDay
	if count >= int64(limit) {
		return platformerrors.NewError(platformerrors.LayerDomain, platformerrors.ErrorTypeRateLimited,
			"message quota exceeded", fmt.Errorf("%d of %d messages used in the current window", count, limit))
	}
	return nil
}
