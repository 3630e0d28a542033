package services

import (
	"context"

	"github.com/cinescope/apiserver/internal/logging"
)

const (
	EventUserRegistered = "user.registered"
	EventReviewCreated  = "review.created"
	EventReviewDeleted  = "review.deleted"
)

// EventPublisher emits domain events. Implementations must be safe for
// concurrent use.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// publish is best effort: a broker failure never fails the request.
func publish(ctx context.Context, p EventPublisher, event string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event, payload); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event", event).Msg("publish event failed")
	}
}
