package notifications

import (
	"context"

	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/domain/users"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"
)

type StewardChange struct {
	Grant   stewardship.Grant
	Steward users.User
	Venue   venues.Venue
}

type ModerationAction string

const (
	ModerationHidden   ModerationAction = "hidden"
	ModerationUnhidden ModerationAction = "unhidden"
	ModerationRemoved  ModerationAction = "removed"
)

type ReviewModeration struct {
	Review venuereviews.Review
	Venue  venues.Venue
	Action ModerationAction
}

// Notifier is informed after a stewardship or moderation change has been
// committed. Implementations must not block the caller.
type Notifier interface {
	StewardAssigned(ctx context.Context, change StewardChange)
	StewardRevoked(ctx context.Context, change StewardChange)
	ReviewModerated(ctx context.Context, moderation ReviewModeration)
}

type Nop struct{}

func (Nop) StewardAssigned(context.Context, StewardChange)    {}
func (Nop) StewardRevoked(context.Context, StewardChange)     {}
func (Nop) ReviewModerated(context.Context, ReviewModeration) {}
