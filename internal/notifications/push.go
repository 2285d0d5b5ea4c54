package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"reviewhub/internal/domain/pushtokens"

	"github.com/9ssi7/exponent"
)

var ErrNoPushTokens = errors.New("no push tokens")

type pushContent struct {
	title string
	body  string
	data  map[string]string
}

// sendPush delivers one message per registered device of userID.
func sendPush(ctx context.Context, push PushSender, tokens pushtokens.Store, userID int64, content pushContent) error {
	tokensMap, err := tokens.GetTokensByUserIDs(ctx, []int64{userID})
	if err != nil {
		return err
	}
	deviceTokens := dedupe(tokensMap[userID])
	if len(deviceTokens) == 0 {
		return ErrNoPushTokens
	}

	msgs := make([]*exponent.Message, 0, len(deviceTokens))
	for _, t := range deviceTokens {
		//wrap the string token in exponent.Token to satisfy the type
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: content.title,
			Body:  content.body,
			Data:  content.data,
		})
	}

	_, err = push.Publish(ctx, msgs)
	return err
}

func stewardPush(c StewardChange, assigned bool) pushContent {
	venueID := strconv.FormatInt(c.Venue.ID, 10)
	if assigned {
		return pushContent{
			title: "You are now a venue manager",
			body:  fmt.Sprintf("You can now moderate reviews of %s", c.Venue.Name),
			data: map[string]string{
				"type":     "steward_assigned",
				"venue_id": venueID,
				"screen":   "venues/" + venueID + "/moderation",
			},
		}
	}
	return pushContent{
		title: "Venue manager access ended",
		body:  fmt.Sprintf("You no longer manage %s", c.Venue.Name),
		data: map[string]string{
			"type":     "steward_revoked",
			"venue_id": venueID,
			"screen":   "venues/" + venueID,
		},
	}
}

func moderationPush(m ReviewModeration) pushContent {
	var body string
	switch m.Action {
	case ModerationHidden:
		body = fmt.Sprintf("Your review of %s was hidden by the venue", m.Venue.Name)
	case ModerationUnhidden:
		body = fmt.Sprintf("Your review of %s is visible again", m.Venue.Name)
	default:
		body = fmt.Sprintf("Your review of %s was removed by the venue", m.Venue.Name)
	}
	return pushContent{
		title: "Review update",
		body:  body,
		data: map[string]string{
			"type":      "review_moderated",
			"action":    string(m.Action),
			"review_id": strconv.FormatInt(m.Review.ID, 10),
			"screen":    "venues/" + strconv.FormatInt(m.Venue.ID, 10) + "/reviews",
		},
	}
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
