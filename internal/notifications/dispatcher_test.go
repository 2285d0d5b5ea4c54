package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"reviewhub/internal/domain/pushtokens"
	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/domain/users"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPush struct {
	mu   sync.Mutex
	msgs []*exponent.Message
}

func (p *recordingPush) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msgs...)
	return nil, nil
}

type sentMail struct {
	template string
	email    string
	data     any
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(templateFile, _, email string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{template: templateFile, email: email, data: data})
	return m.err
}

type published struct {
	subject string
	event   any
}

type recordingEvents struct {
	mu     sync.Mutex
	events []published
}

func (e *recordingEvents) Publish(_ context.Context, subject string, event any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, published{subject: subject, event: event})
	return nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingPush, *recordingMailer, *recordingEvents, *pushtokens.InMemoryStore) {
	t.Helper()
	tokens := pushtokens.NewInMemoryStore()
	push := &recordingPush{}
	mail := &recordingMailer{}
	events := &recordingEvents{}

	d := NewDispatcher(zap.NewNop().Sugar())
	d.Mailer = mail
	d.Push = push
	d.Tokens = tokens
	d.Events = events
	d.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return d, push, mail, events, tokens
}

func stewardChange() StewardChange {
	end := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return StewardChange{
		Grant: stewardship.Grant{
			ID: 3, UserID: 7, VenueID: 11,
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   &end,
		},
		Steward: users.User{ID: 7, Email: "mira@example.com", FirstName: "Mira"},
		Venue:   venues.Venue{ID: 11, Name: "Blue Hall"},
	}
}

func TestStewardRevokedFansOut(t *testing.T) {
	d, push, mail, events, tokens := newTestDispatcher(t)
	tokens.Add(7, "ExponentPushToken[a]")
	tokens.Add(7, "ExponentPushToken[a]")
	tokens.Add(7, "ExponentPushToken[b]")

	d.StewardRevoked(context.Background(), stewardChange())
	d.Wait()

	require.Len(t, events.events, 1)
	assert.Equal(t, SubjectStewardRevoked, events.events[0].subject)
	ev, ok := events.events[0].event.(StewardEvent)
	require.True(t, ok)
	assert.Equal(t, int64(3), ev.GrantID)
	assert.NotEmpty(t, ev.EventID)
	require.NotNil(t, ev.EndDate)

	require.Len(t, mail.sent, 1)
	assert.Equal(t, "steward_revoked.tmpl", mail.sent[0].template)
	assert.Equal(t, "mira@example.com", mail.sent[0].email)
	assert.Equal(t, "2024-06-15", mail.sent[0].data.(stewardMail).EndDate)

	require.Len(t, push.msgs, 2, "duplicate device tokens are sent once")
	assert.Equal(t, "Venue manager access ended", push.msgs[0].Title)
	assert.Equal(t, "steward_revoked", push.msgs[0].Data["type"])
}

func TestStewardAssignedWithoutTokensStillMails(t *testing.T) {
	d, push, mail, events, _ := newTestDispatcher(t)
	c := stewardChange()
	c.Grant.EndDate = nil

	err := d.sendStewardChange(context.Background(), c, true)
	require.NoError(t, err)

	assert.Empty(t, push.msgs)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "steward_assigned.tmpl", mail.sent[0].template)
	require.Len(t, events.events, 1)
	assert.Equal(t, SubjectStewardAssigned, events.events[0].subject)
}

func TestSendStewardChangeJoinsErrors(t *testing.T) {
	d, _, mail, events, _ := newTestDispatcher(t)
	mail.err = errors.New("smtp down")

	err := d.sendStewardChange(context.Background(), stewardChange(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Len(t, events.events, 1, "event bus still informed")
}

func TestReviewModeratedNotifiesAuthor(t *testing.T) {
	d, push, mail, events, tokens := newTestDispatcher(t)
	tokens.Add(42, "ExponentPushToken[author]")

	d.ReviewModerated(context.Background(), ReviewModeration{
		Review: venuereviews.Review{ID: 5, VenueID: 11, UserID: 42},
		Venue:  venues.Venue{ID: 11, Name: "Blue Hall"},
		Action: ModerationHidden,
	})
	d.Wait()

	require.Len(t, push.msgs, 1)
	assert.Equal(t, "Your review of Blue Hall was hidden by the venue", push.msgs[0].Body)
	assert.Empty(t, mail.sent)
	require.Len(t, events.events, 1)
	ev := events.events[0].event.(ReviewEvent)
	assert.Equal(t, "hidden", ev.Action)
	assert.Equal(t, int64(42), ev.AuthorID)
}

func TestNilChannelsAreSkipped(t *testing.T) {
	d := NewDispatcher(zap.NewNop().Sugar())
	assert.NoError(t, d.sendStewardChange(context.Background(), stewardChange(), true))
	assert.NoError(t, d.sendReviewModeration(context.Background(), ReviewModeration{}))
}
