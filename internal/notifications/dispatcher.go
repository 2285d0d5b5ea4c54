package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reviewhub/internal/domain/pushtokens"
	"reviewhub/internal/mailer"

	"go.uber.org/zap"
)

const dispatchTimeout = 10 * time.Second

// Dispatcher fans committed changes out to mail, push and the event bus. Each
// notification runs on its own goroutine; failures are logged, never
// returned. Any channel left nil is skipped.
type Dispatcher struct {
	Mailer mailer.Client
	Push   PushSender
	Tokens pushtokens.Store
	Events EventPublisher

	logger *zap.SugaredLogger
	now    func() time.Time
	wg     sync.WaitGroup
}

func NewDispatcher(logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{logger: logger, now: time.Now}
}

func (d *Dispatcher) StewardAssigned(ctx context.Context, c StewardChange) {
	d.background(ctx, SubjectStewardAssigned, func(ctx context.Context) error {
		return d.sendStewardChange(ctx, c, true)
	})
}

func (d *Dispatcher) StewardRevoked(ctx context.Context, c StewardChange) {
	d.background(ctx, SubjectStewardRevoked, func(ctx context.Context) error {
		return d.sendStewardChange(ctx, c, false)
	})
}

func (d *Dispatcher) ReviewModerated(ctx context.Context, m ReviewModeration) {
	d.background(ctx, SubjectReviewModerated, func(ctx context.Context) error {
		return d.sendReviewModeration(ctx, m)
	})
}

// Wait blocks until every in-flight notification has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) background(parent context.Context, kind string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Errorw("notification panicked", "kind", kind, "panic", fmt.Sprint(r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), dispatchTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Warnw("notification failed", "kind", kind, "error", err.Error())
		}
	}()
}

type stewardMail struct {
	Username  string
	VenueName string
	StartDate string
	EndDate   string
}

func (d *Dispatcher) sendStewardChange(ctx context.Context, c StewardChange, assigned bool) error {
	subject, template := SubjectStewardAssigned, mailer.StewardAssignedTemplate
	if !assigned {
		subject, template = SubjectStewardRevoked, mailer.StewardRevokedTemplate
	}

	var errs []error
	if d.Events != nil {
		errs = append(errs, d.Events.Publish(ctx, subject, newStewardEvent(subject, c, d.now())))
	}
	if d.Mailer != nil && c.Steward.Email != "" {
		data := stewardMail{
			Username:  c.Steward.DisplayName(),
			VenueName: c.Venue.Name,
			StartDate: c.Grant.StartDate.Format(time.DateOnly),
		}
		if c.Grant.EndDate != nil {
			data.EndDate = c.Grant.EndDate.Format(time.DateOnly)
		}
		errs = append(errs, d.Mailer.Send(template, data.Username, c.Steward.Email, data))
	}
	if d.Push != nil && d.Tokens != nil {
		errs = append(errs, ignoreNoTokens(sendPush(ctx, d.Push, d.Tokens, c.Grant.UserID, stewardPush(c, assigned))))
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) sendReviewModeration(ctx context.Context, m ReviewModeration) error {
	var errs []error
	if d.Events != nil {
		errs = append(errs, d.Events.Publish(ctx, SubjectReviewModerated, newReviewEvent(m, d.now())))
	}
	if d.Push != nil && d.Tokens != nil {
		errs = append(errs, ignoreNoTokens(sendPush(ctx, d.Push, d.Tokens, m.Review.UserID, moderationPush(m))))
	}
	return errors.Join(errs...)
}

func ignoreNoTokens(err error) error {
	if errors.Is(err, ErrNoPushTokens) {
		return nil
	}
	return err
}
