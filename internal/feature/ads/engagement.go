// Package ads runs the advertisement view flow: pick an active ad, award the
// daily points once per owner and record the view.
package ads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"valley_bot/internal/domain"
	"valley_bot/internal/logging"
	"valley_bot/internal/metrics"
)

// Repository executes one complete ad view as a single unit: select an ad,
// check the owner's view for the day, increment and log.
type Repository interface {
	ViewAd(ctx context.Context, req domain.AdViewRequest) (domain.AdViewOutcome, error)
}

// Engagement serves ad view requests.
type Engagement struct {
	repo     Repository
	logger   *logrus.Entry
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
}

// Option customizes an Engagement.
type Option func(*Engagement)

// WithLocation sets the timezone that defines a calendar day.
func WithLocation(loc *time.Location) Option {
	return func(e *Engagement) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engagement) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics records view outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engagement) {
		e.metrics = m
	}
}

// NewEngagement constructs an Engagement over repo. Days are UTC unless
// WithLocation is given.
func NewEngagement(repo Repository, logger *logrus.Entry, opts ...Option) *Engagement {
	if logger == nil {
		logger = logging.Logger()
	}

	e := &Engagement{
		repo:     repo,
		logger:   logger,
		location: time.UTC,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// View shows an advertisement to owner. The first view of a calendar day
// earns domain.AdViewAward points; later views that day earn nothing. When no
// advertisement is active the outcome has a nil Ad and nothing is mutated.
func (e *Engagement) View(ctx context.Context, owner domain.Owner, policy domain.AdPolicy) (domain.AdViewOutcome, error) {
	if e == nil || e.repo == nil {
		return domain.AdViewOutcome{}, errors.New("ad engagement is not initialized")
	}
	if ctx == nil {
		return domain.AdViewOutcome{}, errors.New("context is required")
	}
	if err := owner.Validate(); err != nil {
		return domain.AdViewOutcome{}, err
	}
	if policy != domain.AdPolicyRandom {
		policy = domain.AdPolicyLatest
	}

	at := e.now().UTC()
	req := domain.AdViewRequest{
		Owner:  owner,
		Policy: policy,
		Day:    domain.CalendarDay(at, e.location),
		Award:  domain.AdViewAward,
		At:     at,
	}

	fields := logging.Fields{
		"event":  "ad_view",
		"owner":  owner.String(),
		"policy": string(policy),
		"day":    req.Day,
	}

	outcome, err := e.repo.ViewAd(ctx, req)
	if err != nil {
		e.metrics.ObserveAdView(string(owner.Kind), metrics.AdOutcomeError)
		fields["event"] = "ad_view_error"
		e.logger.WithFields(fields).WithError(err).Error("failed to process ad view")
		return domain.AdViewOutcome{}, fmt.Errorf("view ad: %w", err)
	}

	switch {
	case outcome.Ad == nil:
		e.metrics.ObserveAdView(string(owner.Kind), metrics.AdOutcomeNoAds)
		e.logger.WithFields(fields).Debug("no active advertisement")
	case outcome.Awarded:
		e.metrics.ObserveAdView(string(owner.Kind), metrics.AdOutcomeAwarded)
		fields["ad_id"] = outcome.Ad.ID
		fields["balance"] = outcome.Balance
		e.logger.WithFields(fields).Info("awarded ad view points")
	default:
		e.metrics.ObserveAdView(string(owner.Kind), metrics.AdOutcomeAlreadyViewed)
		fields["ad_id"] = outcome.Ad.ID
		e.logger.WithFields(fields).Debug("ad already viewed today")
	}

	return outcome, nil
}
