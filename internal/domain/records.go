package domain

import (
	"errors"
	"math"
	"time"
)

const (
	// AdViewAward is the number of points granted for the first advertisement
	// view of an owner on a calendar day.
	AdViewAward int64 = 10
	// ValUnit is the number of points per displayed Val.
	ValUnit = 10

	calendarDayLayout = "2006-01-02"
)

// ErrNotRegistered is returned when an owner has no preference or ledger row.
var ErrNotRegistered = errors.New("owner is not registered")

// PreferenceRecord is the persisted language preference of an owner, stored
// in the users or groups table depending on the owner kind.
type PreferenceRecord struct {
	Owner       Owner
	DisplayName string
	Language    Language
}

// PointBalance is the persisted point balance of an owner.
type PointBalance struct {
	Owner Owner
	Point int64
}

// Advertisement is an ad managed outside the bot; the bot only reads it.
type Advertisement struct {
	ID        int64
	Content   string
	URL       string
	IsActive  bool
	CreatedAt time.Time
}

// AdViewLog records an awarded advertisement view. At most one row exists per
// owner and calendar day.
type AdViewLog struct {
	ID           int64
	Owner        Owner
	AdID         int64
	PointsEarned int64
	ViewedAt     time.Time
	ViewDay      string
}

// AdPolicy selects which active advertisement is shown.
type AdPolicy string

const (
	// AdPolicyLatest picks the most recently created active advertisement.
	AdPolicyLatest AdPolicy = "latest"
	// AdPolicyRandom picks a uniformly random active advertisement.
	AdPolicyRandom AdPolicy = "random"
)

// Registration reports the outcome of the registration flow.
type Registration struct {
	Created  bool
	Language Language
}

// AdViewRequest carries everything a store needs to run one ad view as a
// single unit.
type AdViewRequest struct {
	Owner  Owner
	Policy AdPolicy
	Day    string
	Award  int64
	At     time.Time
}

// AdViewOutcome is the result of an ad view. Ad is nil when no active
// advertisement exists.
type AdViewOutcome struct {
	Ad      *Advertisement
	Awarded bool
	Balance int64
}

// ValFromPoints converts points into the display-only Val unit rounded to two
// decimals.
func ValFromPoints(points int64) float64 {
	return math.Round(float64(points)/ValUnit*100) / 100
}

// CalendarDay returns the YYYY-MM-DD day of t in loc (UTC when loc is nil).
func CalendarDay(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(calendarDayLayout)
}
