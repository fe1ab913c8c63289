package scoring

import (
	"fmt"
	"time"
)

// Tier classifies how close a deadline is.
type Tier string

const (
	TierNormal  Tier = "normal"
	TierWarning Tier = "warning"
	TierUrgent  Tier = "urgent"
	TierExpired Tier = "expired"
)

const (
	urgentDays  = 2
	warningDays = 7
	thisWeek    = 7

	secondsPerDay = 24 * 60 * 60
)

// Urgency is the derived deadline status of a grant. It is computed on read.
type Urgency struct {
	DaysRemaining int  `json:"days_remaining"`
	Tier          Tier `json:"tier"`
}

// InThisWeek reports whether the deadline falls within today and the next seven days.
func (u Urgency) InThisWeek() bool {
	return u.DaysRemaining >= 0 && u.DaysRemaining <= thisWeek
}

// DeadlineClassifier compares calendar dates in one canonical location so results do not
// depend on the server's zone or the time of day.
type DeadlineClassifier struct {
	loc *time.Location
}

// NewDeadlineClassifier uses loc, or UTC when loc is nil.
func NewDeadlineClassifier(loc *time.Location) *DeadlineClassifier {
	if loc == nil {
		loc = time.UTC
	}
	return &DeadlineClassifier{loc: loc}
}

// LoadDeadlineClassifier resolves an IANA zone name.
func LoadDeadlineClassifier(zone string) (*DeadlineClassifier, error) {
	if zone == "" {
		return NewDeadlineClassifier(time.UTC), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load deadline time zone %q: %w", zone, err)
	}
	return NewDeadlineClassifier(loc), nil
}

// DaysUntil returns the number of calendar days from now to target.
func (c *DeadlineClassifier) DaysUntil(target, now time.Time) int {
	return int((c.day(target).Unix() - c.day(now).Unix()) / secondsPerDay)
}

// Classify converts a deadline into days remaining and a tier.
func (c *DeadlineClassifier) Classify(target, now time.Time) Urgency {
	days := c.DaysUntil(target, now)
	return Urgency{DaysRemaining: days, Tier: tierFor(days)}
}

// ClassifyOptional returns nil when there is no deadline.
func (c *DeadlineClassifier) ClassifyOptional(target *time.Time, now time.Time) *Urgency {
	if target == nil {
		return nil
	}
	u := c.Classify(*target, now)
	return &u
}

// DayLabel renders Today, Tomorrow or the weekday name of the target.
func (c *DeadlineClassifier) DayLabel(target, now time.Time) string {
	switch c.DaysUntil(target, now) {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return target.In(c.loc).Weekday().String()
	}
}

// day truncates t to midnight of its calendar date in the canonical location, expressed in
// UTC so that two days always differ by a whole multiple of secondsPerDay.
func (c *DeadlineClassifier) day(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tierFor(days int) Tier {
	switch {
	case days < 0:
		return TierExpired
	case days <= urgentDays:
		return TierUrgent
	case days <= warningDays:
		return TierWarning
	default:
		return TierNormal
	}
}
