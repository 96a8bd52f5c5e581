package models

import (
	"fmt"
	"time"
)

// Status is the lifecycle status of a booking. WAITING is the initial
// status; APPROVED and REJECTED are terminal.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// State is a query-time filter over bookings. WAITING and REJECTED match the
// booking status of the same name; CURRENT, PAST and FUTURE are derived from
// the booking period relative to "now" and are independent of status.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// ParseState converts a raw state token into a State. Matching is
// case-sensitive; anything outside the closed set is rejected here so the
// query logic never sees an unknown value.
func ParseState(raw string) (State, error) {
	switch State(raw) {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return State(raw), nil
	default:
		return "", fmt.Errorf("unknown state: %s", raw)
	}
}

// Booking is a time-bounded reservation of an item by a non-owner user.
// ItemID, BookerID and the period are immutable after creation; only Status
// changes, exactly once, when the item owner decides the booking.
type Booking struct {
	ID           int64     `json:"id"`
	ItemID       int64     `json:"item_id"`
	BookerID     int64     `json:"booker_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       Status    `json:"status"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsPast reports whether the booking ended before now.
func (b *Booking) IsPast(now time.Time) bool {
	return b.EndTime.Before(now)
}

// IsCurrent reports whether the booking period covers now.
func (b *Booking) IsCurrent(now time.Time) bool {
	return !b.StartTime.After(now) && !b.EndTime.Before(now)
}

// IsFuture reports whether the booking starts after now.
func (b *Booking) IsFuture(now time.Time) bool {
	return b.StartTime.After(now)
}

// MatchesState reports whether the booking falls into the given query
// category at the given instant.
func (b *Booking) MatchesState(state State, now time.Time) bool {
	switch state {
	case StateAll:
		return true
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	case StatePast:
		return b.IsPast(now)
	case StateCurrent:
		return b.IsCurrent(now)
	case StateFuture:
		return b.IsFuture(now)
	default:
		return false
	}
}
