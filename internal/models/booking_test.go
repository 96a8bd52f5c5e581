package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseState(t *testing.T) {
	for _, raw := range []string{"ALL", "CURRENT", "PAST", "FUTURE", "WAITING", "REJECTED"} {
		state, err := ParseState(raw)
		assert.NoError(t, err)
		assert.Equal(t, State(raw), state)
	}

	for _, raw := range []string{"", "all", "Current", "APPROVED", "UNKNOWN"} {
		_, err := ParseState(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusWaiting.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func TestBookingMatchesState(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	hour := time.Hour

	past := &Booking{StartTime: now.Add(-3 * hour), EndTime: now.Add(-hour), Status: StatusApproved}
	current := &Booking{StartTime: now.Add(-hour), EndTime: now.Add(hour), Status: StatusApproved}
	future := &Booking{StartTime: now.Add(hour), EndTime: now.Add(3 * hour), Status: StatusWaiting}
	rejected := &Booking{StartTime: now.Add(hour), EndTime: now.Add(3 * hour), Status: StatusRejected}

	tests := []struct {
		name    string
		booking *Booking
		state   State
		want    bool
	}{
		{"past is PAST", past, StatePast, true},
		{"past is not CURRENT", past, StateCurrent, false},
		{"past is not FUTURE", past, StateFuture, false},
		{"current is CURRENT", current, StateCurrent, true},
		{"current is not PAST", current, StatePast, false},
		{"current is not FUTURE", current, StateFuture, false},
		{"future is FUTURE", future, StateFuture, true},
		{"future is not PAST", future, StatePast, false},
		{"future is not CURRENT", future, StateCurrent, false},
		{"waiting matches WAITING", future, StateWaiting, true},
		{"rejected does not match WAITING", rejected, StateWaiting, false},
		{"rejected matches REJECTED", rejected, StateRejected, true},
		{"rejected future still FUTURE", rejected, StateFuture, true},
		{"everything matches ALL", rejected, StateAll, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.booking.MatchesState(tt.state, now))
		})
	}
}

func TestBookingTemporalPartition(t *testing.T) {
	// Every booking falls into exactly one of PAST, CURRENT, FUTURE.
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	bookings := []*Booking{
		{StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour)},
		{StartTime: now.Add(-time.Hour), EndTime: now},
		{StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
		{StartTime: now, EndTime: now.Add(time.Hour)},
		{StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)},
	}

	for i, b := range bookings {
		count := 0
		for _, state := range []State{StatePast, StateCurrent, StateFuture} {
			if b.MatchesState(state, now) {
				count++
			}
		}
		assert.Equal(t, 1, count, "booking %d", i)
	}
}
