package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendit/internal/database"
	"lendit/internal/events"
	"lendit/internal/models"
)

func seedApproved(t *testing.T, db *database.DB, start time.Time) *models.Booking {
	t.Helper()
	ctx := context.Background()
	owner := &models.User{Name: "owner", Email: "owner@example.com"}
	require.NoError(t, db.CreateUser(ctx, owner))
	booker := &models.User{Name: "booker", Email: "booker@example.com"}
	require.NoError(t, db.CreateUser(ctx, booker))
	item := &models.Item{OwnerID: owner.ID, Name: "drill", Available: true}
	require.NoError(t, db.CreateItem(ctx, item))

	booking := &models.Booking{
		ItemID:    item.ID,
		BookerID:  booker.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    models.StatusApproved,
	}
	require.NoError(t, db.CreateBooking(ctx, booking))
	return booking
}

func TestSweepPublishesOnce(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewMemoryDB(&logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	booking := seedApproved(t, db, now.Add(3*time.Hour))

	bus := events.NewBus()
	var published []events.Event
	bus.Subscribe(events.TypeBookingDue, func(e events.Event) { published = append(published, e) })

	scheduler := NewScheduler(db, bus, time.Minute, 24*time.Hour, &logger)
	scheduler.now = func() time.Time { return now }

	scheduler.sweep(context.Background())
	require.Len(t, published, 1)
	assert.Equal(t, booking.ID, published[0].BookingID)
	assert.Equal(t, "drill", published[0].ItemName)

	// A second sweep finds nothing left to remind about.
	scheduler.sweep(context.Background())
	assert.Len(t, published, 1)
}

func TestSweepSkipsOutOfWindow(t *testing.T) {
	logger := zerolog.Nop()
	db, err := database.NewMemoryDB(&logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	seedApproved(t, db, now.Add(48*time.Hour))

	bus := events.NewBus()
	var published []events.Event
	bus.Subscribe(events.TypeBookingDue, func(e events.Event) { published = append(published, e) })

	scheduler := NewScheduler(db, bus, time.Minute, 24*time.Hour, &logger)
	scheduler.now = func() time.Time { return now }

	scheduler.sweep(context.Background())
	assert.Empty(t, published)
}
