// Package reminder periodically finds approved bookings about to start and
// publishes a due event for each, exactly once per booking.
package reminder

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"lendit/internal/events"
	"lendit/internal/metrics"
	"lendit/internal/models"
)

const batchLimit = 100

// Store is the slice of the booking store the scheduler needs. The
// reminder_sent flag is flipped with a check-and-set so overlapping passes
// (or replicas sharing a store) cannot double-send.
type Store interface {
	BookingsDueReminder(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*models.Booking, error)
	MarkReminderSent(ctx context.Context, id int64) (bool, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
}

// Scheduler drives the reminder sweep.
type Scheduler struct {
	store    Store
	bus      *events.Bus
	interval time.Duration
	lead     time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewScheduler creates a sweep running every interval, reminding about
// bookings that start within lead.
func NewScheduler(store Store, bus *events.Bus, interval, lead time.Duration, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:    store,
		bus:      bus,
		interval: interval,
		lead:     lead,
		logger:   logger,
		now:      time.Now,
	}
}

// Run blocks, sweeping on every tick until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Dur("interval", s.interval).
		Dur("lead", s.lead).
		Msg("reminder scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	due, err := s.store.BookingsDueReminder(ctx, s.now(), s.lead, batchLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load due bookings")
		return
	}

	for _, booking := range due {
		sent, err := s.store.MarkReminderSent(ctx, booking.ID)
		if err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("failed to mark reminder")
			continue
		}
		if !sent {
			continue
		}

		itemName := ""
		if item, err := s.store.GetItem(ctx, booking.ItemID); err == nil {
			itemName = item.Name
		}
		s.bus.Publish(events.Event{
			Type:      events.TypeBookingDue,
			BookingID: booking.ID,
			ItemID:    booking.ItemID,
			ItemName:  itemName,
			BookerID:  booking.BookerID,
			Status:    string(booking.Status),
			StartTime: booking.StartTime,
		})
		metrics.IncReminderSent()
	}
}
