package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lendit/internal/database"
	"lendit/internal/events"
	"lendit/internal/metrics"
	"lendit/internal/models"
)

// BookingService is the reservation engine: it owns the booking state
// machine, the temporal categorization of listings and every authorization
// rule around bookings. Stores are dumb persistence; all business rules live
// here.
type BookingService struct {
	bookings BookingStore
	users    UserDirectory
	items    ItemCatalog
	bus      *events.Bus
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewBookingService wires the engine to its collaborators. The bus may be
// nil when nothing listens for booking events.
func NewBookingService(bookings BookingStore, users UserDirectory, items ItemCatalog, bus *events.Bus, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		users:    users,
		items:    items,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, letting tests pin "now" for the
// CURRENT/PAST/FUTURE boundaries.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// CreateBooking reserves an item for the requester over [start, end). The
// new booking starts out WAITING. Overlap with other bookings of the same
// item is intentionally not checked: competing WAITING requests coexist and
// the owner arbitrates by approving at most one of them.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.Booking, error) {
	exists, err := s.users.UserExists(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", requesterID)
	}

	item, err := s.items.GetItem(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("item %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	// An owner booking their own item is answered as if the item did not
	// exist, not as forbidden.
	if item.OwnerID == requesterID {
		return nil, notFound("item %d not found", itemID)
	}
	if !item.Available {
		return nil, badRequest("item %d is unavailable", itemID)
	}
	if start.Equal(end) {
		return nil, badRequest("booking start and end coincide")
	}
	if end.Before(start) {
		return nil, badRequest("booking end precedes start")
	}

	booking := &models.Booking{
		ItemID:    itemID,
		BookerID:  requesterID,
		StartTime: start,
		EndTime:   end,
		Status:    models.StatusWaiting,
	}
	if err := s.bookings.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", itemID).
		Int64("booker_id", requesterID).
		Time("start", start).
		Time("end", end).
		Msg("booking created")
	s.publish(events.Event{
		Type:      events.TypeBookingCreated,
		BookingID: booking.ID,
		ItemID:    itemID,
		ItemName:  item.Name,
		OwnerID:   item.OwnerID,
		BookerID:  requesterID,
		Status:    string(booking.Status),
		StartTime: start,
	})
	return booking, nil
}

// DecideBooking applies the item owner's verdict to a WAITING booking,
// moving it to APPROVED or REJECTED. Both states are terminal; a second call
// on the same booking fails with a bad-request error rather than silently
// succeeding.
func (s *BookingService) DecideBooking(ctx context.Context, actorID, bookingID int64, approve bool) (*models.Booking, error) {
	exists, err := s.users.UserExists(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", actorID)
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}

	// Ownership is resolved through the catalog at decision time, so a
	// transferred item transfers approval rights with it.
	item, err := s.items.GetItem(ctx, booking.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}
	if item.OwnerID != actorID {
		return nil, notFound("only the item owner can decide booking %d", bookingID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, badRequest("booking %d is already decided", bookingID)
	}

	status := models.StatusRejected
	if approve {
		status = models.StatusApproved
	}
	err = s.bookings.UpdateBookingStatus(ctx, bookingID, status)
	if errors.Is(err, database.ErrAlreadyDecided) {
		// Lost a race against a concurrent decision.
		return nil, badRequest("booking %d is already decided", bookingID)
	}
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}
	booking.Status = status

	metrics.IncBookingDecision(string(status))
	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("owner_id", actorID).
		Str("status", string(status)).
		Msg("booking decided")
	s.publish(events.Event{
		Type:      events.TypeBookingDecided,
		BookingID: bookingID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		OwnerID:   item.OwnerID,
		BookerID:  booking.BookerID,
		Status:    string(status),
		StartTime: booking.StartTime,
	})
	return booking, nil
}

// GetBooking returns a booking to its booker or the item's owner. Anyone
// else gets the same not-found answer as for a booking that does not exist.
func (s *BookingService) GetBooking(ctx context.Context, actorID, bookingID int64) (*models.Booking, error) {
	exists, err := s.users.UserExists(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", actorID)
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetItem(ctx, booking.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("booking %d not found", bookingID)
	}
	if err != nil {
		return nil, err
	}
	if actorID != booking.BookerID && actorID != item.OwnerID {
		return nil, notFound("booking %d not found", bookingID)
	}
	return booking, nil
}

// ListBookingsByBooker returns the user's own bookings in the given state
// category. The category is evaluated against the clock at call time.
func (s *BookingService) ListBookingsByBooker(ctx context.Context, bookerID int64, state string, from, size int) ([]*models.Booking, error) {
	parsed, err := s.listPreconditions(ctx, bookerID, state, from, size)
	if err != nil {
		return nil, err
	}
	return s.bookings.ListBookingsByBooker(ctx, bookerID, parsed, s.now(), from, size)
}

// ListBookingsByOwner returns bookings of all items the user owns, in the
// given state category.
func (s *BookingService) ListBookingsByOwner(ctx context.Context, ownerID int64, state string, from, size int) ([]*models.Booking, error) {
	parsed, err := s.listPreconditions(ctx, ownerID, state, from, size)
	if err != nil {
		return nil, err
	}
	return s.bookings.ListBookingsByOwner(ctx, ownerID, parsed, s.now(), from, size)
}

func (s *BookingService) listPreconditions(ctx context.Context, userID int64, state string, from, size int) (models.State, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", notFound("user %d not found", userID)
	}
	if err := validatePagination(from, size); err != nil {
		return "", err
	}
	parsed, err := models.ParseState(state)
	if err != nil {
		return "", badRequest("%s", err.Error())
	}
	return parsed, nil
}

func (s *BookingService) publish(event events.Event) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
