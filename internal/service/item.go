package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lendit/internal/database"
	"lendit/internal/models"
)

// ItemView is an item as seen by a particular viewer. The last/next booking
// projection is filled in only when the viewer owns the item.
type ItemView struct {
	models.Item
	LastBooking *models.Booking   `json:"last_booking,omitempty"`
	NextBooking *models.Booking   `json:"next_booking,omitempty"`
	Comments    []*models.Comment `json:"comments"`
}

// SearchCache is an optional read-through cache for item search results.
type SearchCache interface {
	GetSearch(ctx context.Context, key string) ([]*models.Item, bool)
	SetSearch(ctx context.Context, key string, items []*models.Item)
	InvalidateSearch(ctx context.Context)
}

// ItemService manages the item catalog: listing, partial updates, search and
// comments, plus the owner-only booking projection on item views.
type ItemService struct {
	items    ItemStore
	users    UserDirectory
	bookings BookingStore
	requests RequestStore
	cache    SearchCache
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewItemService wires the item catalog. The cache may be nil.
func NewItemService(items ItemStore, users UserDirectory, bookings BookingStore, requests RequestStore, cache SearchCache, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		items:    items,
		users:    users,
		bookings: bookings,
		requests: requests,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock used by the booking projection.
func (s *ItemService) WithClock(now func() time.Time) *ItemService {
	s.now = now
	return s
}

// AddItem lists a new item owned by the caller, optionally answering an item
// request.
func (s *ItemService) AddItem(ctx context.Context, ownerID int64, name, description string, available bool, requestID *int64) (*models.Item, error) {
	exists, err := s.users.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", ownerID)
	}
	if requestID != nil {
		if _, err := s.requests.GetRequest(ctx, *requestID); errors.Is(err, database.ErrNotFound) {
			return nil, notFound("item request %d not found", *requestID)
		} else if err != nil {
			return nil, err
		}
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Available:   available,
		RequestID:   requestID,
	}
	if err := s.items.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item added")
	return item, nil
}

// UpdateItem applies a partial update; nil fields keep their current value.
// Only the owner may update an item, and unlike bookings the mismatch is
// reported as forbidden, not as absence.
func (s *ItemService) UpdateItem(ctx context.Context, userID, itemID int64, name, description *string, available *bool) (*models.Item, error) {
	item, err := s.items.GetItem(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("item %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", userID)
	}
	if item.OwnerID != userID {
		return nil, forbidden("user %d does not own item %d", userID, itemID)
	}

	if name != nil {
		item.Name = *name
	}
	if description != nil {
		item.Description = *description
	}
	if available != nil {
		item.Available = *available
	}
	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	s.invalidateSearch(ctx)
	return item, nil
}

// GetItem returns the item view for a viewer. The owner additionally sees
// the most recent started APPROVED booking and the soonest upcoming one,
// recomputed from current data on every call.
func (s *ItemService) GetItem(ctx context.Context, itemID, viewerID int64) (*ItemView, error) {
	exists, err := s.users.UserExists(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", viewerID)
	}
	item, err := s.items.GetItem(ctx, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("item %d not found", itemID)
	}
	if err != nil {
		return nil, err
	}

	view := &ItemView{Item: *item}
	if item.OwnerID == viewerID {
		if err := s.attachBookings(ctx, view); err != nil {
			return nil, err
		}
	}
	comments, err := s.items.ListCommentsByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	view.Comments = comments
	return view, nil
}

// ListItemsByOwner returns the caller's items, each with the last/next
// booking projection.
func (s *ItemService) ListItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]*ItemView, error) {
	exists, err := s.users.UserExists(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", ownerID)
	}
	if err := validatePagination(from, size); err != nil {
		return nil, err
	}

	items, err := s.items.ListItemsByOwner(ctx, ownerID, from, size)
	if err != nil {
		return nil, err
	}
	views := make([]*ItemView, 0, len(items))
	for _, item := range items {
		view := &ItemView{Item: *item, Comments: []*models.Comment{}}
		if err := s.attachBookings(ctx, view); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// SearchItems finds available items by name/description substring. Empty
// text yields an empty result without touching the store.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	if text == "" {
		return []*models.Item{}, nil
	}
	if err := validatePagination(from, size); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%d|%d", text, from, size)
	if s.cache != nil {
		if items, ok := s.cache.GetSearch(ctx, key); ok {
			return items, nil
		}
	}
	items, err := s.items.SearchItems(ctx, text, from, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Item{}
	}
	if s.cache != nil {
		s.cache.SetSearch(ctx, key, items)
	}
	return items, nil
}

// AddComment posts feedback on an item. Only users whose booking of the item
// already ended may comment.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("user %d not found", userID)
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.items.GetItem(ctx, itemID); errors.Is(err, database.ErrNotFound) {
		return nil, notFound("item %d not found", itemID)
	} else if err != nil {
		return nil, err
	}

	ok, err := s.bookings.HasFinishedBooking(ctx, itemID, userID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, badRequest("user %d has no finished booking of item %d", userID, itemID)
	}

	comment := &models.Comment{
		ItemID:     itemID,
		AuthorID:   userID,
		AuthorName: user.Name,
		Text:       text,
	}
	if err := s.items.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ItemService) attachBookings(ctx context.Context, view *ItemView) error {
	now := s.now()
	last, err := s.bookings.LastBookingForItem(ctx, view.ID, now)
	if err != nil {
		return err
	}
	next, err := s.bookings.NextBookingForItem(ctx, view.ID, now)
	if err != nil {
		return err
	}
	view.LastBooking = last
	view.NextBooking = next
	return nil
}

func (s *ItemService) invalidateSearch(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateSearch(ctx)
	}
}
