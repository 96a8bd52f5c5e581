package service

import (
	"context"
	"time"

	"lendit/internal/models"
)

// UserDirectory resolves user IDs. The booking engine only needs existence.
type UserDirectory interface {
	UserExists(ctx context.Context, id int64) (bool, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// ItemCatalog resolves item IDs to ownership and availability. Ownership is
// looked up through the catalog on every authorization check, never cached on
// the booking, so an ownership transfer immediately changes who may decide
// pending bookings.
type ItemCatalog interface {
	GetItem(ctx context.Context, id int64) (*models.Item, error)
}

// BookingStore is the durable booking collection with the indexed lookups the
// engine needs. UpdateBookingStatus must be atomic with respect to concurrent
// callers: of two racing decisions on the same WAITING booking at most one
// may succeed.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.Status) error
	ListBookingsByBooker(ctx context.Context, bookerID int64, state models.State, now time.Time, from, size int) ([]*models.Booking, error)
	ListBookingsByOwner(ctx context.Context, ownerID int64, state models.State, now time.Time, from, size int) ([]*models.Booking, error)
	LastBookingForItem(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	NextBookingForItem(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	HasFinishedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error)
}

// ItemStore persists items and their comments.
type ItemStore interface {
	ItemCatalog
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	ListItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error)
	ListItemsByRequest(ctx context.Context, requestID int64) ([]*models.Item, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	ListCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
}

// UserStore persists users.
type UserStore interface {
	UserDirectory
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// RequestStore persists item requests.
type RequestStore interface {
	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	ListRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	ListRequestsByOthers(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error)
}
