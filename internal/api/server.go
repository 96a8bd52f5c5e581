// Package api exposes the rental service over HTTP. The caller's identity
// travels in the X-Sharer-User-Id header; authentication itself is out of
// scope and handled upstream.
package api

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"lendit/internal/service"
)

const userIDHeader = "X-Sharer-User-Id"

// Exporter produces the bookings register workbook for the admin export
// endpoint.
type Exporter interface {
	WriteBookingsWorkbook(w http.ResponseWriter, r *http.Request)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	bookings *service.BookingService
	items    *service.ItemService
	users    *service.UserService
	requests *service.RequestService
	exporter Exporter
	validate *validator.Validate
	logger   *zerolog.Logger
}

// NewServer builds the server. The exporter may be nil, in which case the
// export route is not registered.
func NewServer(bookings *service.BookingService, items *service.ItemService, users *service.UserService, requests *service.RequestService, exporter Exporter, logger *zerolog.Logger) *Server {
	return &Server{
		bookings: bookings,
		items:    items,
		users:    users,
		requests: requests,
		exporter: exporter,
		validate: validator.New(),
		logger:   logger,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler(requestsPerSecond float64, burst int) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /bookings", s.handleAddBooking)
	mux.HandleFunc("PATCH /bookings/{bookingId}", s.handleDecideBooking)
	mux.HandleFunc("GET /bookings/owner", s.handleBookingsByOwner)
	mux.HandleFunc("GET /bookings/{bookingId}", s.handleGetBooking)
	mux.HandleFunc("GET /bookings", s.handleBookingsByBooker)

	mux.HandleFunc("POST /items", s.handleAddItem)
	mux.HandleFunc("PATCH /items/{itemId}", s.handleUpdateItem)
	mux.HandleFunc("GET /items/search", s.handleSearchItems)
	mux.HandleFunc("GET /items/{itemId}", s.handleGetItem)
	mux.HandleFunc("GET /items", s.handleItemsByOwner)
	mux.HandleFunc("POST /items/{itemId}/comment", s.handleAddComment)

	mux.HandleFunc("POST /users", s.handleAddUser)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{userId}", s.handleGetUser)
	mux.HandleFunc("PATCH /users/{userId}", s.handleUpdateUser)
	mux.HandleFunc("DELETE /users/{userId}", s.handleDeleteUser)

	mux.HandleFunc("POST /requests", s.handleAddRequest)
	mux.HandleFunc("GET /requests/all", s.handleOtherRequests)
	mux.HandleFunc("GET /requests/{requestId}", s.handleGetRequest)
	mux.HandleFunc("GET /requests", s.handleOwnRequests)

	if s.exporter != nil {
		mux.HandleFunc("GET /admin/export", s.exporter.WriteBookingsWorkbook)
	}

	var handler http.Handler = mux
	if requestsPerSecond > 0 {
		handler = s.rateLimitMiddleware(handler, requestsPerSecond, burst)
	}
	handler = s.loggingMiddleware(handler)
	return handler
}

// callerID extracts the acting user from the identity header.
func callerID(r *http.Request) (int64, error) {
	raw := r.Header.Get(userIDHeader)
	return strconv.ParseInt(raw, 10, 64)
}

// pathID parses a numeric path segment.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// queryInt parses an optional integer query parameter. The default is used
// when the parameter is absent; a malformed value is reported as-is so the
// handler can reject it.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
