package api

import (
	"encoding/json"
	"net/http"
	"time"

	"lendit/internal/metrics"
	"lendit/internal/models"
)

// AddBookingRequest is the request body for POST /bookings.
type AddBookingRequest struct {
	ItemID int64     `json:"item_id" validate:"required"`
	Start  time.Time `json:"start" validate:"required"`
	End    time.Time `json:"end" validate:"required"`
}

// handleAddBooking creates a WAITING booking for the caller.
// POST /bookings
func (s *Server) handleAddBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_booking")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}

	var req AddBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), userID, req.ItemID, req.Start, req.End)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// handleDecideBooking applies the owner's approve/reject verdict.
// PATCH /bookings/{bookingId}?approved=true|false
func (s *Server) handleDecideBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("decide_booking")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	var approve bool
	switch r.URL.Query().Get("approved") {
	case "true":
		approve = true
	case "false":
		approve = false
	default:
		writeError(w, http.StatusBadRequest, "approved must be true or false")
		return
	}

	booking, err := s.bookings.DecideBooking(r.Context(), userID, bookingID, approve)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// handleGetBooking returns a single booking to its booker or the item owner.
// GET /bookings/{bookingId}
func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_booking")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), userID, bookingID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

// listParams extracts the shared state/from/size query parameters.
func listParams(r *http.Request) (state string, from, size int, err error) {
	state = r.URL.Query().Get("state")
	if state == "" {
		state = "ALL"
	}
	from, err = queryInt(r, "from", 0)
	if err != nil {
		return "", 0, 0, err
	}
	size, err = queryInt(r, "size", 20)
	if err != nil {
		return "", 0, 0, err
	}
	return state, from, size, nil
}

// handleBookingsByBooker lists the caller's own bookings by state category.
// GET /bookings?state=&from=&size=
func (s *Server) handleBookingsByBooker(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_by_booker")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	state, from, size, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pagination parameter")
		return
	}

	bookings, err := s.bookings.ListBookingsByBooker(r.Context(), userID, state, from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// handleBookingsByOwner lists bookings of all items the caller owns.
// GET /bookings/owner?state=&from=&size=
func (s *Server) handleBookingsByOwner(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("bookings_by_owner")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	state, from, size, err := listParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pagination parameter")
		return
	}

	bookings, err := s.bookings.ListBookingsByOwner(r.Context(), userID, state, from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}
