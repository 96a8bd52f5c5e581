package api

import (
	"encoding/json"
	"net/http"

	"lendit/internal/metrics"
)

// AddRequestRequest is the request body for POST /requests.
type AddRequestRequest struct {
	Description string `json:"description" validate:"required"`
}

// handleAddRequest posts an item request from the caller.
// POST /requests
func (s *Server) handleAddRequest(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_request")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}

	var req AddRequestRequest
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

	request, err := s.requests.AddRequest(r.Context(), userID, req.Description)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, request)
}

// handleOwnRequests lists the caller's item requests with answering items.
// GET /requests
func (s *Server) handleOwnRequests(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("own_requests")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}

	views, err := s.requests.ListOwnRequests(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleOtherRequests lists other users' item requests.
// GET /requests/all?from=&size=
func (s *Server) handleOtherRequests(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("other_requests")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	from, err := queryInt(r, "from", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pagination parameter")
		return
	}
	size, err := queryInt(r, "size", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid pagination parameter")
		return
	}

	views, err := s.requests.ListOtherRequests(r.Context(), userID, from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleGetRequest returns a single item request with its items.
// GET /requests/{requestId}
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_request")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	requestID, err := pathID(r, "requestId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	view, err := s.requests.GetRequest(r.Context(), userID, requestID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
