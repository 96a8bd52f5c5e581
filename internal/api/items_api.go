package api

import (
	"encoding/json"
	"net/http"

	"lendit/internal/metrics"
	"lendit/internal/models"
)

// AddItemRequest is the request body for POST /items.
type AddItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"request_id,omitempty"`
}

// UpdateItemRequest is the request body for PATCH /items/{itemId}. Absent
// fields keep their current values.
type UpdateItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

// AddCommentRequest is the request body for POST /items/{itemId}/comment.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// handleAddItem lists a new item owned by the caller.
// POST /items
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_item")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}

	var req AddItemRequest
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

	item, err := s.items.AddItem(r.Context(), userID, req.Name, req.Description, *req.Available, req.RequestID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpdateItem applies a partial item update by its owner.
// PATCH /items/{itemId}
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_item")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req UpdateItemRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item, err := s.items.UpdateItem(r.Context(), userID, itemID, req.Name, req.Description, req.Available)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleGetItem returns an item view; the owner additionally sees the
// last/next booking projection.
// GET /items/{itemId}
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_item")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	view, err := s.items.GetItem(r.Context(), itemID, userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleItemsByOwner lists the caller's items with booking projections.
// GET /items?from=&size=
func (s *Server) handleItemsByOwner(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("items_by_owner")

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

	views, err := s.items.ListItemsByOwner(r.Context(), userID, from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleSearchItems finds available items by substring.
// GET /items/search?text=&from=&size=
func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("search_items")

	text := r.URL.Query().Get("text")
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

	items, err := s.items.SearchItems(r.Context(), text, from, size)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAddComment posts feedback on an item the caller finished renting.
// POST /items/{itemId}/comment
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_comment")

	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or invalid "+userIDHeader+" header")
		return
	}
	itemID, err := pathID(r, "itemId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req AddCommentRequest
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

	comment, err := s.items.AddComment(r.Context(), userID, itemID, req.Text)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}
