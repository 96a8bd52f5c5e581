package api

import (
	"encoding/json"
	"net/http"

	"lendit/internal/metrics"
)

// AddUserRequest is the request body for POST /users.
type AddUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateUserRequest is the request body for PATCH /users/{userId}. Absent
// fields keep their current values.
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

// handleAddUser registers a new user.
// POST /users
func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("add_user")

	var req AddUserRequest
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

	user, err := s.users.AddUser(r.Context(), req.Name, req.Email)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleListUsers returns all users.
// GET /users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_users")

	users, err := s.users.ListUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// handleGetUser returns a user by ID.
// GET /users/{userId}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_user")

	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.users.GetUser(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleUpdateUser applies a partial user update.
// PATCH /users/{userId}
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("update_user")

	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
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

	user, err := s.users.UpdateUser(r.Context(), userID, req.Name, req.Email)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleDeleteUser removes a user.
// DELETE /users/{userId}
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("delete_user")

	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := s.users.DeleteUser(r.Context(), userID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
