package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"lendit/internal/database"
	"lendit/internal/models"
)

// RequestView is an item request together with the items listed in answer to
// it.
type RequestView struct {
	models.ItemRequest
	Items []*models.Item `json:"items"`
}

// RequestService manages item requests: wishes posted by users looking for
// an item nobody listed yet.
type RequestService struct {
	requests RequestStore
	users    UserDirectory
	items    ItemStore
	logger   *zerolog.Logger
}

func NewRequestService(requests RequestStore, users UserDirectory, items ItemStore, logger *zerolog.Logger) *RequestService {
	return &RequestService{
		requests: requests,
		users:    users,
		items:    items,
		logger:   logger,
	}
}

// AddRequest posts a new item request.
func (s *RequestService) AddRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", userID)
	}
	request := &models.ItemRequest{RequesterID: userID, Description: description}
	if err := s.requests.CreateRequest(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ListOwnRequests returns the caller's requests, oldest first, with items.
func (s *RequestService) ListOwnRequests(ctx context.Context, userID int64) ([]*RequestView, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", userID)
	}
	requests, err := s.requests.ListRequestsByRequester(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toViews(ctx, requests)
}

// ListOtherRequests returns requests posted by other users, oldest first,
// windowed by offset/limit.
func (s *RequestService) ListOtherRequests(ctx context.Context, userID int64, from, size int) ([]*RequestView, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", userID)
	}
	if err := validatePagination(from, size); err != nil {
		return nil, err
	}
	requests, err := s.requests.ListRequestsByOthers(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.toViews(ctx, requests)
}

// GetRequest returns a single request with its items.
func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*RequestView, error) {
	exists, err := s.users.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound("user %d not found", userID)
	}
	request, err := s.requests.GetRequest(ctx, requestID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, notFound("item request %d not found", requestID)
	}
	if err != nil {
		return nil, err
	}
	views, err := s.toViews(ctx, []*models.ItemRequest{request})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *RequestService) toViews(ctx context.Context, requests []*models.ItemRequest) ([]*RequestView, error) {
	views := make([]*RequestView, 0, len(requests))
	for _, request := range requests {
		items, err := s.items.ListItemsByRequest(ctx, request.ID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []*models.Item{}
		}
		views = append(views, &RequestView{ItemRequest: *request, Items: items})
	}
	return views, nil
}
