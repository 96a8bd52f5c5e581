package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lendit/internal/models"
)

const requestColumns = `id, requester_id, description, created_at`

func scanRequest(row interface{ Scan(...any) error }) (*models.ItemRequest, error) {
	var r models.ItemRequest
	err := row.Scan(&r.ID, &r.RequesterID, &r.Description, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRequest inserts an item request and fills in its generated ID and
// creation time.
func (db *DB) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO requests (requester_id, description, created_at)
		VALUES (?, ?, ?)`,
		request.RequesterID, request.Description, now,
	)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get request id: %w", err)
	}
	request.ID = id
	request.CreatedAt = now
	return nil
}

// GetRequest returns an item request by ID or ErrNotFound.
func (db *DB) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	request, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", id, err)
	}
	return request, nil
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...any) ([]*models.ItemRequest, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.ItemRequest
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// ListRequestsByRequester returns the user's own requests, oldest first.
func (db *DB) ListRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE requester_id = ?
		ORDER BY created_at ASC, id ASC`,
		requesterID,
	)
}

// ListRequestsByOthers returns requests posted by everyone except userID,
// oldest first, windowed by offset/limit.
func (db *DB) ListRequestsByOthers(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx, `
		SELECT `+requestColumns+` FROM requests
		WHERE requester_id != ?
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`,
		userID, size, from,
	)
}
