package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"lendit/internal/models"
)

const itemColumns = `id, owner_id, name, description, available, request_id, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*models.Item, error) {
	var item models.Item
	var requestID sql.NullInt64
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Name,
		&item.Description,
		&item.Available,
		&requestID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if requestID.Valid {
		item.RequestID = &requestID.Int64
	}
	return &item, nil
}

// CreateItem inserts a new item and fills in its generated ID.
func (db *DB) CreateItem(ctx context.Context, item *models.Item) error {
	now := time.Now().UTC()
	var requestID any
	if item.RequestID != nil {
		requestID = *item.RequestID
	}
	result, err := db.ExecContext(ctx, `
		INSERT INTO items (owner_id, name, description, available, request_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, item.Name, item.Description, item.Available, requestID, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get item id: %w", err)
	}
	item.ID = id
	item.CreatedAt = now
	item.UpdatedAt = now
	return nil
}

// GetItem returns an item by ID or ErrNotFound.
func (db *DB) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return item, nil
}

// UpdateItem persists name, description and availability of an existing item.
func (db *DB) UpdateItem(ctx context.Context, item *models.Item) error {
	result, err := db.ExecContext(ctx, `
		UPDATE items SET name = ?, description = ?, available = ?, updated_at = ?
		WHERE id = ?`,
		item.Name, item.Description, item.Available, time.Now().UTC(), item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) queryItems(ctx context.Context, query string, args ...any) ([]*models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListItemsByOwner returns the owner's items ordered by ID ascending.
func (db *DB) ListItemsByOwner(ctx context.Context, ownerID int64, from, size int) ([]*models.Item, error) {
	return db.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE owner_id = ?
		ORDER BY id ASC
		LIMIT ? OFFSET ?`,
		ownerID, size, from,
	)
}

// SearchItems returns available items whose name or description contains the
// text, case-insensitively.
func (db *DB) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	pattern := "%" + strings.ToLower(text) + "%"
	return db.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE available = 1
		  AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
		ORDER BY id ASC
		LIMIT ? OFFSET ?`,
		pattern, pattern, size, from,
	)
}

// ListItemsByRequest returns items created in answer to an item request.
func (db *DB) ListItemsByRequest(ctx context.Context, requestID int64) ([]*models.Item, error) {
	return db.queryItems(ctx, `
		SELECT `+itemColumns+` FROM items
		WHERE request_id = ?
		ORDER BY id ASC`,
		requestID,
	)
}

// CreateComment inserts a comment and fills in its generated ID and creation
// time.
func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO comments (item_id, author_id, text, created_at)
		VALUES (?, ?, ?, ?)`,
		comment.ItemID, comment.AuthorID, comment.Text, now,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get comment id: %w", err)
	}
	comment.ID = id
	comment.CreatedAt = now
	return nil
}

// ListCommentsByItem returns the item's comments with author names, oldest
// first.
func (db *DB) ListCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.item_id, c.author_id, u.name, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.item_id = ?
		ORDER BY c.created_at ASC, c.id ASC`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.ItemID, &c.AuthorID, &c.AuthorName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}
