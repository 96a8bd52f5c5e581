package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lendit/internal/export"
	"lendit/internal/models"
)

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_time, b.end_time, b.status, b.reminder_sent, b.created_at, b.updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID,
		&b.ItemID,
		&b.BookerID,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.ReminderSent,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBooking inserts a new booking and fills in its generated ID. Times
// are stored in UTC so the lexicographic timestamp comparisons SQLite does
// stay correct.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	booking.StartTime = booking.StartTime.UTC()
	booking.EndTime = booking.EndTime.UTC()
	result, err := db.ExecContext(ctx, `
		INSERT INTO bookings (item_id, booker_id, start_time, end_time, status, reminder_sent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		booking.ItemID,
		booking.BookerID,
		booking.StartTime,
		booking.EndTime,
		booking.Status,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get booking id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// GetBooking returns a booking by ID or ErrNotFound.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings b WHERE b.id = ?`, id)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return booking, nil
}

// UpdateBookingStatus moves a WAITING booking into a terminal status. The
// check-and-set runs as a single UPDATE so two concurrent decisions cannot
// both succeed: the loser observes zero affected rows and gets
// ErrAlreadyDecided (or ErrNotFound if the booking vanished).
func (db *DB) UpdateBookingStatus(ctx context.Context, id int64, status models.Status) error {
	result, err := db.ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		status, time.Now().UTC(), id, models.StatusWaiting,
	)
	if err != nil {
		return fmt.Errorf("update booking %d status: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking %d status: %w", id, err)
	}
	if affected == 0 {
		var exists int
		err := db.QueryRowContext(ctx,
			`SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("check booking %d: %w", id, err)
		}
		return ErrAlreadyDecided
	}
	return nil
}

// stateFilter returns the SQL condition and arguments for a booking query
// category. The caller validates the state beforehand; an unknown value here
// matches nothing.
func stateFilter(state models.State, now time.Time) (string, []any) {
	now = now.UTC()
	switch state {
	case models.StateAll:
		return "", nil
	case models.StateWaiting:
		return "AND b.status = ?", []any{models.StatusWaiting}
	case models.StateRejected:
		return "AND b.status = ?", []any{models.StatusRejected}
	case models.StatePast:
		return "AND b.end_time < ?", []any{now}
	case models.StateCurrent:
		return "AND b.start_time <= ? AND b.end_time >= ?", []any{now, now}
	case models.StateFuture:
		return "AND b.start_time > ?", []any{now}
	default:
		return "AND 1 = 0", nil
	}
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// ListBookingsByBooker returns the booker's bookings in the given category,
// ordered by start time descending (id descending on ties), windowed by
// offset/limit.
func (db *DB) ListBookingsByBooker(ctx context.Context, bookerID int64, state models.State, now time.Time, from, size int) ([]*models.Booking, error) {
	cond, condArgs := stateFilter(state, now)
	query := `SELECT ` + bookingColumns + ` FROM bookings b
		WHERE b.booker_id = ? ` + cond + `
		ORDER BY b.start_time DESC, b.id DESC
		LIMIT ? OFFSET ?`
	args := append([]any{bookerID}, condArgs...)
	args = append(args, size, from)
	return db.queryBookings(ctx, query, args...)
}

// ListBookingsByOwner returns bookings of all items owned by ownerID, same
// categorization and ordering as ListBookingsByBooker.
func (db *DB) ListBookingsByOwner(ctx context.Context, ownerID int64, state models.State, now time.Time, from, size int) ([]*models.Booking, error) {
	cond, condArgs := stateFilter(state, now)
	query := `SELECT ` + bookingColumns + ` FROM bookings b
		JOIN items i ON i.id = b.item_id
		WHERE i.owner_id = ? ` + cond + `
		ORDER BY b.start_time DESC, b.id DESC
		LIMIT ? OFFSET ?`
	args := append([]any{ownerID}, condArgs...)
	args = append(args, size, from)
	return db.queryBookings(ctx, query, args...)
}

// LastBookingForItem returns the APPROVED booking of the item with the latest
// start before now, or nil if there is none.
func (db *DB) LastBookingForItem(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		WHERE b.item_id = ? AND b.status = ? AND b.start_time < ?
		ORDER BY b.start_time DESC, b.id DESC
		LIMIT 1`,
		itemID, models.StatusApproved, now.UTC(),
	)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last booking for item %d: %w", itemID, err)
	}
	return booking, nil
}

// NextBookingForItem returns the APPROVED booking of the item with the
// earliest start after now, or nil if there is none.
func (db *DB) NextBookingForItem(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		WHERE b.item_id = ? AND b.status = ? AND b.start_time > ?
		ORDER BY b.start_time ASC, b.id ASC
		LIMIT 1`,
		itemID, models.StatusApproved, now.UTC(),
	)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next booking for item %d: %w", itemID, err)
	}
	return booking, nil
}

// HasFinishedBooking reports whether the user has a booking of the item that
// already ended, which is what entitles them to comment on it.
func (db *DB) HasFinishedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (bool, error) {
	var exists int
	err := db.QueryRowContext(ctx, `
		SELECT 1 FROM bookings
		WHERE item_id = ? AND booker_id = ? AND end_time < ?
		LIMIT 1`,
		itemID, bookerID, now.UTC(),
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check finished booking: %w", err)
	}
	return true, nil
}

// BookingsDueReminder returns APPROVED bookings starting within the lead
// window whose reminder has not been sent yet.
func (db *DB) BookingsDueReminder(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings b
		WHERE b.status = ? AND b.reminder_sent = 0
		  AND b.start_time > ? AND b.start_time <= ?
		ORDER BY b.start_time ASC, b.id ASC
		LIMIT ?`,
		models.StatusApproved, now.UTC(), now.UTC().Add(lead), limit,
	)
}

// BookingRegisterRows returns every booking joined with item and booker
// names for the export register, newest first.
func (db *DB) BookingRegisterRows(ctx context.Context) ([]export.RegisterRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT b.id, b.item_id, i.name, b.booker_id, u.name,
		       b.start_time, b.end_time, b.status, b.created_at
		FROM bookings b
		JOIN items i ON i.id = b.item_id
		JOIN users u ON u.id = b.booker_id
		ORDER BY b.created_at DESC, b.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query register rows: %w", err)
	}
	defer rows.Close()

	var result []export.RegisterRow
	for rows.Next() {
		var row export.RegisterRow
		var start, end, created time.Time
		err := rows.Scan(&row.BookingID, &row.ItemID, &row.ItemName,
			&row.BookerID, &row.BookerName, &start, &end, &row.Status, &created)
		if err != nil {
			return nil, fmt.Errorf("scan register row: %w", err)
		}
		row.Start = start.Format(time.RFC3339)
		row.End = end.Format(time.RFC3339)
		row.CreatedAt = created.Format(time.RFC3339)
		result = append(result, row)
	}
	return result, rows.Err()
}

// MarkReminderSent flips reminder_sent once; a false return means another
// scheduler pass got there first.
func (db *DB) MarkReminderSent(ctx context.Context, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, `
		UPDATE bookings SET reminder_sent = 1, updated_at = ?
		WHERE id = ? AND reminder_sent = 0`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
