package models

import "time"

// ItemRequest is a wish posted by a user looking for an item nobody listed
// yet. Owners may answer it by creating an item linked via Item.RequestID.
type ItemRequest struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requester_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
