package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// ProductSnapshot is the normalized result of one extraction invocation.
// It is always fully populated: defaults fill gaps rather than leaving
// fields null. A Price of 0 means "no plausible price found" and callers
// must treat it as a soft failure, not a real price.
type ProductSnapshot struct {
	Title         string  `json:"title"`
	ImageURL      string  `json:"image_url"`
	ScreenshotRef string  `json:"screenshot_ref"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	SourceURL     string  `json:"source_url"`
	Strategy      string  `json:"strategy"`
}

// HasPrice reports whether the snapshot carries a usable price.
func (s *ProductSnapshot) HasPrice() bool {
	return s.Price > 0
}

// User represents a registered account
type User struct {
	ID        int       `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	Name      string    `json:"name" db:"name"`
	Gender    string    `json:"gender,omitempty" db:"gender"`
	Age       int       `json:"age,omitempty" db:"age"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Item represents a tracked product owned by a user
type Item struct {
	ID             int             `json:"id" db:"id"`
	UserID         int             `json:"user_id" db:"user_id"`
	URL            string          `json:"url" db:"url"`
	Name           string          `json:"name" db:"name"`
	ImageURL       string          `json:"image_url" db:"image_url"`
	ScreenshotPath string          `json:"screenshot_path" db:"screenshot_path"`
	CurrentPrice   float64         `json:"current_price" db:"current_price"`
	PreviousPrice  float64         `json:"previous_price" db:"previous_price"`
	Currency       string          `json:"currency" db:"currency"`
	RetentionDays  int             `json:"retention_days" db:"retention_days"`
	LastChecked    *time.Time      `json:"last_checked" db:"last_checked"`
	DateAdded      time.Time       `json:"date_added" db:"date_added"`
	SharedBy       sql.NullString  `json:"-" db:"shared_by"`
	SharedOn       *time.Time      `json:"shared_on" db:"shared_on"`
	OriginalItemID sql.NullInt64   `json:"-" db:"original_item_id"`
	Deleted        bool            `json:"deleted" db:"deleted"`
	SharedWith     []SharedCopyRef `json:"shared_with,omitempty"`
}

// SharedCopyRef identifies a user holding a shared copy of an item
type SharedCopyRef struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

// MarshalJSON flattens the nullable sharing columns for API responses
func (i *Item) MarshalJSON() ([]byte, error) {
	type Alias Item
	var sharedBy *string
	if i.SharedBy.Valid {
		sharedBy = &i.SharedBy.String
	}
	var originalItemID *int64
	if i.OriginalItemID.Valid {
		originalItemID = &i.OriginalItemID.Int64
	}
	return json.Marshal(&struct {
		*Alias
		SharedBy       *string `json:"shared_by"`
		OriginalItemID *int64  `json:"original_item_id"`
	}{
		Alias:          (*Alias)(i),
		SharedBy:       sharedBy,
		OriginalItemID: originalItemID,
	})
}

// IsSharedCopy reports whether this item was shared to its owner by someone else
func (i *Item) IsSharedCopy() bool {
	return i.OriginalItemID.Valid
}

// PricePoint represents one row of an item's price history
type PricePoint struct {
	ID     int       `json:"id" db:"id"`
	ItemID int       `json:"item_id" db:"item_id"`
	Price  float64   `json:"price" db:"price"`
	Date   time.Time `json:"date" db:"date"`
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Age      int    `json:"age"`
}

// LoginRequest is the payload for authentication
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AddItemRequest is the payload for tracking a new product URL
type AddItemRequest struct {
	URL       string `json:"url"`
	Retention int    `json:"retention"`
}

// UpdateItemRequest is the payload for editing a tracked item
type UpdateItemRequest struct {
	URL       string `json:"url"`
	Retention int    `json:"retention"`
}

// ShareRequest is the payload for sharing an item with another user
type ShareRequest struct {
	ItemID       int `json:"itemId"`
	TargetUserID int `json:"targetUserId"`
}
