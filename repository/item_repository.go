package repository

import (
	"database/sql"
	"fmt"
	"time"

	"lootlook/database"
	"lootlook/models"
)

const itemColumns = `id, user_id, url, name, image_url, screenshot_path,
	current_price, previous_price, currency, retention_days,
	last_checked, date_added, shared_by, shared_on, original_item_id, deleted`

type ItemRepository struct{}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

func scanItem(row interface{ Scan(...interface{}) error }) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.UserID, &item.URL, &item.Name, &item.ImageURL, &item.ScreenshotPath,
		&item.CurrentPrice, &item.PreviousPrice, &item.Currency, &item.RetentionDays,
		&item.LastChecked, &item.DateAdded, &item.SharedBy, &item.SharedOn,
		&item.OriginalItemID, &item.Deleted,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddItem inserts a freshly scraped item for a user
func (r *ItemRepository) AddItem(userID int, url string, snapshot *models.ProductSnapshot, retentionDays int) (*models.Item, error) {
	query := `
		INSERT INTO items (user_id, url, name, image_url, screenshot_path, current_price, previous_price, currency, retention_days, last_checked)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7, $8, $9)
		RETURNING ` + itemColumns

	item, err := scanItem(database.DB.QueryRow(query,
		userID, url, snapshot.Title, snapshot.ImageURL, snapshot.ScreenshotRef,
		snapshot.Price, snapshot.Currency, retentionDays, time.Now(),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to add item: %v", err)
	}
	return item, nil
}

// GetItemsByUser returns a user's items, live or deleted
func (r *ItemRepository) GetItemsByUser(userID int, deleted bool) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE user_id = $1 AND deleted = $2
		ORDER BY date_added DESC
	`

	rows, err := database.DB.Query(query, userID, deleted)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %v", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %v", err)
		}
		items = append(items, *item)
	}

	return items, nil
}

// GetItemByID returns an item owned by the given user
func (r *ItemRepository) GetItemByID(id, userID int) (*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id = $1 AND user_id = $2
	`

	item, err := scanItem(database.DB.QueryRow(query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("item not found")
		}
		return nil, fmt.Errorf("failed to get item: %v", err)
	}
	return item, nil
}

// UpdateItemPrice records a fresh snapshot against an existing item,
// rolling the old current price into previous_price
func (r *ItemRepository) UpdateItemPrice(id int, snapshot *models.ProductSnapshot) error {
	query := `
		UPDATE items
		SET previous_price = current_price,
			current_price = $2,
			currency = $3,
			image_url = CASE WHEN $4 != '' THEN $4 ELSE image_url END,
			screenshot_path = CASE WHEN $5 != '' THEN $5 ELSE screenshot_path END,
			last_checked = $6
		WHERE id = $1
	`

	_, err := database.DB.Exec(query, id, snapshot.Price, snapshot.Currency,
		snapshot.ImageURL, snapshot.ScreenshotRef, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update item price: %v", err)
	}
	return nil
}

// UpdateItem changes an item's tracked URL and retention window
func (r *ItemRepository) UpdateItem(id, userID int, url string, retentionDays int) error {
	res, err := database.DB.Exec(
		`UPDATE items SET url = $3, retention_days = $4 WHERE id = $1 AND user_id = $2`,
		id, userID, url, retentionDays,
	)
	if err != nil {
		return fmt.Errorf("failed to update item: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item not found")
	}
	return nil
}

// MarkChecked bumps last_checked without touching prices, for runs
// where extraction failed
func (r *ItemRepository) MarkChecked(id int) error {
	_, err := database.DB.Exec(`UPDATE items SET last_checked = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return fmt.Errorf("failed to mark item checked: %v", err)
	}
	return nil
}

// SetDeleted soft-deletes or restores an item
func (r *ItemRepository) SetDeleted(id, userID int, deleted bool) error {
	res, err := database.DB.Exec(`UPDATE items SET deleted = $3 WHERE id = $1 AND user_id = $2`, id, userID, deleted)
	if err != nil {
		return fmt.Errorf("failed to update item: %v", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item not found")
	}
	return nil
}

// PurgeExpired hard-deletes soft-deleted items older than their
// retention window. Returns the number of rows removed.
func (r *ItemRepository) PurgeExpired() (int64, error) {
	query := `
		DELETE FROM items
		WHERE deleted = true
		AND date_added < NOW() - (retention_days || ' days')::interval
	`

	res, err := database.DB.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired items: %v", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// ShareItem copies an item into the target user's list, linked back to
// the original
func (r *ItemRepository) ShareItem(item *models.Item, sharedByUsername string, targetUserID int) (*models.Item, error) {
	query := `
		INSERT INTO items (user_id, url, name, image_url, screenshot_path, current_price, previous_price, currency, retention_days, last_checked, shared_by, shared_on, original_item_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + itemColumns

	copied, err := scanItem(database.DB.QueryRow(query,
		targetUserID, item.URL, item.Name, item.ImageURL, item.ScreenshotPath,
		item.CurrentPrice, item.PreviousPrice, item.Currency, item.RetentionDays,
		item.LastChecked, sharedByUsername, time.Now(), item.ID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to share item: %v", err)
	}
	return copied, nil
}

// HasSharedCopy reports whether the target user already holds a copy
// of the item, trashed copies included
func (r *ItemRepository) HasSharedCopy(originalItemID, targetUserID int) (bool, error) {
	var id int
	err := database.DB.QueryRow(
		`SELECT id FROM items WHERE original_item_id = $1 AND user_id = $2`,
		originalItemID, targetUserID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check shared copy: %v", err)
	}
	return true, nil
}

// GetSharedCopies lists the users holding live shared copies of an item
func (r *ItemRepository) GetSharedCopies(originalItemID int) ([]models.SharedCopyRef, error) {
	query := `
		SELECT u.id, u.username
		FROM items i
		JOIN users u ON u.id = i.user_id
		WHERE i.original_item_id = $1 AND NOT i.deleted
	`

	rows, err := database.DB.Query(query, originalItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shared copies: %v", err)
	}
	defer rows.Close()

	var refs []models.SharedCopyRef
	for rows.Next() {
		var ref models.SharedCopyRef
		if err := rows.Scan(&ref.UserID, &ref.Username); err != nil {
			return nil, fmt.Errorf("failed to scan shared copy: %v", err)
		}
		refs = append(refs, ref)
	}

	return refs, nil
}

// DeleteSharedCopy removes the target user's copy of a shared item
func (r *ItemRepository) DeleteSharedCopy(originalItemID, targetUserID int) error {
	_, err := database.DB.Exec(
		`DELETE FROM items WHERE original_item_id = $1 AND user_id = $2`,
		originalItemID, targetUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to unshare item: %v", err)
	}
	return nil
}

// GetDistinctActiveURLs returns every URL still tracked by a live item,
// for the scheduled refresh
func (r *ItemRepository) GetDistinctActiveURLs() ([]string, error) {
	rows, err := database.DB.Query(`SELECT DISTINCT url FROM items WHERE NOT deleted`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active URLs: %v", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan URL: %v", err)
		}
		urls = append(urls, url)
	}

	return urls, nil
}

// GetItemsByURL returns all live items tracking a URL, across users
func (r *ItemRepository) GetItemsByURL(url string) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE url = $1 AND NOT deleted
	`

	rows, err := database.DB.Query(query, url)
	if err != nil {
		return nil, fmt.Errorf("failed to get items by URL: %v", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %v", err)
		}
		items = append(items, *item)
	}

	return items, nil
}
