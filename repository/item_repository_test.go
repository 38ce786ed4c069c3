package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lootlook/database"
)

// newMockDB swaps the package-level connection for a sqlmock one for the
// duration of a test.
func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
	return mock
}

func itemRows(id, userID int, url string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "url", "name", "image_url", "screenshot_path",
		"current_price", "previous_price", "currency", "retention_days",
		"last_checked", "date_added", "shared_by", "shared_on", "original_item_id", "deleted",
	}).AddRow(id, userID, url, "Widget", "", "", 49.99, 49.99, "$", 30, now, now, nil, nil, nil, false)
}

func TestUpdateItemChangesURLAndRetention(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(`UPDATE items SET url = \$3, retention_days = \$4 WHERE id = \$1 AND user_id = \$2`).
		WithArgs(5, 9, "https://shop.example/p/1", 45).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewItemRepository()
	require.NoError(t, repo.UpdateItem(5, 9, "https://shop.example/p/1", 45))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateItemMissingRow(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(`UPDATE items SET url = \$3, retention_days = \$4`).
		WithArgs(5, 9, "https://shop.example/p/1", 45).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewItemRepository()
	err := repo.UpdateItem(5, 9, "https://shop.example/p/1", 45)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item not found")
}

func TestHasSharedCopy(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id FROM items WHERE original_item_id = \$1 AND user_id = \$2`).
		WithArgs(7, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	repo := NewItemRepository()
	exists, err := repo.HasSharedCopy(7, 3)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestHasSharedCopyNone(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectQuery(`SELECT id FROM items WHERE original_item_id = \$1 AND user_id = \$2`).
		WithArgs(7, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewItemRepository()
	exists, err := repo.HasSharedCopy(7, 3)
	require.NoError(t, err)
	assert.False(t, exists)
}
