package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPruneHistoryHonorsRetention(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(`DELETE FROM prices USING items WHERE prices.item_id = items.id AND prices.date < NOW\(\) - .*retention_days`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	repo := NewPriceRepository()
	n, err := repo.PruneHistory()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPruneHistoryNothingExpired(t *testing.T) {
	mock := newMockDB(t)
	mock.ExpectExec(`DELETE FROM prices USING items`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewPriceRepository()
	n, err := repo.PruneHistory()
	require.NoError(t, err)
	assert.Zero(t, n)
}
