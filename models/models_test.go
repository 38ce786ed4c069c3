package models

import (
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductSnapshotHasPrice(t *testing.T) {
	withPrice := &ProductSnapshot{Price: 59.99}
	assert.True(t, withPrice.HasPrice())

	noPrice := &ProductSnapshot{Title: "Unknown Item"}
	assert.False(t, noPrice.HasPrice())
}

func TestItemMarshalJSONFlattensNullables(t *testing.T) {
	t.Run("owned item has null share fields", func(t *testing.T) {
		item := &Item{ID: 1, Name: "Mouse", Currency: "₹"}

		data, err := json.Marshal(item)
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Nil(t, out["shared_by"])
		assert.Nil(t, out["original_item_id"])
	})

	t.Run("shared copy exposes share fields", func(t *testing.T) {
		item := &Item{
			ID:             2,
			Name:           "Mouse",
			SharedBy:       sql.NullString{String: "alice", Valid: true},
			OriginalItemID: sql.NullInt64{Int64: 1, Valid: true},
		}

		data, err := json.Marshal(item)
		require.NoError(t, err)

		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, "alice", out["shared_by"])
		assert.Equal(t, float64(1), out["original_item_id"])
	})
}

func TestItemIsSharedCopy(t *testing.T) {
	owned := &Item{}
	assert.False(t, owned.IsSharedCopy())

	shared := &Item{OriginalItemID: sql.NullInt64{Int64: 7, Valid: true}}
	assert.True(t, shared.IsSharedCopy())
}
