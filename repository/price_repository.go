package repository

import (
	"fmt"

	"lootlook/database"
	"lootlook/models"
)

type PriceRepository struct{}

func NewPriceRepository() *PriceRepository {
	return &PriceRepository{}
}

// AddPricePoint appends a price to an item's history
func (r *PriceRepository) AddPricePoint(itemID int, price float64) error {
	_, err := database.DB.Exec(
		`INSERT INTO prices (item_id, price) VALUES ($1, $2)`,
		itemID, price,
	)
	if err != nil {
		return fmt.Errorf("failed to add price point: %v", err)
	}
	return nil
}

// PruneHistory drops price points older than their item's retention
// window. Returns the number of rows removed.
func (r *PriceRepository) PruneHistory() (int64, error) {
	query := `
		DELETE FROM prices
		USING items
		WHERE prices.item_id = items.id
		AND prices.date < NOW() - (items.retention_days || ' days')::interval
	`

	res, err := database.DB.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prune price history: %v", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetHistory returns an item's price history, oldest first
func (r *PriceRepository) GetHistory(itemID int) ([]models.PricePoint, error) {
	query := `
		SELECT id, item_id, price, date
		FROM prices
		WHERE item_id = $1
		ORDER BY date ASC
	`

	rows, err := database.DB.Query(query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %v", err)
	}
	defer rows.Close()

	var history []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.ID, &p.ItemID, &p.Price, &p.Date); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %v", err)
		}
		history = append(history, p)
	}

	return history, nil
}
