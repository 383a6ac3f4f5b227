// Package history keeps a local SQLite archive of completed orders so the
// terminal can show recent checkouts across restarts without asking the
// backend.
package history

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/hoffee-app/hoffee/app/models"
)

// OrderRecord is the archive row for one completed checkout.
type OrderRecord struct {
	ID         string `gorm:"primaryKey;size:16"`
	Date       string `gorm:"size:16"`
	Items      string
	Total      int
	Status     string `gorm:"size:16"`
	PickupTime string `gorm:"size:16"`
	Comment    string
	CreatedAt  time.Time
}

// Archive is the order archive backed by SQLite.
type Archive struct {
	db *gorm.DB
}

// Open connects to the archive database and migrates the schema.
func Open(dsn string) (*Archive, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&OrderRecord{}); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Archive{db: db}, nil
}

// Record stores one completed order. Re-recording an existing id updates it.
func (a *Archive) Record(item models.OrderHistoryItem) error {
	rec := OrderRecord{
		ID:         item.ID,
		Date:       item.Date,
		Items:      item.Items,
		Total:      item.Total,
		Status:     item.Status,
		PickupTime: item.PickupTime,
		Comment:    item.Comment,
	}
	if err := a.db.Save(&rec).Error; err != nil {
		return fmt.Errorf("history: record %s: %w", item.ID, err)
	}
	return nil
}

// Recent returns up to limit archived orders, newest first.
func (a *Archive) Recent(limit int) ([]models.OrderHistoryItem, error) {
	var recs []OrderRecord
	if err := a.db.Order("created_at desc").Limit(limit).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}

	items := make([]models.OrderHistoryItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, models.OrderHistoryItem{
			ID:         r.ID,
			Date:       r.Date,
			Items:      r.Items,
			Total:      r.Total,
			Status:     r.Status,
			PickupTime: r.PickupTime,
			Comment:    r.Comment,
		})
	}
	return items, nil
}

// TotalSpent sums the totals of all completed archived orders.
func (a *Archive) TotalSpent() (int, error) {
	var total int64
	err := a.db.Model(&OrderRecord{}).
		Where("status = ?", models.OrderCompleted).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("history: total spent: %w", err)
	}
	return int(total), nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
