package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"sitepulse/internal/geo"
)

// CollectEvent validates, enriches and persists one inbound event. On
// success it returns the stored row including the server-assigned id and
// visit timestamp. Validation failures come back as *ValidationError and
// leave the store untouched.
func CollectEvent(dbManager cartridge.DBManager, logger *slog.Logger, event *AnalyticsEvent, clientIP string) (*AnalyticsEvent, error) {
	if err := event.Validate(); err != nil {
		logger.Debug("Rejected invalid event", slog.Any("error", err))
		return nil, err
	}

	// Conversion attributes only exist on converted rows.
	if !event.Converted {
		event.ConversionType = ""
		event.ConversionValue = nil
	}

	if event.Country == "" {
		location := geo.Lookup(clientIP)
		event.Country = location.Country
		event.City = location.City
	}

	event.ID = 0
	event.VisitedAt = time.Now().UTC()

	db := dbManager.GetConnection()
	err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(event).Error
	})
	if err != nil {
		logger.Error("Failed to store analytics event", slog.Any("error", err))
		return nil, fmt.Errorf("failed to store analytics event: %w", err)
	}

	return event, nil
}

// PruneOlderThan deletes events whose visit timestamp precedes cutoff, in
// batches so the write lock is never held for long. It returns the number
// of rows removed.
func PruneOlderThan(logger *slog.Logger, db *gorm.DB, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	var total int64
	for {
		var deleted int64
		err := sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
			result := tx.Exec(
				`DELETE FROM analytics_events WHERE id IN (SELECT id FROM analytics_events WHERE visited_at < ? LIMIT ?)`,
				cutoff, batchSize,
			)
			deleted = result.RowsAffected
			return result.Error
		})
		if err != nil {
			return total, fmt.Errorf("failed to prune analytics events: %w", err)
		}

		total += deleted
		if deleted < int64(batchSize) {
			return total, nil
		}
	}
}
