package jobs

import (
	"log/slog"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
	"sitepulse/internal/events"
)

const pruneBatchSize = 1000

// RetentionJob removes analytics events older than the retention period.
type RetentionJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewRetentionJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *RetentionJob {
	return &RetentionJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run deletes events whose visit timestamp precedes the retention cutoff.
// Deletion happens in batches so the database is never locked for long.
func (j *RetentionJob) Run() error {
	retentionDays := j.cfg.EventsRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of old analytics events",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoff))

	deleted, err := events.PruneOlderThan(j.logger, j.dbManager.GetConnection(), cutoff, pruneBatchSize)
	if err != nil {
		j.logger.Error("Failed to prune old analytics events", slog.Any("error", err))
		return err
	}

	if deleted == 0 {
		j.logger.Debug("No old analytics events to clean up")
		return nil
	}

	j.logger.Info("Cleaned up old analytics events",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", retentionDays))

	return nil
}
