package task

import (
	"context"
	"log/slog"
	"time"
)

type MaintenanceStore interface {
	PurgeLog(ctx context.Context, maxLogEntries int) error
	PurgeEnergyPrice(ctx context.Context, retentionDays int) error
}

func NewMaintenanceTask(logger *slog.Logger, db MaintenanceStore, maxLogEntries, retentionDays int) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if err := db.PurgeLog(ctx, maxLogEntries); err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeEnergyPrice(ctx, retentionDays); err != nil {
			logger.Error("energy_price maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done")
	}
}
