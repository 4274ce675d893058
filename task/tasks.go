package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/elpris-go/config"
	"github.com/angas/elpris-go/hours"
	"github.com/robfig/cron/v3"
)

const maintenanceSchedule = "30 2 * * *"

type Tasks struct {
	cron            *cron.Cron
	pollTime        int
	EnergyPriceTask func()
	MaintenanceTask func()
}

func NewTasks(checker Checker, db MaintenanceStore, cnfg *config.AppConfig, publishers ...Publisher) *Tasks {
	logger := slog.Default().With("module", "tasks")
	cl := cronLogger{logger: logger}
	return &Tasks{
		cron: cron.New(
			cron.WithLocation(hours.Location()),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		pollTime: cnfg.Price.PollTime,
		EnergyPriceTask: NewEnergyPriceTask(
			logger.With(slog.String("task", "energy_price")), checker, publishers...),
		MaintenanceTask: NewMaintenanceTask(
			logger.With(slog.String("task", "maintenance")), db,
			cnfg.Logging.GetDbMaxEntries(), cnfg.Database.GetDataRetentionDays()),
	}
}

// Run performs a first price check right away and then schedules the jobs.
func (t *Tasks) Run() error {
	t.EnergyPriceTask()

	if _, err := t.cron.AddFunc(fmt.Sprintf("@every %ds", t.pollTime), t.EnergyPriceTask); err != nil {
		return fmt.Errorf("scheduling energy price task: %w", err)
	}
	if _, err := t.cron.AddFunc(maintenanceSchedule, t.MaintenanceTask); err != nil {
		return fmt.Errorf("scheduling maintenance task: %w", err)
	}
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}

// cronLogger routes cron's logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{slog.Any("error", err)}, keysAndValues...)...)
}
