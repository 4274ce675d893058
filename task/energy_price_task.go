package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/elpris-go/sensor"
)

type Checker interface {
	sensor.Provider
	Check(ctx context.Context)
}

// Publisher receives the sensor readings after every check.
type Publisher interface {
	Publish(ctx context.Context, readings []sensor.Reading) error
}

// NewEnergyPriceTask returns a task that is safe to call from both the
// scheduler and a manual refresh, runs never overlap.
func NewEnergyPriceTask(logger *slog.Logger, checker Checker, publishers ...Publisher) func() {
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		runEnergyPriceTask(logger, checker, publishers)
	}
}

func runEnergyPriceTask(logger *slog.Logger, checker Checker, publishers []Publisher) {
	logger.Debug("running energy price task...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checker.Check(ctx)

	readings := sensor.Evaluate(checker)
	for _, p := range publishers {
		if err := p.Publish(ctx, readings); err != nil {
			logger.Error("energy price task error, publishing readings", slog.Any("error", err))
		}
	}

	r := checker.CurrentReadings()
	logger.Debug("energy price task done",
		slog.String("current", r.CurrentPrice.String()),
		slog.String("dayAverage", r.DayAveragePrice.String()))
}
