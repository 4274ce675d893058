package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/types"
)

type PriceStore interface {
	SaveDaySchedules(ctx context.Context, area types.PriceArea, days []types.DaySchedule) error
}

// PriceFetcher asks the upstream providers in order and returns the first
// non-empty answer, which is also written to the store. When every upstream
// provider fails or has nothing, the fallback (normally the store itself) is
// asked instead.
type PriceFetcher struct {
	logger    *slog.Logger
	providers []types.PriceFetcher
	store     PriceStore
	fallback  types.PriceFetcher
}

func NewPriceFetcher(store PriceStore, fallback types.PriceFetcher, providers ...types.PriceFetcher) *PriceFetcher {
	if len(providers) == 0 {
		panic("no energy price providers")
	}
	return &PriceFetcher{
		logger:    slog.Default().With("module", "energy_price"),
		providers: providers,
		store:     store,
		fallback:  fallback,
	}
}

func (f *PriceFetcher) FetchPrices(ctx context.Context, date hours.Date, area types.PriceArea) ([]types.DaySchedule, error) {
	var errs []error
	for _, provider := range f.providers {
		days, err := provider.FetchPrices(ctx, date, area)
		if err != nil {
			f.logger.Warn("energy price provider failed",
				slog.String("provider", providerName(provider)),
				slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		if len(days) == 0 {
			f.logger.Debug("energy price provider has no prices",
				slog.String("provider", providerName(provider)),
				slog.String("date", date.String()))
			continue
		}

		f.logger.Debug("energy prices fetched",
			slog.String("provider", providerName(provider)),
			slog.Int("days", len(days)))
		if f.store != nil {
			if err := f.store.SaveDaySchedules(ctx, area, days); err != nil {
				f.logger.Error("failed to store energy prices", slog.Any("error", err))
			}
		}
		return days, nil
	}

	if f.fallback != nil {
		days, err := f.fallback.FetchPrices(ctx, date, area)
		if err != nil {
			errs = append(errs, err)
		} else if len(days) > 0 {
			f.logger.Info("using stored energy prices",
				slog.String("provider", providerName(f.fallback)),
				slog.Int("days", len(days)))
			return days, nil
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("fetching energy prices for %s: %w", area, errors.Join(errs...))
	}
	return nil, nil
}

func providerName(p types.PriceFetcher) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
