// Package coordinator decides when cached spot prices are too old to answer
// what the price is right now, refetches them and keeps the derived readings.
//
// Check is expected to be called serially by a scheduler. Readers of
// CurrentReadings, Fees and Prices may run concurrently with it, every piece of
// published state is swapped as a whole.
package coordinator

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/prices"
	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
)

// PublicationHour is the local hour after which the next day's prices are
// expected to be published upstream.
const PublicationHour = 13

type Coordinator struct {
	logger        *slog.Logger
	fetcher       types.PriceFetcher
	area          types.PriceArea
	fetchInterval time.Duration
	now           func() time.Time

	cache     atomic.Pointer[prices.Cache]
	lastFetch atomic.Int64 // unix nanos
	readings  atomic.Pointer[types.Readings]
	fees      atomic.Pointer[types.Fees]
}

type Option func(*Coordinator)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

func New(fetcher types.PriceFetcher, area types.PriceArea, fetchInterval time.Duration, fees types.Fees, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:        slog.Default().With("module", "coordinator"),
		fetcher:       fetcher,
		area:          area,
		fetchInterval: fetchInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.cache.Store(prices.Empty())
	c.readings.Store(&types.Readings{})
	c.fees.Store(&fees)
	c.setLastFetch(c.now())

	return c
}

// Check refetches prices when the cache is empty, older than the fetch
// interval, misses today or misses tomorrow after the publication hour. It
// then derives the readings for today. Fetch errors leave the cache as is.
func (c *Coordinator) Check(ctx context.Context) {
	now := c.now()
	today := hours.FromTime(now)
	tomorrow := today.Date.AddDays(1)
	fetched := false

	cache := c.cache.Load()
	if cache.IsEmpty() {
		c.logger.Debug("cache is empty, fetching prices", slog.String("date", today.Date.String()))
		cache = c.refresh(ctx, today.Date, cache)
		fetched = true
	} else if now.Sub(c.LastFetch()) > c.fetchInterval {
		c.logger.Debug("fetch interval elapsed, fetching prices",
			slog.Time("lastFetch", c.LastFetch()),
			slog.Duration("interval", c.fetchInterval))
		cache = c.refresh(ctx, today.Date, cache)
		fetched = true
	}

	_, gotToday := cache.Find(today.Date)
	needTomorrow := false
	if today.Hour > PublicationHour {
		_, gotTomorrow := cache.Find(tomorrow)
		needTomorrow = !gotTomorrow
	}

	if !fetched && (needTomorrow || !gotToday) {
		c.logger.Debug("prices are missing, fetching prices",
			slog.Bool("gotToday", gotToday),
			slog.Bool("needTomorrow", needTomorrow))
		cache = c.refresh(ctx, today.Date, cache)
		fetched = true
	}

	if fetched {
		c.setLastFetch(now)
	}

	if cache.IsEmpty() {
		return
	}

	s, ok := cache.Find(today.Date)
	if !ok {
		s, _ = cache.First()
		c.logger.Warn("no prices for today, using first cached day",
			slog.String("today", today.Date.String()),
			slog.String("date", s.Date.String()))
	}

	c.readings.Store(&types.Readings{
		CurrentPrice:    prices.Round(prices.CurrentHourPrice(s, today.Hour)),
		DayAveragePrice: prices.Round(prices.DayAverage(s)),
		Date:            s.Date,
		UpdatedAt:       now,
	})
}

// refresh fetches prices from date and forward. A non empty result replaces
// the cache, anything else keeps the current one.
func (c *Coordinator) refresh(ctx context.Context, date hours.Date, current *prices.Cache) *prices.Cache {
	days, err := c.fetcher.FetchPrices(ctx, date, c.area)
	if err != nil {
		c.logger.Error("failed to fetch prices",
			slog.String("area", c.area.String()),
			slog.String("date", date.String()),
			slog.Any("error", err))
		return current
	}
	if len(days) == 0 {
		c.logger.Info("no prices available", slog.String("area", c.area.String()), slog.String("date", date.String()))
		return current
	}

	next := prices.NewCache(days)
	c.cache.Store(next)
	c.logger.Info("prices updated", slog.String("area", c.area.String()), slog.Int("days", next.Len()))
	return next
}

// ForceUpdate drops the cached prices. The next Check refetches them.
func (c *Coordinator) ForceUpdate() {
	c.cache.Store(prices.Empty())
	c.lastFetch.Store(0)
	c.logger.Info("forced price update requested")
}

func (c *Coordinator) CurrentReadings() types.Readings {
	return *c.readings.Load()
}

// Fees returns the combined transfer fee and energy tax in SEK per kWh.
func (c *Coordinator) Fees() decimal.Decimal {
	return c.fees.Load().Combined()
}

func (c *Coordinator) SetFees(fees types.Fees) {
	c.fees.Store(&fees)
}

func (c *Coordinator) Area() types.PriceArea {
	return c.area
}

func (c *Coordinator) LastFetch() time.Time {
	ns := c.lastFetch.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

func (c *Coordinator) setLastFetch(t time.Time) {
	c.lastFetch.Store(t.UnixNano())
}

// Prices returns every cached hourly price from today and forward.
func (c *Coordinator) Prices() []types.PricePoint {
	today := hours.DateOf(c.now())
	var res []types.PricePoint
	for _, d := range c.cache.Load().From(today) {
		for _, p := range d.Prices {
			res = append(res, types.PricePoint{
				Time:  hours.DateHour{Date: d.Date, Hour: p.Hour}.Time(),
				Value: p.Price,
			})
		}
	}
	return res
}
