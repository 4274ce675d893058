// Package prices holds the in-memory day schedules of one price area and the
// derivation of current and average prices from them.
package prices

import (
	"slices"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
)

// Precision is the number of decimals derived prices are published with.
const Precision = 5

// Cache is an immutable snapshot of day schedules. A refetch builds a new Cache
// instead of changing an existing one.
type Cache struct {
	days []types.DaySchedule
}

var empty = &Cache{}

func Empty() *Cache {
	return empty
}

// NewCache keeps the provider order but holds at most one schedule per date,
// the last one given wins.
func NewCache(days []types.DaySchedule) *Cache {
	if len(days) == 0 {
		return empty
	}

	index := make(map[hours.Date]int, len(days))
	kept := make([]types.DaySchedule, 0, len(days))
	for _, d := range days {
		if i, ok := index[d.Date]; ok {
			kept[i] = d
			continue
		}
		index[d.Date] = len(kept)
		kept = append(kept, d)
	}
	return &Cache{days: kept}
}

func (c *Cache) Len() int {
	return len(c.days)
}

func (c *Cache) IsEmpty() bool {
	return len(c.days) == 0
}

func (c *Cache) Find(date hours.Date) (types.DaySchedule, bool) {
	for _, d := range c.days {
		if d.Date == date {
			return d, true
		}
	}
	return types.DaySchedule{}, false
}

// First returns the schedule first in provider order.
func (c *Cache) First() (types.DaySchedule, bool) {
	if len(c.days) == 0 {
		return types.DaySchedule{}, false
	}
	return c.days[0], true
}

// From returns the schedules dated on or after date, oldest first.
func (c *Cache) From(date hours.Date) []types.DaySchedule {
	res := make([]types.DaySchedule, 0, len(c.days))
	for _, d := range c.days {
		if d.Date.Compare(date) >= 0 {
			res = append(res, d)
		}
	}
	slices.SortFunc(res, func(a, b types.DaySchedule) int {
		return a.Date.Compare(b.Date)
	})
	return res
}

// CurrentHourPrice returns the price of the given hour. Schedules truncated
// near the day boundary fall back to the last entry, an empty schedule gives 0.
func CurrentHourPrice(s types.DaySchedule, hour uint8) decimal.Decimal {
	if len(s.Prices) == 0 {
		return decimal.Zero
	}
	for _, p := range s.Prices {
		if p.Hour == hour {
			return p.Price
		}
	}
	return s.Prices[len(s.Prices)-1].Price
}

// DayAverage trusts the average delivered with the schedule.
func DayAverage(s types.DaySchedule) decimal.Decimal {
	return s.DayAverage
}

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Precision)
}
