package types

import (
	"context"
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/shopspring/decimal"
)

type HourlyPrice struct {
	Hour  uint8
	Price decimal.Decimal // Price in SEK per kWh excluding VAT
}

// DaySchedule holds the spot prices of one price area for one day. Prices may
// be incomplete or unsorted as delivered by the provider.
type DaySchedule struct {
	Date       hours.Date
	Prices     []HourlyPrice
	DayAverage decimal.Decimal
}

// NewDaySchedule computes the day average from the given hourly prices.
func NewDaySchedule(date hours.Date, prices []HourlyPrice) DaySchedule {
	return DaySchedule{
		Date:       date,
		Prices:     prices,
		DayAverage: averageOf(prices),
	}
}

func averageOf(prices []HourlyPrice) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(p.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(prices))))
}

type PricePoint struct {
	Time  time.Time
	Value decimal.Decimal
}

// PriceFetcher returns the schedules available from the given date and
// forward. An empty result is not an error, it means no data is published yet.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, date hours.Date, area PriceArea) ([]DaySchedule, error)
}
