package tibber

import (
	"context"
	"fmt"
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
)

type priceInfo struct {
	StartsAt time.Time       `json:"startsAt"`
	Energy   decimal.Decimal `json:"energy"`
}

type priceInfoResponse struct {
	CurrentSubscription struct {
		PriceInfo struct {
			Today    []priceInfo `json:"today"`
			Tomorrow []priceInfo `json:"tomorrow"`
		} `json:"priceInfo"`
	} `json:"currentSubscription"`
}

// FetchPrices returns the energy part of the home's price for today and, when
// published, tomorrow. Days before date are dropped. The area is not sent,
// Tibber always answers for the area of the home.
func (t *Tibber) FetchPrices(ctx context.Context, date hours.Date, area types.PriceArea) ([]types.DaySchedule, error) {
	query := `
		currentSubscription {
			priceInfo {
				today { startsAt energy }
				tomorrow { startsAt energy }
			}
		}`

	body, err := doQuery[priceInfoResponse](ctx, t, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tibber prices: %w", err)
	}

	info := body.Data.Viewer.Home.CurrentSubscription.PriceInfo
	entries := append(info.Today, info.Tomorrow...)

	var dates []hours.Date
	byDate := map[hours.Date][]priceInfo{}
	for _, e := range entries {
		d := hours.DateOf(e.StartsAt)
		if d.Compare(date) < 0 {
			continue
		}
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], e)
	}

	res := make([]types.DaySchedule, 0, len(dates))
	for _, d := range dates {
		res = append(res, daySchedule(d, byDate[d]))
	}
	return res, nil
}

// daySchedule averages sub-hour entries into hourly prices.
func daySchedule(date hours.Date, entries []priceInfo) types.DaySchedule {
	sums := map[uint8]decimal.Decimal{}
	counts := map[uint8]int64{}
	var order []uint8
	for _, e := range entries {
		h := hours.FromTime(e.StartsAt).Hour
		if _, ok := counts[h]; !ok {
			order = append(order, h)
		}
		sums[h] = sums[h].Add(e.Energy)
		counts[h]++
	}

	prices := make([]types.HourlyPrice, 0, len(order))
	for _, h := range order {
		prices = append(prices, types.HourlyPrice{
			Hour:  h,
			Price: sums[h].Div(decimal.NewFromInt(counts[h])),
		})
	}
	return types.NewDaySchedule(date, prices)
}
