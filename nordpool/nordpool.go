package nordpool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://dataportal-api.nordpoolgroup.com"

var perMWh = decimal.NewFromInt(1000)

type Nordpool struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Nordpool {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Nordpool{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Nordpool) String() string {
	return "nordpool"
}

func (n *Nordpool) FetchPrices(ctx context.Context, date hours.Date, area types.PriceArea) ([]types.DaySchedule, error) {
	var res []types.DaySchedule
	for _, d := range []hours.Date{date, date.AddDays(1)} {
		s, ok, err := n.getDaySchedule(ctx, d, area)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch prices from nordpool for %s: %w", d, err)
		}
		if ok {
			res = append(res, s)
		}
	}
	return res, nil
}

func (n *Nordpool) getDaySchedule(ctx context.Context, date hours.Date, area types.PriceArea) (types.DaySchedule, bool, error) {
	url := fmt.Sprintf("%s/api/DayAheadPrices?date=%s&market=DayAhead&deliveryArea=%s&currency=SEK",
		n.baseURL, date, area)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return types.DaySchedule{}, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		return types.DaySchedule{}, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var data dayAheadPrices
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("failed to decode response: %w", err)
	}

	return toDaySchedule(date, area, data)
}

// toDaySchedule converts SEK/MWh into SEK/kWh and folds sub hourly entries
// into hourly averages.
func toDaySchedule(date hours.Date, area types.PriceArea, data dayAheadPrices) (types.DaySchedule, bool, error) {
	sums := make(map[uint8]decimal.Decimal)
	counts := make(map[uint8]int64)
	var order []uint8

	for _, entry := range data.MultiAreaEntries {
		price, ok := entry.EntryPerArea[area.String()]
		if !ok {
			continue
		}
		h := hours.FromTime(entry.DeliveryStart).Hour
		if _, ok := sums[h]; !ok {
			order = append(order, h)
			sums[h] = decimal.Zero
		}
		sums[h] = sums[h].Add(price)
		counts[h]++
	}
	if len(order) == 0 {
		return types.DaySchedule{}, false, nil
	}

	prices := make([]types.HourlyPrice, 0, len(order))
	for _, h := range order {
		prices = append(prices, types.HourlyPrice{
			Hour:  h,
			Price: normalizePrice(sums[h].Div(decimal.NewFromInt(counts[h]))),
		})
	}

	s := types.NewDaySchedule(date, prices)
	for _, avg := range data.AreaAverages {
		if avg.AreaCode == area.String() {
			s.DayAverage = normalizePrice(avg.Price)
		}
	}
	return s, true, nil
}

func normalizePrice(price decimal.Decimal) decimal.Decimal {
	return price.Div(perMWh).Round(6)
}
