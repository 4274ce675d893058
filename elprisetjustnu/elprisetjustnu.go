package elprisetjustnu

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

const DefaultBaseURL = "https://www.elprisetjustnu.se"

type rawPrice struct {
	SEKPerKWh decimal.Decimal `json:"SEK_per_kWh"`
	EURPerKWh decimal.Decimal `json:"EUR_per_kWh"`
	EXR       decimal.Decimal `json:"EXR"`
	TimeStart time.Time       `json:"time_start"`
	TimeEnd   time.Time       `json:"time_end"`
}

type ElPrisetJustNu struct {
	baseURL string
	client  *http.Client
}

type Option func(*ElPrisetJustNu)

func WithBaseURL(url string) Option {
	return func(e *ElPrisetJustNu) {
		e.baseURL = url
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(e *ElPrisetJustNu) {
		e.client = client
	}
}

func New(opts ...Option) *ElPrisetJustNu {
	e := &ElPrisetJustNu{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ElPrisetJustNu) String() string {
	return "elprisetjustnu"
}

// FetchPrices returns the schedule of the date and, when published, the
// following day.
func (e *ElPrisetJustNu) FetchPrices(ctx context.Context, date hours.Date, area types.PriceArea) ([]types.DaySchedule, error) {
	var res []types.DaySchedule
	for _, d := range []hours.Date{date, date.AddDays(1)} {
		s, ok, err := e.getDaySchedule(ctx, d, area)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch prices for %s: %w", d, err)
		}
		if ok {
			res = append(res, s)
		}
	}
	return res, nil
}

func (e *ElPrisetJustNu) getDaySchedule(ctx context.Context, date hours.Date, area types.PriceArea) (types.DaySchedule, bool, error) {
	t := date.Time()
	url := fmt.Sprintf("%s/api/v1/prices/%d/%02d-%02d_%s.json",
		e.baseURL, t.Year(), int(t.Month()), t.Day(), area)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	// Not published yet
	if resp.StatusCode == http.StatusNotFound {
		return types.DaySchedule{}, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		return types.DaySchedule{}, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rawPrices []rawPrice
	if err := json.NewDecoder(resp.Body).Decode(&rawPrices); err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rawPrices) == 0 {
		return types.DaySchedule{}, false, nil
	}

	return toDaySchedule(date, rawPrices), true, nil
}

// toDaySchedule folds quarter hour prices into hourly averages. The day
// average is taken over all entries as delivered.
func toDaySchedule(date hours.Date, rawPrices []rawPrice) types.DaySchedule {
	sums := make(map[uint8]decimal.Decimal)
	counts := make(map[uint8]int64)
	var order []uint8
	total := decimal.Zero

	for _, raw := range rawPrices {
		h := hours.FromTime(raw.TimeStart).Hour
		if _, ok := sums[h]; !ok {
			order = append(order, h)
			sums[h] = decimal.Zero
		}
		sums[h] = sums[h].Add(raw.SEKPerKWh)
		counts[h]++
		total = total.Add(raw.SEKPerKWh)
	}

	prices := make([]types.HourlyPrice, 0, len(order))
	for _, h := range order {
		prices = append(prices, types.HourlyPrice{
			Hour:  h,
			Price: sums[h].Div(decimal.NewFromInt(counts[h])),
		})
	}

	return types.DaySchedule{
		Date:       date,
		Prices:     prices,
		DayAverage: total.Div(decimal.NewFromInt(int64(len(rawPrices)))),
	}
}
