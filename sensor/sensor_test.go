package sensor

import (
	"testing"

	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	readings types.Readings
	fees     types.Fees
}

func (p staticProvider) CurrentReadings() types.Readings { return p.readings }
func (p staticProvider) Fees() decimal.Decimal          { return p.fees.Combined() }

func TestMetricKeys(t *testing.T) {
	var keys []string
	for _, m := range AllMetrics() {
		keys = append(keys, m.Key())
	}
	assert.Equal(t, []string{
		"current_price",
		"day_average_price",
		"current_price_and_fees",
		"day_average_price_and_fees",
	}, keys)
}

func TestMetricNames(t *testing.T) {
	assert.Equal(t, "Current price", Metric{Source: Current}.Name())
	assert.Equal(t, "Current price w fees", Metric{Source: Current, WithFees: true}.Name())
	assert.Equal(t, "Average day price", Metric{Source: DayAverage}.Name())
	assert.Equal(t, "Average day price w fees", Metric{Source: DayAverage, WithFees: true}.Name())
}

func TestEvaluateAddsFeesOnRead(t *testing.T) {
	p := staticProvider{
		readings: types.Readings{
			CurrentPrice:    decimal.RequireFromString("1.5"),
			DayAveragePrice: decimal.RequireFromString("1.15"),
		},
		fees: types.NewFees(50, 25),
	}

	res := Evaluate(p)
	require.Len(t, res, 4)

	got := map[string]string{}
	for _, r := range res {
		got[r.Metric.Key()] = r.Value.String()
	}
	assert.Equal(t, map[string]string{
		"current_price":              "1.5",
		"day_average_price":          "1.15",
		"current_price_and_fees":     "2.25",
		"day_average_price_and_fees": "1.9",
	}, got)
}

func TestEvaluateNeverComputed(t *testing.T) {
	for _, r := range Evaluate(staticProvider{}) {
		assert.True(t, r.Value.IsZero(), "%s expected 0, got %s", r.Metric.Key(), r.Value)
	}
}

func TestDeviceIdentity(t *testing.T) {
	d := DeviceFor(types.SE2)
	assert.Equal(t, "elprisetjustnu_SE2", d.Identifier)
	assert.Equal(t, "ElprisetJustNu SE2", d.Name)
	assert.Equal(t, "current_price_and_fees_se2", UniqueID(Metric{Source: Current, WithFees: true}, types.SE2))
}
