package nordpool

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angas/elpris-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dayAheadBody = `{
	"deliveryDateCET": "2025-01-15",
	"version": 3,
	"market": "DayAhead",
	"currency": "SEK",
	"deliveryAreas": ["SE3"],
	"multiAreaEntries": [
		{"deliveryStart": "2025-01-14T23:00:00Z", "deliveryEnd": "2025-01-15T00:00:00Z", "entryPerArea": {"SE3": 512.5}},
		{"deliveryStart": "2025-01-15T00:00:00Z", "deliveryEnd": "2025-01-15T01:00:00Z", "entryPerArea": {"SE3": 1000}},
		{"deliveryStart": "2025-01-15T01:00:00Z", "deliveryEnd": "2025-01-15T02:00:00Z", "entryPerArea": {"SE4": 900}}
	],
	"areaAverages": [{"areaCode": "SE3", "price": 756.25}]
}`

func TestFetchPrices(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.RawQuery)
		if r.URL.Query().Get("date") == "2025-01-15" {
			fmt.Fprint(w, dayAheadBody)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	days, err := New(srv.URL).FetchPrices(context.Background(), "2025-01-15", types.SE3)
	require.NoError(t, err)
	require.Len(t, days, 1)

	assert.Equal(t, "date=2025-01-15&market=DayAhead&deliveryArea=SE3&currency=SEK", queries[0])
	assert.Equal(t, "date=2025-01-16&market=DayAhead&deliveryArea=SE3&currency=SEK", queries[1])

	d := days[0]
	require.Len(t, d.Prices, 2)
	assert.Equal(t, uint8(0), d.Prices[0].Hour)
	assert.Equal(t, "0.5125", d.Prices[0].Price.String())
	assert.Equal(t, uint8(1), d.Prices[1].Hour)
	assert.Equal(t, "1", d.Prices[1].Price.String())
	assert.Equal(t, "0.75625", d.DayAverage.String())
}

func TestFetchPricesUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).FetchPrices(context.Background(), "2025-01-15", types.SE3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")
}

func TestFetchPricesOtherArea(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dayAheadBody)
	}))
	defer srv.Close()

	days, err := New(srv.URL).FetchPrices(context.Background(), "2025-01-15", types.SE1)
	require.NoError(t, err)
	assert.Empty(t, days)
}
