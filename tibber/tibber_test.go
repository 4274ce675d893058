package tibber

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angas/elpris-go/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const priceInfoBody = `{
  "data": {"viewer": {"home": {"currentSubscription": {"priceInfo": {
    "today": [
      {"startsAt": "2025-03-09T23:00:00.000+01:00", "energy": 0.9},
      {"startsAt": "2025-03-10T00:00:00.000+01:00", "energy": 1.0},
      {"startsAt": "2025-03-10T00:15:00.000+01:00", "energy": 2.0},
      {"startsAt": "2025-03-10T01:00:00.000+01:00", "energy": 0.5}
    ],
    "tomorrow": [
      {"startsAt": "2025-03-11T00:00:00.000+01:00", "energy": 3.0}
    ]
  }}}}}
}`

func TestFetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		var q queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.True(t, strings.Contains(q.Query, `home(id:"home-1")`))
		w.Write([]byte(priceInfoBody))
	}))
	defer srv.Close()

	days, err := New("token", "home-1").WithURL(srv.URL).FetchPrices(context.Background(), "2025-03-10", types.SE3)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2025-03-10", days[0].Date.String())
	require.Len(t, days[0].Prices, 2)
	assert.Equal(t, uint8(0), days[0].Prices[0].Hour)
	assert.Equal(t, "1.5", days[0].Prices[0].Price.String())
	assert.Equal(t, "0.5", days[0].Prices[1].Price.String())
	assert.Equal(t, "1", days[0].DayAverage.String())

	assert.Equal(t, "2025-03-11", days[1].Date.String())
	assert.Equal(t, "3", days[1].DayAverage.String())
}

func TestFetchPricesGraphQLError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null, "errors": [{"message": "invalid token"}]}`))
	}))
	defer srv.Close()

	_, err := New("bad", "home-1").WithURL(srv.URL).FetchPrices(context.Background(), "2025-03-10", types.SE3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestFetchPricesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := New("bad", "home-1").WithURL(srv.URL).FetchPrices(context.Background(), "2025-03-10", types.SE3)
	assert.Error(t, err)
}
