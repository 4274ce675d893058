package www

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/angas/elpris-go/database"
	"github.com/angas/elpris-go/logging"
	"github.com/angas/elpris-go/sensor"
	"github.com/shopspring/decimal"
)

type sensorResponse struct {
	Key   string          `json:"key"`
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit"`
}

func newSensorsResponse(readings []sensor.Reading) []sensorResponse {
	res := make([]sensorResponse, len(readings))
	for i, r := range readings {
		res[i] = sensorResponse{
			Key:   r.Metric.Key(),
			Name:  r.Metric.Name(),
			Value: r.Value,
			Unit:  sensor.Unit,
		}
	}
	return res
}

type readingsResponse struct {
	Area        string           `json:"area"`
	Date        string           `json:"date,omitempty"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	LastFetch   *time.Time       `json:"last_fetch,omitempty"`
	Fees        decimal.Decimal  `json:"fees"`
	Attribution string           `json:"attribution"`
	Sensors     []sensorResponse `json:"sensors"`
}

type pricePointResponse struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

type logEntryResponse struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Attrs     string    `json:"attrs,omitempty"`
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", slog.Any("error", err))
	}
}

func NewReadingsHandler(logger *slog.Logger, src PriceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		readings := src.CurrentReadings()
		writeJSON(logger, w, http.StatusOK, readingsResponse{
			Area:        src.Area().String(),
			Date:        readings.Date.String(),
			UpdatedAt:   timeOrNil(readings.UpdatedAt),
			LastFetch:   timeOrNil(src.LastFetch()),
			Fees:        src.Fees(),
			Attribution: sensor.Attribution,
			Sensors:     newSensorsResponse(sensor.Evaluate(src)),
		})
	}
}

func NewPricesHandler(logger *slog.Logger, src PriceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		points := src.Prices()
		res := make([]pricePointResponse, len(points))
		for i, p := range points {
			res[i] = pricePointResponse(p)
		}
		writeJSON(logger, w, http.StatusOK, res)
	}
}

// NewRefreshHandler clears the cached prices and runs refresh in the
// background. The response does not wait for the new prices.
func NewRefreshHandler(logger *slog.Logger, src PriceSource, refresh func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("forced price update requested", slog.String("remoteAddr", r.RemoteAddr))
		src.ForceUpdate()
		if refresh != nil {
			go refresh()
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func NewLogHandler(logger *slog.Logger, db LogSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := intOrDefault(r.URL, "page", 1)
		pageSize := intOrDefault(r.URL, "pageSize", 25)
		var level *string
		if l := r.URL.Query().Get("level"); l != "" {
			level = &l
		}

		minLvl := logging.LevelFromString(level)
		entries, err := db.GetLogEntries(r.Context(), minLvl, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		total, err := db.CountLogEntries(r.Context(), minLvl)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(total))

		writeJSON(logger, w, http.StatusOK, newLogEntriesResponse(entries))
	}
}

func newLogEntriesResponse(entries []database.LogEntryRow) []logEntryResponse {
	res := make([]logEntryResponse, len(entries))
	for i, e := range entries {
		res[i] = logEntryResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Level:     slog.Level(e.Level).String(),
			Message:   e.Message,
			Attrs:     e.Attrs,
		}
	}
	return res
}

func intOrDefault(u *url.URL, key string, defaultValue int) int {
	if v := u.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
