package database

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func day(date hours.Date, avg string, prices ...string) types.DaySchedule {
	s := types.DaySchedule{Date: date, DayAverage: decimal.RequireFromString(avg)}
	for h, p := range prices {
		s.Prices = append(s.Prices, types.HourlyPrice{Hour: uint8(h), Price: decimal.RequireFromString(p)})
	}
	return s
}

func TestSaveAndGetDaySchedule(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	err := db.SaveDaySchedules(ctx, types.SE3, []types.DaySchedule{
		day("2025-01-01", "1.15", "1.0", "1.2", "0.12345678"),
	})
	require.NoError(t, err)

	s, ok, err := db.GetDaySchedule(ctx, types.SE3, "2025-01-01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s.Prices, 3)
	assert.Equal(t, "1.15", s.DayAverage.String())
	assert.Equal(t, uint8(2), s.Prices[2].Hour)
	assert.Equal(t, "0.12345678", s.Prices[2].Price.String())

	_, ok, err = db.GetDaySchedule(ctx, types.SE4, "2025-01-01")
	require.NoError(t, err)
	assert.False(t, ok, "areas are stored separately")
}

func TestSaveDayScheduleReplacesDay(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.SaveDaySchedules(ctx, types.SE1, []types.DaySchedule{day("2025-01-01", "1", "1", "1", "1")}))
	require.NoError(t, db.SaveDaySchedules(ctx, types.SE1, []types.DaySchedule{day("2025-01-01", "2", "2")}))

	s, ok, err := db.GetDaySchedule(ctx, types.SE1, "2025-01-01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s.Prices, 1)
	assert.Equal(t, "2", s.DayAverage.String())
}

func TestStoredFetcher(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	require.NoError(t, db.SaveDaySchedules(ctx, types.SE2, []types.DaySchedule{
		day("2025-01-01", "1", "1"),
		day("2025-01-02", "2", "2"),
		day("2025-01-03", "3", "3"),
	}))

	days, err := NewStoredFetcher(db).FetchPrices(ctx, "2025-01-02", types.SE2)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, hours.Date("2025-01-02"), days[0].Date)
	assert.Equal(t, hours.Date("2025-01-03"), days[1].Date)

	days, err = NewStoredFetcher(db).FetchPrices(ctx, "2025-02-01", types.SE2)
	require.NoError(t, err)
	assert.Empty(t, days)
}

func TestPurgeEnergyPrice(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	old := hours.DateOf(time.Now().AddDate(0, 0, -40))
	recent := hours.Today()
	require.NoError(t, db.SaveDaySchedules(ctx, types.SE3, []types.DaySchedule{
		day(old, "1", "1"),
		day(recent, "2", "2"),
	}))

	require.NoError(t, db.PurgeEnergyPrice(ctx, 30))

	_, ok, err := db.GetDaySchedule(ctx, types.SE3, old)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = db.GetDaySchedule(ctx, types.SE3, recent)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLogEntries(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for i, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
		require.NoError(t, db.SaveLogEntry(ctx, LogEntryRow{
			Timestamp: time.Date(2025, 1, 1, 12, i, 0, 0, time.UTC),
			Level:     int(lvl),
			Message:   lvl.String(),
		}))
	}

	entries, err := db.GetLogEntries(ctx, slog.LevelInfo, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ERROR", entries[0].Message)
	assert.Equal(t, "INFO", entries[1].Message)
	assert.Greater(t, entries[0].ID, entries[1].ID)

	n, err := db.CountLogEntries(ctx, slog.LevelInfo)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, db.PurgeLog(ctx, 1))
	entries, err = db.GetLogEntries(ctx, slog.LevelDebug, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ERROR", entries[0].Message)
}
