package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/types"
	"github.com/shopspring/decimal"
)

// SaveDaySchedules replaces the stored prices of every given day.
func (d *Database) SaveDaySchedules(ctx context.Context, area types.PriceArea, days []types.DaySchedule) error {
	tx, err := d.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving day schedules: %w", err)
	}
	defer tx.Rollback()

	for _, day := range days {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM energy_price WHERE area = ? AND date = ?`,
			area, day.Date); err != nil {
			return fmt.Errorf("clearing energy prices for %s: %w", day.Date, err)
		}

		for _, p := range day.Prices {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO energy_price (area, date, hour, price) VALUES (?, ?, ?, ?)
				ON CONFLICT(area, date, hour) DO UPDATE SET price = excluded.price`,
				area, day.Date, p.Hour, p.Price); err != nil {
				return fmt.Errorf("saving energy price for %s %02d: %w", day.Date, p.Hour, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO day_average (area, date, price) VALUES (?, ?, ?)
			ON CONFLICT(area, date) DO UPDATE SET price = excluded.price`,
			area, day.Date, day.DayAverage); err != nil {
			return fmt.Errorf("saving day average for %s: %w", day.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("saving day schedules: %w", err)
	}
	return nil
}

// GetDaySchedule returns false when nothing is stored for the day.
func (d *Database) GetDaySchedule(ctx context.Context, area types.PriceArea, date hours.Date) (types.DaySchedule, bool, error) {
	var avg decimal.Decimal
	err := d.read.QueryRowContext(ctx, `
		SELECT price FROM day_average WHERE area = ? AND date = ?`,
		area, date).Scan(&avg)
	if err != nil {
		if isNoRows(err) {
			return types.DaySchedule{}, false, nil
		}
		return types.DaySchedule{}, false, fmt.Errorf("fetching day average: %w", err)
	}

	rows, err := d.read.QueryContext(ctx, `
		SELECT hour, price
		FROM energy_price
		WHERE area = ? AND date = ?
		ORDER BY hour ASC`,
		area, date)
	if err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("fetching energy prices: %w", err)
	}
	defer rows.Close()

	s := types.DaySchedule{Date: date, DayAverage: avg}
	for rows.Next() {
		var p types.HourlyPrice
		if err := rows.Scan(&p.Hour, &p.Price); err != nil {
			return types.DaySchedule{}, false, fmt.Errorf("scanning energy price row: %w", err)
		}
		s.Prices = append(s.Prices, p)
	}
	if err := rows.Err(); err != nil {
		return types.DaySchedule{}, false, fmt.Errorf("reading energy price rows: %w", err)
	}

	return s, true, nil
}

func (d *Database) PurgeEnergyPrice(ctx context.Context, retentionDays int) error {
	before := hours.DateOf(time.Now().Add(-24 * time.Hour * time.Duration(retentionDays)))
	d.logger.Debug("purging energy prices", slog.String("before", before.String()))

	for _, table := range []string{"energy_price", "day_average"} {
		res, err := d.write.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE date < ?`, table), before)
		if err != nil {
			return fmt.Errorf("error when purging %s: %w", table, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			d.logger.Warn("can't get rows affected by purge", slog.String("table", table), slog.Any("error", err))
		} else {
			d.logger.Debug(fmt.Sprintf("purged %d rows from %s", rows, table))
		}
	}

	return nil
}

// StoredFetcher serves previously saved schedules, used when every upstream
// provider fails.
type StoredFetcher struct {
	db *Database
}

func NewStoredFetcher(db *Database) *StoredFetcher {
	return &StoredFetcher{db: db}
}

func (f *StoredFetcher) String() string {
	return "database"
}

func (f *StoredFetcher) FetchPrices(ctx context.Context, date hours.Date, area types.PriceArea) ([]types.DaySchedule, error) {
	var res []types.DaySchedule
	for _, d := range []hours.Date{date, date.AddDays(1)} {
		s, ok, err := f.db.GetDaySchedule(ctx, area, d)
		if err != nil {
			return nil, err
		}
		if ok {
			res = append(res, s)
		}
	}
	return res, nil
}
