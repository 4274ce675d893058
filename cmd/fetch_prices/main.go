package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/angas/elpris-go/config"
	"github.com/angas/elpris-go/database"
	"github.com/angas/elpris-go/elprisetjustnu"
	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/logging"
	"github.com/angas/elpris-go/nordpool"
	"github.com/angas/elpris-go/prices"
	"github.com/angas/elpris-go/tibber"
	"github.com/angas/elpris-go/types"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "fetch_prices",
		Usage:  "fetch spot prices for a day and print them",
		Action: fetchPrices,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "area",
				EnvVars: []string{"PRICE_AREA"},
				Value:   string(types.SE3),
				Usage:   "price area, SE1-SE4",
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "date as YYYY-MM-DD, default today",
			},
			&cli.StringFlag{
				Name:  "provider",
				Value: "elprisetjustnu",
				Usage: "elprisetjustnu, nordpool, tibber or database",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file, used by the database and tibber providers",
			},
			&cli.BoolFlag{
				Name:  "store",
				Usage: "save the fetched prices in the database",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "info",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("fetch prices failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func fetchPrices(c *cli.Context) error {
	level := c.String("log-level")
	slog.SetDefault(slog.New(logging.NewConsoleHandler(os.Stderr, logging.LevelFromString(&level))))

	area, err := types.ParsePriceArea(c.String("area"))
	if err != nil {
		return err
	}

	date := hours.Today()
	if s := c.String("date"); s != "" {
		if date, err = hours.ParseDate(s); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	var cnfg *config.AppConfig
	var db *database.Database
	provider := strings.ToLower(c.String("provider"))
	if provider == "database" || provider == "tibber" || c.Bool("store") {
		if cnfg, err = config.Load(c.String("config")); err != nil {
			return err
		}
	}
	if provider == "database" || c.Bool("store") {
		if db, err = database.New(ctx, cnfg.Database.Path); err != nil {
			return err
		}
		defer db.Close()
	}

	var fetcher types.PriceFetcher
	switch provider {
	case "elprisetjustnu":
		fetcher = elprisetjustnu.New()
	case "nordpool":
		fetcher = nordpool.New("")
	case "tibber":
		fetcher = tibber.New(cnfg.Tibber.ApiToken, cnfg.Tibber.HomeId)
	case "database":
		fetcher = database.NewStoredFetcher(db)
	default:
		return fmt.Errorf("unknown provider %q", provider)
	}

	days, err := fetcher.FetchPrices(ctx, date, area)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		slog.Warn("no prices found", slog.String("date", date.String()), slog.String("area", area.String()))
		return nil
	}

	for _, d := range days {
		fmt.Printf("%s %s average %s SEK/kWh\n", area, d.Date, prices.Round(d.DayAverage))
		for _, p := range d.Prices {
			fmt.Printf("  %02d:00 %s\n", p.Hour, prices.Round(p.Price))
		}
	}

	if c.Bool("store") && provider != "database" {
		if err := db.SaveDaySchedules(ctx, area, days); err != nil {
			return err
		}
		slog.Info("prices stored", slog.Int("days", len(days)))
	}
	return nil
}
