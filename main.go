package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/angas/elpris-go/config"
	"github.com/angas/elpris-go/coordinator"
	"github.com/angas/elpris-go/database"
	"github.com/angas/elpris-go/elprisetjustnu"
	"github.com/angas/elpris-go/hours"
	"github.com/angas/elpris-go/logging"
	"github.com/angas/elpris-go/mqtt"
	"github.com/angas/elpris-go/nordpool"
	"github.com/angas/elpris-go/task"
	"github.com/angas/elpris-go/tibber"
	"github.com/angas/elpris-go/types"
	"github.com/angas/elpris-go/www"
	"golang.org/x/sync/errgroup"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cnfg, err := loader.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := hours.SetTimezone(cnfg.Price.Timezone); err != nil {
		panic(fmt.Sprintf("failed to set timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := logging.NewConsoleHandler(os.Stdout, cnfg.Logging.GetConsoleLevel())
	slog.New(consoleHandler).Debug("elpris is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	providers := []types.PriceFetcher{
		elprisetjustnu.New(), // Primary provider
		nordpool.New(""),     // Secondary provider
	}
	if cnfg.Tibber.Enabled() {
		providers = append(providers, tibber.New(cnfg.Tibber.ApiToken, cnfg.Tibber.HomeId))
	}
	fetcher := task.NewPriceFetcher(db, database.NewStoredFetcher(db), providers...)

	area := cnfg.Price.GetArea()
	coord := coordinator.New(fetcher, area, cnfg.Price.FetchInterval, cnfg.Price.Fees())
	logger.Info("price coordinator created",
		slog.String("area", area.String()),
		slog.Int("pollTime", cnfg.Price.PollTime),
		slog.Duration("fetchInterval", cnfg.Price.FetchInterval))

	var tasks *task.Tasks
	server := www.NewServer(coord, db, func() { tasks.EnergyPriceTask() }, cnfg.Api)

	publishers := []task.Publisher{server.Hub()}
	if cnfg.Mqtt.Enabled() {
		mq := mqtt.New(cnfg.Mqtt, area)
		if err := mq.Connect(); err != nil {
			logger.Error("mqtt connection error, sensors will not be published", slog.Any("error", err))
		} else {
			defer mq.Disconnect()
			publishers = append(publishers, mq)
		}
	}

	tasks = task.NewTasks(coord, db, cnfg, publishers...)
	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		if err := tasks.Run(); err != nil {
			panic(fmt.Sprintf("failed to schedule tasks: %v", err))
		}
		defer tasks.Stop()
	}

	// Fees can be changed without a restart, area and intervals can not.
	loader.Watch(func(c *config.AppConfig) {
		coord.SetFees(c.Price.Fees())
		logger.Info("fees updated",
			slog.Float64("transferFee", c.Price.TransferFee),
			slog.Float64("energyTax", c.Price.EnergyTax))
		if c.Price.GetArea() != area || c.Price.PollTime != cnfg.Price.PollTime {
			logger.Warn("area and poll time changes require a restart")
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		select {
		case <-egCtx.Done():
			logger.Info("main context done")
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
		return nil
	})
	eg.Go(func() error {
		return server.Run(egCtx)
	})

	if err := eg.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
	}
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
