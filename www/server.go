package www

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/elpris-go/config"
	"github.com/angas/elpris-go/database"
	"github.com/angas/elpris-go/sensor"
	"github.com/angas/elpris-go/types"
)

// PriceSource is implemented by the coordinator.
type PriceSource interface {
	sensor.Provider
	Area() types.PriceArea
	LastFetch() time.Time
	Prices() []types.PricePoint
	ForceUpdate()
}

type LogSource interface {
	GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error)
	CountLogEntries(ctx context.Context, minLvl slog.Level) (int, error)
}

type Server struct {
	logger  *slog.Logger
	config  config.AppConfigApi
	hub     *Hub
	handler http.Handler
}

func NewServer(src PriceSource, db LogSource, refresh func(), config config.AppConfigApi) *Server {
	logger := slog.Default().With("module", "www")

	s := &Server{
		logger: logger,
		config: config,
		hub:    NewHub(logger.With(slog.String("handler", "ws"))),
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	mux := http.NewServeMux()

	mux.Handle("GET /api/readings", NewReadingsHandler(
		logger.With(slog.String("handler", "readings")), src))

	mux.Handle("GET /api/prices", NewPricesHandler(
		logger.With(slog.String("handler", "prices")), src))

	mux.Handle("POST /api/refresh", NewRefreshHandler(
		logger.With(slog.String("handler", "refresh")), src, refresh))

	if db != nil {
		mux.Handle("GET /api/log", NewLogHandler(
			logger.With(slog.String("handler", "log")), db))
	}

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	s.handler = logReqMW(mux)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub receives the readings published after every price check.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting server...", "port", s.config.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	}
}
