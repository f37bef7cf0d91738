// Пакет server — HTTP-сервер модуля аукционов с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goauctions/internal/api/handlers"
	"github.com/bigkaa/goauctions/internal/config"
)

// Server — HTTP-сервер модуля аукционов.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// middlewares добавляются в порядке переданного среза.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	health *handlers.HealthHandler,
	auctions *handlers.AuctionsHandler,
	live *handlers.LiveHandler,
	settings *handlers.SettingsHandler,
	middlewares ...func(http.Handler) http.Handler,
) *Server {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health/live", health.HealthLive)
	router.Get("/health/ready", health.HealthReady)
	router.Get("/metrics", health.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		// Командный API живых аукционов (адаптер чат-платформы)
		r.Post("/auctions", live.Create)
		r.Get("/auctions/live/{key}", live.GetLive)
		r.Post("/auctions/live/{key}/bids", live.SubmitBid)
		r.Post("/auctions/live/{key}/quick-bid", live.QuickBid)
		r.Delete("/auctions/live/{key}", live.Cancel)

		// Read API истории и статистики
		r.Get("/auctions", auctions.ListHistory)
		r.Get("/auctions/{id}/stats", auctions.GetStats)
		r.Get("/auctions/{id}/bids", auctions.GetBids)
		r.Get("/users/{id}/stats", auctions.GetUserStats)

		// Настройки серверов
		r.Get("/guilds/{guildID}/settings/{name}", settings.GetSetting)
		r.Put("/guilds/{guildID}/settings/{name}", settings.SetSetting)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
