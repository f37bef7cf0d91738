// Точка входа модуля аукционов.
// Загружает конфигурацию, подключается к PostgreSQL, применяет миграции,
// создаёт реестр живых аукционов и сервисный слой, запускает мониторинг
// зависимостей (topologymetrics) и HTTP-сервер с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/goauctions/internal/access"
	"github.com/bigkaa/goauctions/internal/api/handlers"
	"github.com/bigkaa/goauctions/internal/api/middleware"
	"github.com/bigkaa/goauctions/internal/clock"
	"github.com/bigkaa/goauctions/internal/config"
	"github.com/bigkaa/goauctions/internal/database"
	"github.com/bigkaa/goauctions/internal/notify"
	"github.com/bigkaa/goauctions/internal/registry"
	"github.com/bigkaa/goauctions/internal/repository"
	"github.com/bigkaa/goauctions/internal/server"
	"github.com/bigkaa/goauctions/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Модуль аукционов запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	auctionRepo := repository.NewAuctionRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Реестр живых аукционов и адаптеры
	reg := registry.New()
	clk := clock.Real()
	notifier := notify.NewLogNotifier(logger)

	// 7. Services
	store := service.NewStore(auctionRepo, txRunner)
	settingsSvc := service.NewSettingsService(settingsRepo, cfg.AuctionRoleID, logger)
	// Роль допуска к ставкам берётся из настроек сервера,
	// AU_AUCTION_ROLE_ID — значение по умолчанию
	accessCtl := access.NewPolicy(settingsSvc)
	lifecycleSvc := service.NewLifecycleService(
		reg, store, notifier, accessCtl, clk,
		cfg.StoreTimeout, cfg.EvictGrace,
		logger,
	)
	biddingSvc := service.NewBiddingService(
		reg, store, notifier, accessCtl, clk,
		cfg.StoreTimeout,
		logger,
	)
	historySvc := service.NewHistoryService(
		auctionRepo,
		cfg.HistoryCacheSize, cfg.HistoryCacheTTL,
		logger,
	)

	// 8. Мониторинг зависимостей (topologymetrics)
	dephealthSvc, err := service.NewDephealthService(
		"auction-module",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.JWTJWKSURL,
		cfg.DephealthCheckInterval,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка инициализации dephealth", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := dephealthSvc.Start(ctx); err != nil {
		logger.Error("Ошибка запуска dephealth", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dephealthSvc.Stop()

	// 9. API handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool))
	auctionsHandler := handlers.NewAuctionsHandler(historySvc, logger)
	liveHandler := handlers.NewLiveHandler(lifecycleSvc, biddingSvc, reg, clk, logger)
	settingsHandler := handlers.NewSettingsHandler(settingsSvc, logger)

	// 10. Middleware: метрики, логирование, опциональный JWT
	middlewares := []func(http.Handler) http.Handler{
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	}
	if cfg.JWTJWKSURL != "" {
		jwtAuth, err := middleware.NewJWTAuth(cfg.JWTJWKSURL, cfg.JWTIssuer, cfg.JWTLeeway, logger)
		if err != nil {
			logger.Error("Ошибка инициализации JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		middlewares = append(middlewares,
			middleware.ExcludePaths(jwtAuth.Middleware(), "/health/", "/metrics"),
		)
		logger.Info("JWT-аутентификация read-API включена",
			slog.String("jwks_url", cfg.JWTJWKSURL),
		)
	} else {
		logger.Warn("AU_JWT_JWKS_URL не задана, read-API работает без аутентификации")
	}

	// 11. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, healthHandler, auctionsHandler, liveHandler, settingsHandler, middlewares...)
	if err := srv.Run(); err != nil {
		logger.Error("Сервер завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Модуль аукционов остановлен")
}
