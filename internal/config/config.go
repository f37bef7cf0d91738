// Пакет config — загрузка и валидация конфигурации Auction Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Auction Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8010-8019)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Аукционы ---

	// ID роли, дающей право участвовать в аукционах; используется,
	// пока настройка auction_role_id сервера не задана
	// (пусто — участвовать могут все)
	AuctionRoleID string
	// Grace-период между завершением аукциона и удалением
	// его из реестра живых аукционов
	EvictGrace time.Duration
	// Таймаут best-effort записи в PostgreSQL из пути ставки
	StoreTimeout time.Duration

	// --- Read API (история аукционов) ---

	// Максимальное количество записей в LRU-кэше истории
	HistoryCacheSize int
	// TTL записей кэша истории
	HistoryCacheTTL time.Duration

	// --- JWT (опционально, для Read API) ---

	// URL JWKS endpoint (пусто — Read API без аутентификации)
	JWTJWKSURL string
	// Issuer JWT (пусто — issuer не проверяется)
	JWTIssuer string
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- topologymetrics ---

	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// AU_PORT — порт HTTP-сервера (по умолчанию 8010)
	cfg.Port, err = getEnvInt("AU_PORT", 8010)
	if err != nil {
		return nil, fmt.Errorf("AU_PORT: %w", err)
	}
	if cfg.Port < 8010 || cfg.Port > 8019 {
		return nil, fmt.Errorf("AU_PORT: значение %d вне допустимого диапазона 8010-8019", cfg.Port)
	}

	// AU_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("AU_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("AU_LOG_LEVEL: %w", err)
	}

	// AU_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("AU_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("AU_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// AU_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("AU_DB_HOST")
	if err != nil {
		return nil, err
	}

	// AU_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("AU_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("AU_DB_PORT: %w", err)
	}

	// AU_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("AU_DB_NAME")
	if err != nil {
		return nil, err
	}

	// AU_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("AU_DB_USER")
	if err != nil {
		return nil, err
	}

	// AU_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("AU_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// AU_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("AU_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("AU_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Аукционы ---

	// AU_AUCTION_ROLE_ID — роль для участия, пока не задана настройка
	// сервера (по умолчанию пусто — без ограничений)
	cfg.AuctionRoleID = getEnvDefault("AU_AUCTION_ROLE_ID", "")

	// AU_EVICT_GRACE — grace-период удаления из реестра (по умолчанию 5s)
	cfg.EvictGrace, err = getEnvDuration("AU_EVICT_GRACE", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AU_EVICT_GRACE: %w", err)
	}

	// AU_STORE_TIMEOUT — таймаут best-effort записи (по умолчанию 5s)
	cfg.StoreTimeout, err = getEnvDuration("AU_STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AU_STORE_TIMEOUT: %w", err)
	}

	// --- Read API ---

	// AU_HISTORY_CACHE_SIZE — размер LRU-кэша (по умолчанию 512)
	cfg.HistoryCacheSize, err = getEnvInt("AU_HISTORY_CACHE_SIZE", 512)
	if err != nil {
		return nil, fmt.Errorf("AU_HISTORY_CACHE_SIZE: %w", err)
	}
	if cfg.HistoryCacheSize < 1 {
		return nil, fmt.Errorf("AU_HISTORY_CACHE_SIZE: значение %d должно быть положительным", cfg.HistoryCacheSize)
	}

	// AU_HISTORY_CACHE_TTL — TTL кэша (по умолчанию 1m)
	cfg.HistoryCacheTTL, err = getEnvDuration("AU_HISTORY_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("AU_HISTORY_CACHE_TTL: %w", err)
	}

	// --- JWT ---

	// AU_JWT_JWKS_URL — опциональный (пусто — Read API без аутентификации)
	cfg.JWTJWKSURL = getEnvDefault("AU_JWT_JWKS_URL", "")

	// AU_JWT_ISSUER — опциональный
	cfg.JWTIssuer = getEnvDefault("AU_JWT_ISSUER", "")

	// AU_JWT_LEEWAY — допустимое отклонение времени (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("AU_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AU_JWT_LEEWAY: %w", err)
	}

	// --- topologymetrics ---

	// AU_DEPHEALTH_GROUP — имя группы (по умолчанию auctions)
	cfg.DephealthGroup = getEnvDefault("AU_DEPHEALTH_GROUP", "auctions")

	// AU_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("AU_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AU_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// AU_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("AU_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("AU_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (для topologymetrics — лейблы метрик, не для подключения).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
