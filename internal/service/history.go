// history.go — сервис истории и статистики завершённых аукционов.
// Читает из PostgreSQL, историю серверов кэширует в LRU с TTL.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/repository"
)

// Prometheus-метрики кэша истории.
var (
	historyCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "au_history_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш истории аукционов.",
	})
	historyCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "au_history_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша истории аукционов.",
	})
)

// HistoryService — чтение истории и статистики аукционов.
type HistoryService struct {
	repo   repository.AuctionRepository
	cache  *expirable.LRU[string, []model.AuctionSummary]
	logger *slog.Logger
}

// NewHistoryService создаёт сервис истории.
// cacheSize — максимальное количество записей в кэше истории,
// cacheTTL — время жизни записи после добавления.
func NewHistoryService(repo repository.AuctionRepository, cacheSize int, cacheTTL time.Duration, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		repo:   repo,
		cache:  expirable.NewLRU[string, []model.AuctionSummary](cacheSize, nil, cacheTTL),
		logger: logger.With(slog.String("component", "history_service")),
	}
}

// History возвращает завершённые аукционы сервера, новые первыми.
// Результат кэшируется по паре (guild, limit): история меняется
// только при завершении аукциона, короткий TTL этого достаточно.
func (s *HistoryService) History(ctx context.Context, guildID string, limit int) ([]model.AuctionSummary, error) {
	key := fmt.Sprintf("%s:%d", guildID, limit)
	if cached, ok := s.cache.Get(key); ok {
		historyCacheHitsTotal.Inc()
		return cached, nil
	}
	historyCacheMissesTotal.Inc()

	result, err := s.repo.History(ctx, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("получение истории: %w", err)
	}

	s.cache.Add(key, result)
	return result, nil
}

// Stats возвращает сводку аукциона со статистикой участия.
func (s *HistoryService) Stats(ctx context.Context, auctionID int64) (*model.AuctionStats, error) {
	stats, err := s.repo.Stats(ctx, auctionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, fmt.Errorf("получение статистики аукциона: %w", err)
	}
	return stats, nil
}

// Bids возвращает леджер ставок аукциона в порядке принятия.
func (s *HistoryService) Bids(ctx context.Context, auctionID int64) ([]model.Bid, error) {
	if _, err := s.repo.GetByID(ctx, auctionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuctionNotFound
		}
		return nil, fmt.Errorf("получение аукциона: %w", err)
	}

	bids, err := s.repo.Bids(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("получение ставок: %w", err)
	}
	return bids, nil
}

// UserStats возвращает статистику участника на сервере.
func (s *HistoryService) UserStats(ctx context.Context, guildID, userID string) (*model.UserStats, error) {
	stats, err := s.repo.UserStats(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("получение статистики участника: %w", err)
	}
	return stats, nil
}
