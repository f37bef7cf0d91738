// lifecycle.go — сервис жизненного цикла аукционов.
// Создание, завершение по таймеру, отмена модератором и отложенное
// удаление из реестра.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/goauctions/internal/clock"
	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/registry"
)

// LifecycleService — сервис жизненного цикла аукционов.
type LifecycleService struct {
	registry     *registry.Registry
	store        Store
	notifier     Notifier
	access       AccessControl
	clk          clock.Clock
	storeTimeout time.Duration
	evictGrace   time.Duration
	logger       *slog.Logger
}

// NewLifecycleService создаёт сервис жизненного цикла.
// storeTimeout ограничивает каждую операцию записи в хранилище,
// evictGrace — задержка между завершением аукциона и удалением
// из реестра (окно для поздних обращений к панели).
func NewLifecycleService(
	reg *registry.Registry,
	store Store,
	notifier Notifier,
	access AccessControl,
	clk clock.Clock,
	storeTimeout time.Duration,
	evictGrace time.Duration,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		registry:     reg,
		store:        store,
		notifier:     notifier,
		access:       access,
		clk:          clk,
		storeTimeout: storeTimeout,
		evictGrace:   evictGrace,
		logger:       logger.With(slog.String("component", "lifecycle_service")),
	}
}

// Create создаёт аукцион: валидация, резервирование ключа в реестре,
// запись в хранилище, запуск таймера завершения и первичный рендеринг.
//
// Сбой хранилища не отменяет создание: аукцион продолжает жить
// в памяти без DurableID, ошибка логируется (graceful degradation).
func (s *LifecycleService) Create(ctx context.Context, p model.CreateParams, actor model.Actor) (*model.Auction, error) {
	if !s.access.HasManagePermission(ctx, actor) {
		return nil, ErrForbidden
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidParameters, err)
	}
	if p.Key == "" {
		p.Key = uuid.New().String()
	}

	a := model.New(p, s.clk.Now())

	// Резервируем ключ до записи в хранилище, чтобы проигравший
	// гонку дубликат не оставил осиротевшую строку.
	if err := s.registry.Create(a); err != nil {
		return nil, ErrDuplicateKey
	}

	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	id, err := s.store.PersistCreate(storeCtx, a.Snapshot(s.clk.Now()))
	if err != nil {
		persistenceFailuresTotal.WithLabelValues("create").Inc()
		s.logger.Warn("Не удалось записать аукцион в хранилище, работаем в памяти",
			slog.String("key", a.Key),
			slog.String("error", err.Error()),
		)
	} else {
		a.SetDurableID(id)
	}

	auctionsCreatedTotal.Inc()
	auctionsActive.Inc()

	s.scheduleExpiry(a)
	s.notifier.RenderLive(ctx, a.Snapshot(s.clk.Now()))

	s.logger.Info("Аукцион создан",
		slog.String("key", a.Key),
		slog.String("guild_id", a.GuildID),
		slog.Int64("start_price", a.StartPrice),
		slog.Time("deadline", a.Deadline),
	)

	return a, nil
}

// scheduleExpiry запускает таймер завершения аукциона.
// Токен отмены не нужен: сработавший таймер перепроверяет состояние,
// и для уже завершённого аукциона TryFinalize вернёт false.
func (s *LifecycleService) scheduleExpiry(a *model.Auction) {
	go func() {
		<-s.clk.After(a.Deadline.Sub(s.clk.Now()))

		err := s.Finalize(context.Background(), a.Key, model.StatusClosed)
		if err != nil && err != ErrAlreadyTerminal && err != ErrAuctionNotFound {
			s.logger.Error("Ошибка завершения аукциона по таймеру",
				slog.String("key", a.Key),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Finalize переводит аукцион в терминальное состояние to и выполняет
// побочные эффекты завершения: итоговый рендеринг, фиксацию
// в хранилище, публикацию audit-сводки и отложенное удаление
// из реестра.
//
// Атомарный переход TryFinalize гарантирует, что при гонке таймера
// и явной отмены побочные эффекты выполнит ровно один вызов;
// остальные получают ErrAlreadyTerminal.
func (s *LifecycleService) Finalize(ctx context.Context, key string, to model.Status) error {
	a, ok := s.registry.Get(key)
	if !ok {
		return ErrAuctionNotFound
	}

	if !a.TryFinalize(to) {
		return ErrAlreadyTerminal
	}

	now := s.clk.Now()
	snap := a.Snapshot(now)
	sum := snap.AuditSummary(now)

	switch to {
	case model.StatusCancelled:
		auctionsFinalizedTotal.WithLabelValues("cancelled").Inc()
		s.notifier.RenderCancelled(ctx, snap)
	default:
		auctionsFinalizedTotal.WithLabelValues("expired").Inc()
		s.notifier.RenderClosed(ctx, snap)
	}
	auctionsActive.Dec()
	auctionDurationSeconds.Observe(sum.Duration.Seconds())

	// Фиксация в хранилище best-effort: сбой логируется и не
	// откатывает уже совершённый терминальный переход.
	if id, ok := a.DurableID(); ok {
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer cancel()

		if err := s.store.PersistFinalize(storeCtx, id, sum); err != nil {
			persistenceFailuresTotal.WithLabelValues("finalize").Inc()
			s.logger.Warn("Не удалось зафиксировать завершение аукциона в хранилище",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	s.notifier.PublishAuditLog(ctx, sum)

	s.logger.Info("Аукцион завершён",
		slog.String("key", key),
		slog.String("status", string(to)),
		slog.String("winner", sum.Winner),
		slog.Int64("final_price", sum.FinalPrice),
		slog.Int("bids", sum.BidCount),
	)

	// Отложенное удаление: панель остаётся доступной в течение
	// grace-периода для поздних обращений.
	go func() {
		s.clk.Sleep(s.evictGrace)
		s.registry.Remove(key)
	}()

	return nil
}

// Cancel отменяет аукцион по требованию участника с правами управления.
func (s *LifecycleService) Cancel(ctx context.Context, key string, actor model.Actor) error {
	if !s.access.HasManagePermission(ctx, actor) {
		return ErrForbidden
	}
	return s.Finalize(ctx, key, model.StatusCancelled)
}
