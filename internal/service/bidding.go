// bidding.go — сервис приёма ставок.
// Проверки допуска, разбор суммы, атомарное применение ставки
// и асинхронные пост-эффекты (запись в хранилище, рендеринг).
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bigkaa/goauctions/internal/amount"
	"github.com/bigkaa/goauctions/internal/clock"
	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/registry"
)

// BiddingService — сервис приёма ставок.
type BiddingService struct {
	registry     *registry.Registry
	store        Store
	notifier     Notifier
	access       AccessControl
	clk          clock.Clock
	storeTimeout time.Duration
	logger       *slog.Logger
}

// NewBiddingService создаёт сервис приёма ставок.
func NewBiddingService(
	reg *registry.Registry,
	store Store,
	notifier Notifier,
	access AccessControl,
	clk clock.Clock,
	storeTimeout time.Duration,
	logger *slog.Logger,
) *BiddingService {
	return &BiddingService{
		registry:     reg,
		store:        store,
		notifier:     notifier,
		access:       access,
		clk:          clk,
		storeTimeout: storeTimeout,
		logger:       logger.With(slog.String("component", "bidding_service")),
	}
}

// SubmitBid принимает ставку с произвольной суммой rawAmount
// (формат с суффиксами k/m, см. пакет amount).
//
// Нечитаемая сумма разбирается в ноль и отклоняется правилом
// минимального шага: участник в любом случае получает точный
// минимум следующей допустимой ставки.
func (s *BiddingService) SubmitBid(ctx context.Context, key string, actor model.Actor, rawAmount string) (model.Bid, error) {
	a, err := s.admit(ctx, key, actor)
	if err != nil {
		return model.Bid{}, err
	}

	bid, err := a.PlaceBid(actor.ID, amount.Parse(rawAmount), s.clk.Now())
	if err != nil {
		return model.Bid{}, s.rejected(key, actor, err)
	}

	s.accepted(ctx, a, bid)
	return bid, nil
}

// QuickBid принимает ставку ровно на минимальный шаг выше текущей
// цены. Сумма вычисляется атомарно с применением, поэтому быстрая
// ставка никогда не отклоняется правилом минимального шага.
func (s *BiddingService) QuickBid(ctx context.Context, key string, actor model.Actor) (model.Bid, error) {
	a, err := s.admit(ctx, key, actor)
	if err != nil {
		return model.Bid{}, err
	}

	bid, err := a.QuickBid(actor.ID, s.clk.Now())
	if err != nil {
		return model.Bid{}, s.rejected(key, actor, err)
	}

	s.accepted(ctx, a, bid)
	return bid, nil
}

// admit выполняет проверки до обращения к записи аукциона:
// существование, запрет ботов, допуск по роли.
func (s *BiddingService) admit(ctx context.Context, key string, actor model.Actor) (*model.Auction, error) {
	a, ok := s.registry.Get(key)
	if !ok {
		bidsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, ErrAuctionNotFound
	}

	if actor.IsBot {
		bidsRejectedTotal.WithLabelValues("bot").Inc()
		return nil, ErrIneligibleBidder
	}
	if !s.access.IsEligible(ctx, a.GuildID, actor) {
		bidsRejectedTotal.WithLabelValues("role").Inc()
		return nil, ErrIneligibleBidder
	}

	return a, nil
}

// rejected классифицирует отказ доменного уровня для метрик.
// BidTooLowError возвращается как есть: она несёт точный минимум
// следующей допустимой ставки.
func (s *BiddingService) rejected(key string, actor model.Actor, err error) error {
	var tooLow *model.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		bidsRejectedTotal.WithLabelValues("too_low").Inc()
		s.logger.Debug("Ставка ниже минимума",
			slog.String("key", key),
			slog.String("bidder", actor.ID),
			slog.Int64("minimum", tooLow.Minimum),
		)
		return err
	case errors.Is(err, model.ErrNotOpen):
		bidsRejectedTotal.WithLabelValues("terminal").Inc()
		return ErrAlreadyTerminal
	default:
		return err
	}
}

// accepted выполняет пост-эффекты принятой ставки: запись в хранилище
// и обновление панели. Оба эффекта асинхронны и best-effort — ставка
// уже применена, откатывать нечего.
func (s *BiddingService) accepted(ctx context.Context, a *model.Auction, bid model.Bid) {
	bidsAcceptedTotal.Inc()

	s.logger.Info("Ставка принята",
		slog.String("key", a.Key),
		slog.String("bidder", bid.Bidder),
		slog.Int64("amount", bid.Amount),
	)

	snap := a.Snapshot(s.clk.Now())
	durableID, durable := a.DurableID()

	go func() {
		if durable {
			storeCtx, cancel := context.WithTimeout(context.Background(), s.storeTimeout)
			defer cancel()

			if err := s.store.PersistBid(storeCtx, durableID, bid); err != nil {
				persistenceFailuresTotal.WithLabelValues("bid").Inc()
				s.logger.Warn("Не удалось записать ставку в хранилище",
					slog.String("key", a.Key),
					slog.String("error", err.Error()),
				)
			}
		}
		s.notifier.RenderLive(context.WithoutCancel(ctx), snap)
	}()
}
