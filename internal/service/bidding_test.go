package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/goauctions/internal/access"
	"github.com/bigkaa/goauctions/internal/clock"
	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/registry"
)

func TestSubmitBidUnknownAuction(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.bidding.SubmitBid(context.Background(), "нет-такого", model.Actor{ID: "user-a"}, "150k")
	if !errors.Is(err, ErrAuctionNotFound) {
		t.Errorf("SubmitBid(неизвестный ключ) = %v, ожидается ErrAuctionNotFound", err)
	}
}

func TestSubmitBidRejectsBots(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	_, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "bot-1", IsBot: true}, "150k")
	if !errors.Is(err, ErrIneligibleBidder) {
		t.Errorf("SubmitBid(бот) = %v, ожидается ErrIneligibleBidder", err)
	}
}

func TestSubmitBidRoleGating(t *testing.T) {
	env := newTestEnv(t, "role-auction")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	// Без роли — отказ
	_, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-a"}, "150k")
	if !errors.Is(err, ErrIneligibleBidder) {
		t.Errorf("SubmitBid без роли = %v, ожидается ErrIneligibleBidder", err)
	}

	// С ролью — принимается
	actor := model.Actor{ID: "user-b", Roles: []string{"role-auction"}}
	if _, err := env.bidding.SubmitBid(ctx, "msg-1", actor, "150k"); err != nil {
		t.Errorf("SubmitBid с ролью = %v, ожидается nil", err)
	}
}

// Роль допуска к ставкам берётся из настроек сервера аукциона,
// а не из статической конфигурации.
func TestSubmitBidRoleFromSettings(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	settings := newSettingsService(newMemSettingsRepo(), "")
	if err := settings.Set(ctx, "guild-1", SettingAuctionRole, "role-vip"); err != nil {
		t.Fatalf("Set() ошибка: %v", err)
	}
	acc := access.NewPolicy(settings)

	lifecycle := NewLifecycleService(reg, store, notifier, acc, clk, time.Second, 5*time.Second, logger)
	bidding := NewBiddingService(reg, store, notifier, acc, clk, time.Second, logger)

	if _, err := lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	if _, err := bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-a"}, "150k"); !errors.Is(err, ErrIneligibleBidder) {
		t.Errorf("SubmitBid без роли из настроек = %v, ожидается ErrIneligibleBidder", err)
	}

	actor := model.Actor{ID: "user-b", Roles: []string{"role-vip"}}
	if _, err := bidding.SubmitBid(ctx, "msg-1", actor, "150k"); err != nil {
		t.Errorf("SubmitBid с ролью из настроек = %v, ожидается nil", err)
	}
}

// Нечитаемая сумма разбирается в ноль и отклоняется правилом
// минимального шага с точным минимумом в ошибке.
func TestSubmitBidMalformedAmount(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	_, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-a"}, "сто тысяч")
	var tooLow *model.BidTooLowError
	if !errors.As(err, &tooLow) {
		t.Fatalf("SubmitBid(нечитаемая сумма) = %v, ожидается BidTooLowError", err)
	}
	if tooLow.Minimum != 110_000 {
		t.Errorf("Minimum = %d, ожидается 110000", tooLow.Minimum)
	}
}

func TestQuickBidSteps(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	bid, err := env.bidding.QuickBid(ctx, "msg-1", model.Actor{ID: "user-a"})
	if err != nil {
		t.Fatalf("QuickBid() ошибка: %v", err)
	}
	if bid.Amount != 110_000 {
		t.Errorf("Amount = %d, ожидается 110000", bid.Amount)
	}

	bid, err = env.bidding.QuickBid(ctx, "msg-1", model.Actor{ID: "user-b"})
	if err != nil {
		t.Fatalf("QuickBid() ошибка: %v", err)
	}
	if bid.Amount != 120_000 {
		t.Errorf("Amount = %d, ожидается 120000", bid.Amount)
	}
}

// Принятые ставки дописываются в хранилище асинхронно и в порядке
// принятия леджером, панель перерисовывается.
func TestBidPostEffects(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	if _, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-a"}, "110k"); err != nil {
		t.Fatalf("SubmitBid() ошибка: %v", err)
	}
	if _, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-b"}, "150k"); err != nil {
		t.Fatalf("SubmitBid() ошибка: %v", err)
	}

	waitFor(t, func() bool { return env.store.bidCount(1) == 2 }, "ставки не записаны в хранилище")
	waitFor(t, func() bool {
		live, _, _, _ := env.notifier.counts()
		return live == 3 // первичный рендеринг + две ставки
	}, "панель не перерисована после ставок")
}

// Сбой записи ставки не влияет на принятое состояние: следующая
// ставка проверяется против обновлённой цены в памяти.
func TestBidStoreFailureDoesNotRollBack(t *testing.T) {
	env := newTestEnv(t, "")
	env.store.failBid = true
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}

	if _, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-a"}, "110k"); err != nil {
		t.Fatalf("SubmitBid() ошибка: %v", err)
	}

	// 110k уже не проходит: цена в памяти обновлена несмотря на сбой записи
	_, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-b"}, "110k")
	var tooLow *model.BidTooLowError
	if !errors.As(err, &tooLow) {
		t.Fatalf("SubmitBid(110k повторно) = %v, ожидается BidTooLowError", err)
	}
	if tooLow.Minimum != 120_000 {
		t.Errorf("Minimum = %d, ожидается 120000", tooLow.Minimum)
	}
}
