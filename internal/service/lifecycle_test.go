package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/goauctions/internal/clock"
	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/registry"
)

// testEnv — собранный сервисный слой на фейках.
type testEnv struct {
	reg       *registry.Registry
	store     *fakeStore
	notifier  *fakeNotifier
	clk       *clock.FakeClock
	lifecycle *LifecycleService
	bidding   *BiddingService
}

func newTestEnv(t *testing.T, requiredRole string) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.New()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	acc := &fakeAccess{requiredRole: requiredRole}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	return &testEnv{
		reg:       reg,
		store:     store,
		notifier:  notifier,
		clk:       clk,
		lifecycle: NewLifecycleService(reg, store, notifier, acc, clk, time.Second, 5*time.Second, logger),
		bidding:   NewBiddingService(reg, store, notifier, acc, clk, time.Second, logger),
	}
}

var moderator = model.Actor{ID: "mod-1", CanManage: true}

func createParams(key string) model.CreateParams {
	return model.CreateParams{
		Key:          key,
		GuildID:      "guild-1",
		ChannelID:    "chan-1",
		CreatedBy:    moderator.ID,
		StartPrice:   100_000,
		MinIncrement: 10_000,
		Duration:     time.Minute,
	}
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	p := createParams("msg-1")
	p.StartPrice = 0
	if _, err := env.lifecycle.Create(ctx, p, moderator); !errors.Is(err, ErrInvalidParameters) {
		t.Errorf("Create(нулевая цена) = %v, ожидается ErrInvalidParameters", err)
	}

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), model.Actor{ID: "user-a"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Create без прав управления = %v, ожидается ErrForbidden", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("повторный Create = %v, ожидается ErrDuplicateKey", err)
	}
}

func TestCreatePersistsAndRenders(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	a, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator)
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	if id, ok := a.DurableID(); !ok || id != 1 {
		t.Errorf("DurableID = (%d, %v), ожидается (1, true)", id, ok)
	}
	if live, _, _, _ := env.notifier.counts(); live != 1 {
		t.Errorf("первичный рендеринг: live = %d, ожидается 1", live)
	}
	if _, ok := env.reg.Get("msg-1"); !ok {
		t.Error("аукцион не зарегистрирован в реестре")
	}
}

// Сбой хранилища при создании не отменяет аукцион: он живёт
// в памяти без DurableID, ставки и завершение работают.
func TestCreateStoreFailureDegradesGracefully(t *testing.T) {
	env := newTestEnv(t, "")
	env.store.failCreate = true
	ctx := context.Background()

	a, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator)
	if err != nil {
		t.Fatalf("Create() при сбое хранилища = %v, ожидается nil", err)
	}
	if id, ok := a.DurableID(); ok {
		t.Errorf("DurableID = %d, ожидается отсутствие", id)
	}

	// Ставки принимаются, запись в хранилище пропускается
	env.clk.BlockUntil(1)
	if _, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-b"}, "150k"); err != nil {
		t.Fatalf("SubmitBid() ошибка: %v", err)
	}

	// Завершение по таймеру публикует audit-сводку без фиксации в БД
	env.clk.Advance(time.Minute)
	waitFor(t, func() bool {
		_, _, _, audits := env.notifier.counts()
		return audits == 1
	}, "audit-сводка не опубликована")

	env.store.mu.Lock()
	finalized := len(env.store.finalized)
	env.store.mu.Unlock()
	if finalized != 0 {
		t.Error("фиксация в хранилище не должна выполняться без DurableID")
	}
}

// Аукцион публикуется в реестре до завершения записи в хранилище,
// поэтому ставка может прийти, пока запись ещё в полёте. Идентификатор
// хранилища читается и пишется под мьютексом записи: ставка принимается,
// а идентификатор появляется после завершения записи (под -race).
func TestBidDuringSlowCreate(t *testing.T) {
	env := newTestEnv(t, "")
	env.store.createStarted = make(chan struct{})
	env.store.createGate = make(chan struct{})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
			t.Errorf("Create() ошибка: %v", err)
		}
	}()

	// Запись в хранилище в полёте, ключ уже зарезервирован в реестре
	<-env.store.createStarted

	bid, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-b"}, "150k")
	if err != nil {
		t.Fatalf("SubmitBid() во время записи = %v, ожидается nil", err)
	}
	if bid.Amount != 150_000 {
		t.Errorf("Amount = %d, ожидается 150000", bid.Amount)
	}

	close(env.store.createGate)
	<-done

	a, ok := env.reg.Get("msg-1")
	if !ok {
		t.Fatal("аукцион не зарегистрирован в реестре")
	}
	if id, idOK := a.DurableID(); !idOK || id != 1 {
		t.Errorf("DurableID = (%d, %v), ожидается (1, true)", id, idOK)
	}
	if got := a.MinNextBid(); got != 160_000 {
		t.Errorf("MinNextBid = %d, ожидается 160000", got)
	}
}

// Сценарий целиком: создание, отклонённая ставка, принятая ставка,
// завершение по таймеру, отложенное удаление из реестра.
func TestAuctionEndToEnd(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	a, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator)
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	env.clk.BlockUntil(1) // таймер завершения зарегистрирован

	// 105k < 100k + 10k — отказ с точным минимумом
	_, err = env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-a"}, "105k")
	var tooLow *model.BidTooLowError
	if !errors.As(err, &tooLow) {
		t.Fatalf("SubmitBid(105k) = %v, ожидается BidTooLowError", err)
	}
	if tooLow.Minimum != 110_000 {
		t.Errorf("Minimum = %d, ожидается 110000", tooLow.Minimum)
	}

	// 150k — принимается
	bid, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-b"}, "150k")
	if err != nil {
		t.Fatalf("SubmitBid(150k) ошибка: %v", err)
	}
	if bid.Amount != 150_000 {
		t.Errorf("Amount = %d, ожидается 150000", bid.Amount)
	}
	waitFor(t, func() bool { return env.store.bidCount(1) == 1 }, "ставка не записана в хранилище")

	// Таймер закрывает аукцион
	env.clk.Advance(time.Minute)
	waitFor(t, func() bool {
		_, closed, _, audits := env.notifier.counts()
		return closed == 1 && audits == 1
	}, "аукцион не завершён по таймеру")

	sum, ok := env.store.finalizedSummary(1)
	if !ok {
		t.Fatal("завершение не зафиксировано в хранилище")
	}
	if sum.Winner != "user-b" || sum.FinalPrice != 150_000 {
		t.Errorf("итог = (%q, %d), ожидается (user-b, 150000)", sum.Winner, sum.FinalPrice)
	}
	if got := a.Status(); got != model.StatusClosed {
		t.Errorf("Status = %q, ожидается closed", got)
	}

	// Панель остаётся доступной в течение grace-периода
	if _, ok := env.reg.Get("msg-1"); !ok {
		t.Error("аукцион удалён из реестра до истечения grace-периода")
	}
	env.clk.BlockUntil(1) // горутина eviction зарегистрировала Sleep
	env.clk.Advance(5 * time.Second)
	waitFor(t, func() bool {
		_, ok := env.reg.Get("msg-1")
		return !ok
	}, "аукцион не удалён из реестра после grace-периода")
}

func TestCancel(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	env.clk.BlockUntil(1)

	// Без прав управления — отказ
	if err := env.lifecycle.Cancel(ctx, "msg-1", model.Actor{ID: "user-a"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("Cancel без прав = %v, ожидается ErrForbidden", err)
	}

	if err := env.lifecycle.Cancel(ctx, "msg-1", moderator); err != nil {
		t.Fatalf("Cancel() ошибка: %v", err)
	}
	_, _, cancelled, audits := env.notifier.counts()
	if cancelled != 1 || audits != 1 {
		t.Errorf("рендеринг отмены = (%d, %d), ожидается (1, 1)", cancelled, audits)
	}
	sum, _ := env.notifier.lastAudit()
	if !sum.Cancelled {
		t.Error("audit-сводка не помечена как отменённая")
	}

	// Повторная отмена — аукцион уже терминален
	if err := env.lifecycle.Cancel(ctx, "msg-1", moderator); !errors.Is(err, ErrAlreadyTerminal) {
		t.Errorf("повторный Cancel = %v, ожидается ErrAlreadyTerminal", err)
	}

	// Ставка после отмены отклоняется
	if _, err := env.bidding.SubmitBid(ctx, "msg-1", model.Actor{ID: "user-b"}, "150k"); !errors.Is(err, ErrAlreadyTerminal) {
		t.Errorf("SubmitBid после отмены = %v, ожидается ErrAlreadyTerminal", err)
	}

	// Сработавший позже таймер не выполняет эффектов повторно
	env.clk.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	if _, _, _, audits := env.notifier.counts(); audits != 1 {
		t.Errorf("таймер после отмены опубликовал лишнюю audit-сводку: %d", audits)
	}
}

func TestCancelUnknownAuction(t *testing.T) {
	env := newTestEnv(t, "")

	if err := env.lifecycle.Cancel(context.Background(), "нет-такого", moderator); !errors.Is(err, ErrAuctionNotFound) {
		t.Errorf("Cancel(неизвестный ключ) = %v, ожидается ErrAuctionNotFound", err)
	}
}

// Гонка таймера и отмены: побочные эффекты завершения выполняет
// ровно один из конкурирующих вызовов.
func TestConcurrentFinalizeExactlyOnce(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	if _, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator); err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	env.clk.BlockUntil(1)

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	var successes int

	for i := 0; i < attempts; i++ {
		to := model.StatusClosed
		if i%2 == 1 {
			to = model.StatusCancelled
		}
		wg.Add(1)
		go func(to model.Status) {
			defer wg.Done()
			if err := env.lifecycle.Finalize(ctx, "msg-1", to); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("успешных завершений %d, ожидается ровно 1", successes)
	}
	_, closed, cancelled, audits := env.notifier.counts()
	if closed+cancelled != 1 || audits != 1 {
		t.Errorf("эффекты = (closed=%d, cancelled=%d, audits=%d), ожидается ровно один набор",
			closed, cancelled, audits)
	}
}

// Сбой фиксации завершения логируется и не откатывает терминальный
// переход: audit-сводка публикуется, аукцион остаётся завершённым.
func TestFinalizeStoreFailureDoesNotRollBack(t *testing.T) {
	env := newTestEnv(t, "")
	env.store.failFinalize = true
	ctx := context.Background()

	a, err := env.lifecycle.Create(ctx, createParams("msg-1"), moderator)
	if err != nil {
		t.Fatalf("Create() ошибка: %v", err)
	}
	env.clk.BlockUntil(1)

	if err := env.lifecycle.Finalize(ctx, "msg-1", model.StatusClosed); err != nil {
		t.Fatalf("Finalize() при сбое хранилища = %v, ожидается nil", err)
	}
	if got := a.Status(); got != model.StatusClosed {
		t.Errorf("Status = %q, ожидается closed", got)
	}
	if _, _, _, audits := env.notifier.counts(); audits != 1 {
		t.Errorf("audits = %d, ожидается 1", audits)
	}
}
