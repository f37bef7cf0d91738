package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bigkaa/goauctions/internal/domain/model"
)

// fakeStore — Store в памяти с управляемыми сбоями.
// createStarted/createGate (оба заданы) превращают PersistCreate
// в блокирующий вызов: тест дожидается createStarted и отпускает
// запись закрытием createGate.
type fakeStore struct {
	mu           sync.Mutex
	nextID       int64
	failCreate   bool
	failBid      bool
	failFinalize bool

	createStarted chan struct{}
	createGate    chan struct{}

	created   []model.Snapshot
	bids      map[int64][]model.Bid
	finalized map[int64]model.AuditSummary
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		bids:      make(map[int64][]model.Bid),
		finalized: make(map[int64]model.AuditSummary),
	}
}

func (f *fakeStore) PersistCreate(_ context.Context, s model.Snapshot) (int64, error) {
	if f.createGate != nil {
		f.createStarted <- struct{}{}
		<-f.createGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return 0, errors.New("хранилище недоступно")
	}
	id := f.nextID
	f.nextID++
	f.created = append(f.created, s)
	return id, nil
}

func (f *fakeStore) PersistBid(_ context.Context, auctionID int64, bid model.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBid {
		return errors.New("хранилище недоступно")
	}
	f.bids[auctionID] = append(f.bids[auctionID], bid)
	return nil
}

func (f *fakeStore) PersistFinalize(_ context.Context, auctionID int64, sum model.AuditSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFinalize {
		return errors.New("хранилище недоступно")
	}
	f.finalized[auctionID] = sum
	return nil
}

func (f *fakeStore) bidCount(auctionID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bids[auctionID])
}

func (f *fakeStore) finalizedSummary(auctionID int64) (model.AuditSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum, ok := f.finalized[auctionID]
	return sum, ok
}

// fakeNotifier — Notifier, считающий вызовы.
type fakeNotifier struct {
	mu        sync.Mutex
	live      int
	closed    int
	cancelled int
	audits    []model.AuditSummary
}

func (f *fakeNotifier) RenderLive(_ context.Context, _ model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live++
}

func (f *fakeNotifier) RenderClosed(_ context.Context, _ model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeNotifier) RenderCancelled(_ context.Context, _ model.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func (f *fakeNotifier) PublishAuditLog(_ context.Context, sum model.AuditSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, sum)
}

func (f *fakeNotifier) counts() (live, closed, cancelled, audits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live, f.closed, f.cancelled, len(f.audits)
}

func (f *fakeNotifier) lastAudit() (model.AuditSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.audits) == 0 {
		return model.AuditSummary{}, false
	}
	return f.audits[len(f.audits)-1], true
}

// fakeAccess — AccessControl со статическими ответами.
type fakeAccess struct {
	requiredRole string
}

func (f *fakeAccess) IsEligible(_ context.Context, _ string, actor model.Actor) bool {
	if actor.IsBot {
		return false
	}
	if f.requiredRole == "" {
		return true
	}
	return actor.HasRole(f.requiredRole)
}

func (f *fakeAccess) HasManagePermission(_ context.Context, actor model.Actor) bool {
	return actor.CanManage
}

// waitFor опрашивает cond до истечения таймаута.
// Нужен для асинхронных пост-эффектов (запись, рендеринг, eviction).
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}
