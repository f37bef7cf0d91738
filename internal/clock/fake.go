package clock

import (
	"sync"
	"time"
)

// FakeClock — детерминированный Clock для тестов.
// Время сдвигается только явным вызовом Advance.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*fakeWaiter
}

// fakeWaiter — ожидающий таймер фейковых часов.
type fakeWaiter struct {
	target time.Time
	ch     chan time.Time
}

// NewFake создаёт FakeClock с указанным стартовым временем.
func NewFake(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now возвращает текущее фейковое время.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After возвращает канал, срабатывающий при достижении now+d.
// При d <= 0 канал срабатывает немедленно.
func (f *FakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, &fakeWaiter{target: f.now.Add(d), ch: ch})
	return ch
}

// Sleep блокирует горутину до продвижения времени на d вызовами Advance.
func (f *FakeClock) Sleep(d time.Duration) {
	<-f.After(d)
}

// Advance сдвигает время вперёд на d и будит все таймеры,
// чей срок наступил.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = f.now.Add(d)

	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !w.target.After(f.now) {
			w.ch <- f.now
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining
}

// WaiterCount возвращает количество ожидающих таймеров.
// Тесты используют его, чтобы дождаться регистрации таймера
// фоновой горутиной перед вызовом Advance.
func (f *FakeClock) WaiterCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// BlockUntil ждёт, пока количество ожидающих таймеров не достигнет n.
func (f *FakeClock) BlockUntil(n int) {
	for f.WaiterCount() < n {
		time.Sleep(time.Millisecond)
	}
}
