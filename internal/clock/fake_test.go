package clock

import (
	"testing"
	"time"
)

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	ch := f.After(10 * time.Second)

	select {
	case <-ch:
		t.Fatal("таймер сработал до продвижения времени")
	default:
	}

	f.Advance(5 * time.Second)
	select {
	case <-ch:
		t.Fatal("таймер сработал раньше срока")
	default:
	}

	f.Advance(5 * time.Second)
	select {
	case tm := <-ch:
		if !tm.Equal(start.Add(10 * time.Second)) {
			t.Errorf("время срабатывания = %v, ожидается %v", tm, start.Add(10*time.Second))
		}
	case <-time.After(time.Second):
		t.Fatal("таймер не сработал после продвижения времени")
	}
}

func TestFakeAfterImmediate(t *testing.T) {
	f := NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	select {
	case <-f.After(0):
	case <-time.After(time.Second):
		t.Fatal("After(0) должен срабатывать немедленно")
	}
}

func TestFakeSleepWakesUp(t *testing.T) {
	f := NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	done := make(chan struct{})
	go func() {
		f.Sleep(3 * time.Second)
		close(done)
	}()

	f.BlockUntil(1)
	f.Advance(3 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Sleep не завершился после Advance")
	}
}
