// Пакет clock — абстракция времени для тестируемости таймеров.
// Продакшн-код получает Real(), тесты — Fake() с детерминированным
// управлением временем. Весь код, которому нужны time.Now, time.After
// или time.Sleep, принимает Clock вместо прямых вызовов пакета time.
package clock

import "time"

// Clock — интерфейс источника времени и таймеров.
type Clock interface {
	// Now возвращает текущее время.
	Now() time.Time

	// After возвращает канал, в который придёт текущее время после
	// истечения d. Эквивалент time.After. При d <= 0 канал
	// срабатывает немедленно.
	After(d time.Duration) <-chan time.Time

	// Sleep приостанавливает текущую горутину минимум на d.
	Sleep(d time.Duration)
}

// realClock — реализация Clock поверх пакета time.
type realClock struct{}

// Real возвращает Clock поверх системного времени.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time {
	if d <= 0 {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return time.After(d)
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
