// Пакет model — доменные сущности аукционов.
// Auction — живой аукцион с леджером ставок; все мутации проходят
// через методы под внутренним мьютексом записи (сериализация per-key).
package model

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bigkaa/goauctions/internal/amount"
)

// Status — состояние аукциона.
type Status string

const (
	// StatusOpen — аукцион принимает ставки.
	StatusOpen Status = "open"
	// StatusClosed — аукцион завершён по истечении срока (терминальное).
	StatusClosed Status = "closed"
	// StatusCancelled — аукцион отменён модератором (терминальное).
	StatusCancelled Status = "cancelled"
)

// Terminal сообщает, является ли состояние терминальным.
func (s Status) Terminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// Ошибки доменного уровня.
var (
	// ErrNotOpen — аукцион не принимает ставки (уже завершён или отменён).
	ErrNotOpen = errors.New("аукцион не принимает ставки")
	// ErrInvalidParameters — некорректные параметры создания аукциона.
	ErrInvalidParameters = errors.New("некорректные параметры аукциона")
)

// BidTooLowError — ставка ниже минимально допустимой.
// Minimum — точная минимальная сумма, которую примет аукцион.
type BidTooLowError struct {
	Minimum int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("ставка ниже минимальной: следующая допустимая — %s", amount.Format(e.Minimum))
}

// Actor — участник чат-платформы, инициировавший операцию.
// Заполняется адаптером платформы.
type Actor struct {
	// ID — идентификатор участника
	ID string
	// IsBot — автоматизированный аккаунт (не допускается к ставкам)
	IsBot bool
	// Roles — роли участника на сервере
	Roles []string
	// CanManage — есть ли у участника права управления
	CanManage bool
}

// HasRole проверяет наличие роли у участника.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Bid — одна принятая ставка.
type Bid struct {
	// Bidder — идентификатор участника
	Bidder string
	// Amount — сумма ставки
	Amount int64
	// PlacedAt — время принятия ставки
	PlacedAt time.Time
}

// CreateParams — параметры создания аукциона.
type CreateParams struct {
	// Key — ключ аукциона (идентификатор сообщения-панели;
	// пусто — будет сгенерирован)
	Key string
	// GuildID — сервер чат-платформы
	GuildID string
	// ChannelID — канал, в котором идёт аукцион
	ChannelID string
	// CreatedBy — создатель аукциона
	CreatedBy string
	// StartPrice — стартовая цена (> 0)
	StartPrice int64
	// MinIncrement — минимальный шаг ставки (> 0)
	MinIncrement int64
	// Duration — длительность аукциона (> 0)
	Duration time.Duration
}

// Validate проверяет параметры создания.
func (p CreateParams) Validate() error {
	if p.StartPrice <= 0 {
		return fmt.Errorf("%w: стартовая цена должна быть положительной", ErrInvalidParameters)
	}
	if p.MinIncrement <= 0 {
		return fmt.Errorf("%w: минимальный шаг должен быть положительным", ErrInvalidParameters)
	}
	if p.Duration <= 0 {
		return fmt.Errorf("%w: длительность должна быть положительной", ErrInvalidParameters)
	}
	return nil
}

// Auction — живой аукцион в памяти.
// Неизменяемые поля заполняются при создании; изменяемое состояние
// (цена, лидер, леджер, статус) защищено мьютексом и мутируется
// только методами PlaceBid, QuickBid и TryFinalize.
type Auction struct {
	// Key — ключ аукциона, уникальный среди живых аукционов
	Key string
	// GuildID — сервер чат-платформы
	GuildID string
	// ChannelID — канал аукциона
	ChannelID string
	// CreatedBy — создатель
	CreatedBy string
	// StartPrice — стартовая цена
	StartPrice int64
	// MinIncrement — минимальный шаг ставки
	MinIncrement int64
	// StartedAt — время создания
	StartedAt time.Time
	// Deadline — момент завершения; фиксируется при создании и не меняется
	Deadline time.Time

	mu            sync.Mutex
	currentPrice  int64
	highestBidder string
	bids          []Bid
	status        Status
	durableID     int64
	durable       bool
}

// New создаёт открытый аукцион по параметрам.
// Deadline вычисляется как now + Duration.
func New(p CreateParams, now time.Time) *Auction {
	return &Auction{
		Key:          p.Key,
		GuildID:      p.GuildID,
		ChannelID:    p.ChannelID,
		CreatedBy:    p.CreatedBy,
		StartPrice:   p.StartPrice,
		MinIncrement: p.MinIncrement,
		StartedAt:    now,
		Deadline:     now.Add(p.Duration),
		currentPrice: p.StartPrice,
		status:       StatusOpen,
	}
}

// PlaceBid применяет ставку amt участника bidder.
// Проверка минимума и применение выполняются атомарно под мьютексом
// записи: две ставки на один аукцион не могут перемежаться между
// проверкой и применением.
// Возвращает ErrNotOpen, если аукцион не в StatusOpen,
// или *BidTooLowError при amt < currentPrice + MinIncrement.
func (a *Auction) PlaceBid(bidder string, amt int64, now time.Time) (Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusOpen {
		return Bid{}, ErrNotOpen
	}

	min := a.currentPrice + a.MinIncrement
	if amt < min {
		return Bid{}, &BidTooLowError{Minimum: min}
	}

	return a.apply(bidder, amt, now), nil
}

// QuickBid применяет ставку ровно на минимальный шаг выше текущей цены.
// Сумма вычисляется под тем же мьютексом, что и применение, поэтому
// быстрая ставка не может оказаться ниже минимума.
func (a *Auction) QuickBid(bidder string, now time.Time) (Bid, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusOpen {
		return Bid{}, ErrNotOpen
	}

	return a.apply(bidder, a.currentPrice+a.MinIncrement, now), nil
}

// apply фиксирует принятую ставку. Вызывается только под мьютексом.
func (a *Auction) apply(bidder string, amt int64, now time.Time) Bid {
	bid := Bid{Bidder: bidder, Amount: amt, PlacedAt: now}
	a.currentPrice = amt
	a.highestBidder = bidder
	a.bids = append(a.bids, bid)
	return bid
}

// TryFinalize атомарно переводит аукцион из StatusOpen в терминальное
// состояние to. Возвращает true только вызывающему, успевшему первым:
// проигравший гонку (таймер против явной отмены) получает false и
// обязан не выполнять побочных эффектов завершения.
func (a *Auction) TryFinalize(to Status) bool {
	if !to.Terminal() {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.status != StatusOpen {
		return false
	}
	a.status = to
	return true
}

// SetDurableID фиксирует идентификатор записи аукциона в хранилище.
// Запись в хранилище происходит уже после публикации аукциона
// в реестре, поэтому поле живёт под тем же мьютексом, что и леджер:
// ставка, пришедшая во время записи, читает его конкурентно.
func (a *Auction) SetDurableID(id int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.durableID = id
	a.durable = true
}

// DurableID возвращает идентификатор записи в хранилище.
// ok == false — создание записи не удалось (или ещё не завершилось),
// аукцион живёт только в памяти.
func (a *Auction) DurableID() (id int64, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.durableID, a.durable
}

// Status возвращает текущее состояние аукциона.
func (a *Auction) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// MinNextBid возвращает минимальную сумму, которую примет аукцион.
func (a *Auction) MinNextBid() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentPrice + a.MinIncrement
}

// Snapshot возвращает согласованную копию состояния аукциона
// для рендеринга и аудита. Леджер копируется.
func (a *Auction) Snapshot(now time.Time) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	bids := make([]Bid, len(a.bids))
	copy(bids, a.bids)

	return Snapshot{
		Key:              a.Key,
		GuildID:          a.GuildID,
		ChannelID:        a.ChannelID,
		CreatedBy:        a.CreatedBy,
		StartPrice:       a.StartPrice,
		CurrentPrice:     a.currentPrice,
		MinIncrement:     a.MinIncrement,
		HighestBidder:    a.highestBidder,
		StartedAt:        a.StartedAt,
		Deadline:         a.Deadline,
		Bids:             bids,
		Status:           a.status,
		SecondsRemaining: SecondsRemaining(a.Deadline, now),
	}
}

// Snapshot — неизменяемый срез состояния аукциона.
type Snapshot struct {
	Key              string
	GuildID          string
	ChannelID        string
	CreatedBy        string
	StartPrice       int64
	CurrentPrice     int64
	MinIncrement     int64
	HighestBidder    string // пусто — ставок не было
	StartedAt        time.Time
	Deadline         time.Time
	Bids             []Bid
	Status           Status
	SecondsRemaining int64
}

// Participants возвращает количество уникальных участников.
func (s Snapshot) Participants() int {
	seen := make(map[string]struct{}, len(s.Bids))
	for _, b := range s.Bids {
		seen[b.Bidder] = struct{}{}
	}
	return len(seen)
}

// AuditSummary строит итоговую сводку аукциона для audit-лога.
func (s Snapshot) AuditSummary(endedAt time.Time) AuditSummary {
	return AuditSummary{
		Key:          s.Key,
		GuildID:      s.GuildID,
		StartedAt:    s.StartedAt,
		EndedAt:      endedAt,
		Bids:         s.Bids,
		BidCount:     len(s.Bids),
		Participants: s.Participants(),
		FinalPrice:   s.CurrentPrice,
		Winner:       s.HighestBidder,
		Cancelled:    s.Status == StatusCancelled,
		Duration:     endedAt.Sub(s.StartedAt),
	}
}

// AuditSummary — сводка завершённого аукциона: полный леджер,
// статистика участия и итог.
type AuditSummary struct {
	Key          string
	GuildID      string
	StartedAt    time.Time
	EndedAt      time.Time
	Bids         []Bid
	BidCount     int
	Participants int
	FinalPrice   int64
	Winner       string // пусто — не продано
	Cancelled    bool
	Duration     time.Duration
}

// SecondsRemaining возвращает количество секунд до дедлайна
// (не меньше нуля). Единственная точка вычисления оставшегося
// времени — все пути рендеринга обязаны использовать её.
func SecondsRemaining(deadline, now time.Time) int64 {
	left := int64(deadline.Sub(now) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}
