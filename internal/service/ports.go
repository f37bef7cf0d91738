// ports.go — интерфейсы внешних зависимостей сервисного слоя.
// Реализации: notify (рендеринг в чат-платформу), access (допуск
// участников), store.go (PostgreSQL).
package service

import (
	"context"

	"github.com/bigkaa/goauctions/internal/domain/model"
)

// Notifier — рендеринг состояния аукциона в чат-платформу.
// Методы не возвращают ошибок: сбой рендеринга логируется
// реализацией и не влияет на принятое состояние аукциона.
type Notifier interface {
	// RenderLive обновляет панель живого аукциона.
	RenderLive(ctx context.Context, s model.Snapshot)
	// RenderClosed рендерит итоговую панель завершённого аукциона.
	RenderClosed(ctx context.Context, s model.Snapshot)
	// RenderCancelled рендерит панель отменённого аукциона.
	RenderCancelled(ctx context.Context, s model.Snapshot)
	// PublishAuditLog публикует итоговую сводку в audit-канал.
	PublishAuditLog(ctx context.Context, sum model.AuditSummary)
}

// AccessControl — проверка допуска участников к операциям.
type AccessControl interface {
	// IsEligible сообщает, допущен ли участник к ставкам
	// в аукционах сервера guildID.
	IsEligible(ctx context.Context, guildID string, actor model.Actor) bool
	// HasManagePermission сообщает, есть ли у участника права управления.
	HasManagePermission(ctx context.Context, actor model.Actor) bool
}

// Store — долговременное хранилище аукционов.
// Все операции best-effort с точки зрения вызывающего: сбой
// хранилища логируется и не откатывает состояние в памяти.
type Store interface {
	// PersistCreate создаёт запись аукциона, возвращает её идентификатор.
	PersistCreate(ctx context.Context, s model.Snapshot) (int64, error)
	// PersistBid дописывает принятую ставку.
	PersistBid(ctx context.Context, auctionID int64, bid model.Bid) error
	// PersistFinalize фиксирует терминальное состояние.
	PersistFinalize(ctx context.Context, auctionID int64, sum model.AuditSummary) error
}
