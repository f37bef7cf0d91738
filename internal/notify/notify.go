// Пакет notify — рендеринг состояния аукционов.
// LogNotifier пишет события в структурированный лог; адаптер
// конкретной чат-платформы реализует тот же набор методов.
// Методы не возвращают ошибок: сбой рендеринга не влияет
// на принятое состояние аукциона.
package notify

import (
	"context"
	"log/slog"

	"github.com/bigkaa/goauctions/internal/amount"
	"github.com/bigkaa/goauctions/internal/domain/model"
)

// LogNotifier — рендеринг в структурированный лог.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier создаёт лог-рендерер.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With(slog.String("component", "notifier"))}
}

// RenderLive обновляет панель живого аукциона.
func (n *LogNotifier) RenderLive(ctx context.Context, s model.Snapshot) {
	n.logger.InfoContext(ctx, "Панель аукциона обновлена",
		slog.String("key", s.Key),
		slog.String("channel_id", s.ChannelID),
		slog.String("current_price", amount.Format(s.CurrentPrice)),
		slog.String("min_next_bid", amount.Format(s.CurrentPrice+s.MinIncrement)),
		slog.String("leader", s.HighestBidder),
		slog.Int64("seconds_remaining", s.SecondsRemaining),
	)
}

// RenderClosed рендерит итоговую панель завершённого аукциона.
func (n *LogNotifier) RenderClosed(ctx context.Context, s model.Snapshot) {
	if s.HighestBidder == "" {
		n.logger.InfoContext(ctx, "Аукцион завершён без ставок",
			slog.String("key", s.Key),
			slog.String("channel_id", s.ChannelID),
		)
		return
	}
	n.logger.InfoContext(ctx, "Аукцион завершён",
		slog.String("key", s.Key),
		slog.String("channel_id", s.ChannelID),
		slog.String("winner", s.HighestBidder),
		slog.String("final_price", amount.Format(s.CurrentPrice)),
	)
}

// RenderCancelled рендерит панель отменённого аукциона.
// Последняя цена и лидер попадают в панель: при отмене без ставок
// last_price равна стартовой цене, leader пуст.
func (n *LogNotifier) RenderCancelled(ctx context.Context, s model.Snapshot) {
	n.logger.InfoContext(ctx, "Аукцион отменён",
		slog.String("key", s.Key),
		slog.String("channel_id", s.ChannelID),
		slog.String("leader", s.HighestBidder),
		slog.String("last_price", amount.Format(s.CurrentPrice)),
	)
}

// PublishAuditLog публикует итоговую сводку в audit-канал.
func (n *LogNotifier) PublishAuditLog(ctx context.Context, sum model.AuditSummary) {
	n.logger.InfoContext(ctx, "Audit-сводка аукциона",
		slog.String("key", sum.Key),
		slog.String("guild_id", sum.GuildID),
		slog.Time("started_at", sum.StartedAt),
		slog.Time("ended_at", sum.EndedAt),
		slog.Int("bids", sum.BidCount),
		slog.Int("participants", sum.Participants),
		slog.String("winner", sum.Winner),
		slog.String("final_price", amount.Format(sum.FinalPrice)),
		slog.Bool("cancelled", sum.Cancelled),
	)
}
