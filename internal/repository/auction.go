package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goauctions/internal/domain/model"
)

// AuctionRepository — интерфейс доступа к таблицам auctions и bids.
type AuctionRepository interface {
	// CreateAuction создаёт запись аукциона, возвращает её идентификатор.
	CreateAuction(ctx context.Context, s model.Snapshot) (int64, error)
	// AppendBid дописывает принятую ставку и обновляет текущую цену.
	AppendBid(ctx context.Context, auctionID int64, bid model.Bid) error
	// FinalizeAuction фиксирует терминальное состояние аукциона.
	FinalizeAuction(ctx context.Context, auctionID int64, winner *string, finalPrice int64, endedAt time.Time, cancelled bool) error
	// History возвращает завершённые аукционы сервера, новые первыми.
	History(ctx context.Context, guildID string, limit int) ([]model.AuctionSummary, error)
	// GetByID возвращает сводку аукциона.
	GetByID(ctx context.Context, auctionID int64) (*model.AuctionSummary, error)
	// Bids возвращает леджер ставок аукциона в порядке принятия.
	Bids(ctx context.Context, auctionID int64) ([]model.Bid, error)
	// Stats возвращает сводку аукциона со статистикой участия.
	Stats(ctx context.Context, auctionID int64) (*model.AuctionStats, error)
	// UserStats возвращает статистику участника на сервере.
	UserStats(ctx context.Context, guildID, userID string) (*model.UserStats, error)
}

// auctionRepo — реализация AuctionRepository.
type auctionRepo struct {
	db DBTX
}

// NewAuctionRepository создаёт репозиторий аукционов.
func NewAuctionRepository(db DBTX) AuctionRepository {
	return &auctionRepo{db: db}
}

func (r *auctionRepo) CreateAuction(ctx context.Context, s model.Snapshot) (int64, error) {
	query := `
		INSERT INTO auctions (guild_id, channel_id, auction_key, start_price,
			current_price, min_increment, created_by, started_at, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		s.GuildID, s.ChannelID, s.Key, s.StartPrice,
		s.CurrentPrice, s.MinIncrement, s.CreatedBy, s.StartedAt, s.Deadline,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: ключ аукциона уже зарегистрирован", ErrConflict)
		}
		return 0, fmt.Errorf("ошибка создания аукциона: %w", err)
	}
	return id, nil
}

func (r *auctionRepo) AppendBid(ctx context.Context, auctionID int64, bid model.Bid) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bids (auction_id, bidder_id, amount, created_at)
		VALUES ($1, $2, $3, $4)`,
		auctionID, bid.Bidder, bid.Amount, bid.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка записи ставки: %w", err)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE auctions SET current_price = $2 WHERE id = $1`,
		auctionID, bid.Amount,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления цены: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *auctionRepo) FinalizeAuction(ctx context.Context, auctionID int64, winner *string, finalPrice int64, endedAt time.Time, cancelled bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE auctions
		SET ended = TRUE, cancelled = $2, winner_id = $3,
			current_price = $4, ended_at = $5
		WHERE id = $1`,
		auctionID, cancelled, winner, finalPrice, endedAt,
	)
	if err != nil {
		return fmt.Errorf("ошибка завершения аукциона: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *auctionRepo) History(ctx context.Context, guildID string, limit int) ([]model.AuctionSummary, error) {
	query := `
		SELECT id, guild_id, channel_id, auction_key, start_price, current_price,
			min_increment, created_by, started_at, deadline, ended_at,
			winner_id, ended, cancelled
		FROM auctions
		WHERE guild_id = $1 AND ended = TRUE
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var result []model.AuctionSummary
	for rows.Next() {
		var s model.AuctionSummary
		if err := scanSummary(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *auctionRepo) GetByID(ctx context.Context, auctionID int64) (*model.AuctionSummary, error) {
	query := `
		SELECT id, guild_id, channel_id, auction_key, start_price, current_price,
			min_increment, created_by, started_at, deadline, ended_at,
			winner_id, ended, cancelled
		FROM auctions
		WHERE id = $1`

	var s model.AuctionSummary
	if err := scanSummary(r.db.QueryRow(ctx, query, auctionID), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *auctionRepo) Bids(ctx context.Context, auctionID int64) ([]model.Bid, error) {
	rows, err := r.db.Query(ctx, `
		SELECT bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY id`,
		auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ставок: %w", err)
	}
	defer rows.Close()

	var result []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.Bidder, &b.Amount, &b.PlacedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ставки: %w", err)
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *auctionRepo) Stats(ctx context.Context, auctionID int64) (*model.AuctionStats, error) {
	summary, err := r.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	stats := &model.AuctionStats{Auction: *summary}
	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT bidder_id)
		FROM bids
		WHERE auction_id = $1`,
		auctionID,
	).Scan(&stats.TotalBids, &stats.TotalParticipants)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта статистики: %w", err)
	}
	return stats, nil
}

func (r *auctionRepo) UserStats(ctx context.Context, guildID, userID string) (*model.UserStats, error) {
	stats := &model.UserStats{}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(current_price), 0)
		FROM auctions
		WHERE guild_id = $1 AND winner_id = $2 AND ended = TRUE AND cancelled = FALSE`,
		guildID, userID,
	).Scan(&stats.TotalWins, &stats.TotalSpent)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта побед: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT b.auction_id)
		FROM bids b
		JOIN auctions a ON a.id = b.auction_id
		WHERE a.guild_id = $1 AND b.bidder_id = $2`,
		guildID, userID,
	).Scan(&stats.TotalBids, &stats.ParticipatedAuctions)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта ставок: %w", err)
	}

	return stats, nil
}

// scanSummary читает строку auctions в AuctionSummary.
func scanSummary(row pgx.Row, s *model.AuctionSummary) error {
	err := row.Scan(
		&s.ID, &s.GuildID, &s.ChannelID, &s.Key, &s.StartPrice, &s.FinalPrice,
		&s.MinIncrement, &s.CreatedBy, &s.StartedAt, &s.Deadline, &s.EndedAt,
		&s.Winner, &s.Ended, &s.Cancelled,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка сканирования аукциона: %w", err)
	}
	return nil
}
