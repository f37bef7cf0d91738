// store.go — реализация Store поверх PostgreSQL.
package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/repository"
)

// pgStore — Store поверх репозитория аукционов.
// Запись ставки выполняется в транзакции: вставка в леджер и
// обновление текущей цены либо фиксируются вместе, либо никак.
type pgStore struct {
	repo repository.AuctionRepository
	tx   *repository.TxRunner
}

// NewStore создаёт Store поверх PostgreSQL.
func NewStore(repo repository.AuctionRepository, tx *repository.TxRunner) Store {
	return &pgStore{repo: repo, tx: tx}
}

func (s *pgStore) PersistCreate(ctx context.Context, snap model.Snapshot) (int64, error) {
	return s.repo.CreateAuction(ctx, snap)
}

func (s *pgStore) PersistBid(ctx context.Context, auctionID int64, bid model.Bid) error {
	return s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		return repository.NewAuctionRepository(tx).AppendBid(ctx, auctionID, bid)
	})
}

func (s *pgStore) PersistFinalize(ctx context.Context, auctionID int64, sum model.AuditSummary) error {
	var winner *string
	if sum.Winner != "" {
		w := sum.Winner
		winner = &w
	}
	if err := s.repo.FinalizeAuction(ctx, auctionID, winner, sum.FinalPrice, sum.EndedAt, sum.Cancelled); err != nil {
		return fmt.Errorf("фиксация завершения аукциона: %w", err)
	}
	return nil
}
