// auctions.go — read-API истории и статистики аукционов.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goauctions/internal/amount"
	apierrors "github.com/bigkaa/goauctions/internal/api/errors"
	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/service"
)

// Лимиты выдачи истории.
const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// AuctionsHandler — обработчик read-API аукционов.
type AuctionsHandler struct {
	history *service.HistoryService
	logger  *slog.Logger
}

// NewAuctionsHandler создаёт обработчик read-API.
func NewAuctionsHandler(history *service.HistoryService, logger *slog.Logger) *AuctionsHandler {
	return &AuctionsHandler{
		history: history,
		logger:  logger.With(slog.String("component", "auctions_handler")),
	}
}

// auctionResponse — сводка аукциона в ответе API.
type auctionResponse struct {
	ID           int64   `json:"id"`
	GuildID      string  `json:"guild_id"`
	ChannelID    string  `json:"channel_id"`
	Key          string  `json:"key"`
	StartPrice   int64   `json:"start_price"`
	FinalPrice   int64   `json:"final_price"`
	FinalDisplay string  `json:"final_price_display"`
	MinIncrement int64   `json:"min_increment"`
	CreatedBy    string  `json:"created_by"`
	StartedAt    string  `json:"started_at"`
	EndedAt      *string `json:"ended_at,omitempty"`
	Winner       *string `json:"winner,omitempty"`
	Cancelled    bool    `json:"cancelled"`
}

// bidResponse — ставка в ответе API.
type bidResponse struct {
	Bidder        string `json:"bidder"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	PlacedAt      string `json:"placed_at"`
}

// statsResponse — статистика аукциона.
type statsResponse struct {
	Auction           auctionResponse `json:"auction"`
	TotalBids         int             `json:"total_bids"`
	TotalParticipants int             `json:"total_participants"`
}

// userStatsResponse — статистика участника.
type userStatsResponse struct {
	TotalWins            int    `json:"total_wins"`
	TotalSpent           int64  `json:"total_spent"`
	TotalSpentDisplay    string `json:"total_spent_display"`
	TotalBids            int    `json:"total_bids"`
	ParticipatedAuctions int    `json:"participated_auctions"`
}

func toAuctionResponse(s model.AuctionSummary) auctionResponse {
	resp := auctionResponse{
		ID:           s.ID,
		GuildID:      s.GuildID,
		ChannelID:    s.ChannelID,
		Key:          s.Key,
		StartPrice:   s.StartPrice,
		FinalPrice:   s.FinalPrice,
		FinalDisplay: amount.Format(s.FinalPrice),
		MinIncrement: s.MinIncrement,
		CreatedBy:    s.CreatedBy,
		StartedAt:    s.StartedAt.UTC().Format(time.RFC3339),
		Winner:       s.Winner,
		Cancelled:    s.Cancelled,
	}
	if s.EndedAt != nil {
		ended := s.EndedAt.UTC().Format(time.RFC3339)
		resp.EndedAt = &ended
	}
	return resp
}

// ListHistory — GET /api/v1/auctions?guild_id=...&limit=...
// Возвращает завершённые аукционы сервера, новые первыми.
func (h *AuctionsHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	guildID := r.URL.Query().Get("guild_id")
	if guildID == "" {
		apierrors.ValidationError(w, "Параметр guild_id обязателен")
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			apierrors.ValidationError(w, "Параметр limit должен быть положительным целым числом")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	summaries, err := h.history.History(r.Context(), guildID, limit)
	if err != nil {
		h.logger.Error("Ошибка получения истории",
			slog.String("guild_id", guildID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Не удалось получить историю аукционов")
		return
	}

	result := make([]auctionResponse, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, toAuctionResponse(s))
	}

	writeJSON(w, map[string]any{"auctions": result})
}

// GetStats — GET /api/v1/auctions/{id}/stats
func (h *AuctionsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}

	stats, err := h.history.Stats(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAuctionNotFound) {
			apierrors.NotFound(w, "Аукцион не найден")
			return
		}
		h.logger.Error("Ошибка получения статистики",
			slog.Int64("auction_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Не удалось получить статистику аукциона")
		return
	}

	writeJSON(w, statsResponse{
		Auction:           toAuctionResponse(stats.Auction),
		TotalBids:         stats.TotalBids,
		TotalParticipants: stats.TotalParticipants,
	})
}

// GetBids — GET /api/v1/auctions/{id}/bids
// Леджер ставок аукциона в порядке принятия.
func (h *AuctionsHandler) GetBids(w http.ResponseWriter, r *http.Request) {
	id, ok := auctionID(w, r)
	if !ok {
		return
	}

	bids, err := h.history.Bids(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrAuctionNotFound) {
			apierrors.NotFound(w, "Аукцион не найден")
			return
		}
		h.logger.Error("Ошибка получения ставок",
			slog.Int64("auction_id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Не удалось получить ставки аукциона")
		return
	}

	result := make([]bidResponse, 0, len(bids))
	for _, b := range bids {
		result = append(result, bidResponse{
			Bidder:        b.Bidder,
			Amount:        b.Amount,
			AmountDisplay: amount.Format(b.Amount),
			PlacedAt:      b.PlacedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, map[string]any{"bids": result})
}

// GetUserStats — GET /api/v1/users/{id}/stats?guild_id=...
func (h *AuctionsHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	guildID := r.URL.Query().Get("guild_id")
	if guildID == "" {
		apierrors.ValidationError(w, "Параметр guild_id обязателен")
		return
	}

	stats, err := h.history.UserStats(r.Context(), guildID, userID)
	if err != nil {
		h.logger.Error("Ошибка получения статистики участника",
			slog.String("guild_id", guildID),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Не удалось получить статистику участника")
		return
	}

	writeJSON(w, userStatsResponse{
		TotalWins:            stats.TotalWins,
		TotalSpent:           stats.TotalSpent,
		TotalSpentDisplay:    amount.Format(stats.TotalSpent),
		TotalBids:            stats.TotalBids,
		ParticipatedAuctions: stats.ParticipatedAuctions,
	})
}

// auctionID извлекает числовой идентификатор аукциона из пути.
func auctionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.ValidationError(w, "Идентификатор аукциона должен быть положительным целым числом")
		return 0, false
	}
	return id, true
}

// writeJSON сериализует ответ 200 в JSON.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
