// live.go — командный API живых аукционов.
// Вызывается адаптером чат-платформы: создание, ставки, быстрая
// ставка, отмена и снимок панели.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goauctions/internal/amount"
	apierrors "github.com/bigkaa/goauctions/internal/api/errors"
	"github.com/bigkaa/goauctions/internal/clock"
	"github.com/bigkaa/goauctions/internal/domain/model"
	"github.com/bigkaa/goauctions/internal/registry"
	"github.com/bigkaa/goauctions/internal/service"
)

// LiveHandler — обработчик командного API живых аукционов.
type LiveHandler struct {
	lifecycle *service.LifecycleService
	bidding   *service.BiddingService
	registry  *registry.Registry
	clk       clock.Clock
	logger    *slog.Logger
}

// NewLiveHandler создаёт обработчик командного API.
func NewLiveHandler(
	lifecycle *service.LifecycleService,
	bidding *service.BiddingService,
	reg *registry.Registry,
	clk clock.Clock,
	logger *slog.Logger,
) *LiveHandler {
	return &LiveHandler{
		lifecycle: lifecycle,
		bidding:   bidding,
		registry:  reg,
		clk:       clk,
		logger:    logger.With(slog.String("component", "live_handler")),
	}
}

// actorRequest — участник чат-платформы в теле запроса.
type actorRequest struct {
	ID        string   `json:"id"`
	IsBot     bool     `json:"is_bot"`
	Roles     []string `json:"roles"`
	CanManage bool     `json:"can_manage"`
}

func (a actorRequest) toActor() model.Actor {
	return model.Actor{
		ID:        a.ID,
		IsBot:     a.IsBot,
		Roles:     a.Roles,
		CanManage: a.CanManage,
	}
}

// createRequest — тело запроса создания аукциона.
// Суммы принимаются в формате с суффиксами k/m.
type createRequest struct {
	Key             string       `json:"key"`
	GuildID         string       `json:"guild_id"`
	ChannelID       string       `json:"channel_id"`
	StartPrice      string       `json:"start_price"`
	MinIncrement    string       `json:"min_increment"`
	DurationSeconds int64        `json:"duration_seconds"`
	Actor           actorRequest `json:"actor"`
}

// bidRequest — тело запроса ставки.
type bidRequest struct {
	Amount string       `json:"amount"`
	Actor  actorRequest `json:"actor"`
}

// cancelRequest — тело запроса отмены.
type cancelRequest struct {
	Actor actorRequest `json:"actor"`
}

// snapshotResponse — снимок живого аукциона.
type snapshotResponse struct {
	Key              string `json:"key"`
	GuildID          string `json:"guild_id"`
	ChannelID        string `json:"channel_id"`
	Status           string `json:"status"`
	CurrentPrice     int64  `json:"current_price"`
	CurrentDisplay   string `json:"current_price_display"`
	MinNextBid       int64  `json:"min_next_bid"`
	MinNextDisplay   string `json:"min_next_bid_display"`
	HighestBidder    string `json:"highest_bidder,omitempty"`
	BidCount         int    `json:"bid_count"`
	SecondsRemaining int64  `json:"seconds_remaining"`
}

func toSnapshotResponse(s model.Snapshot) snapshotResponse {
	minNext := s.CurrentPrice + s.MinIncrement
	return snapshotResponse{
		Key:              s.Key,
		GuildID:          s.GuildID,
		ChannelID:        s.ChannelID,
		Status:           string(s.Status),
		CurrentPrice:     s.CurrentPrice,
		CurrentDisplay:   amount.Format(s.CurrentPrice),
		MinNextBid:       minNext,
		MinNextDisplay:   amount.Format(minNext),
		HighestBidder:    s.HighestBidder,
		BidCount:         len(s.Bids),
		SecondsRemaining: s.SecondsRemaining,
	}
}

// bidResponse в live-контексте — принятая ставка.
type acceptedBidResponse struct {
	Bidder        string `json:"bidder"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	PlacedAt      string `json:"placed_at"`
}

// Create — POST /api/v1/auctions
func (h *LiveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	params := model.CreateParams{
		Key:          req.Key,
		GuildID:      req.GuildID,
		ChannelID:    req.ChannelID,
		CreatedBy:    req.Actor.ID,
		StartPrice:   amount.Parse(req.StartPrice),
		MinIncrement: amount.Parse(req.MinIncrement),
		Duration:     time.Duration(req.DurationSeconds) * time.Second,
	}

	a, err := h.lifecycle.Create(r.Context(), params, req.Actor.toActor())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(toSnapshotResponse(a.Snapshot(h.clk.Now())))
}

// GetLive — GET /api/v1/auctions/live/{key}
// Снимок панели живого аукциона.
func (h *LiveHandler) GetLive(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	a, ok := h.registry.Get(key)
	if !ok {
		apierrors.NotFound(w, "Аукцион не найден")
		return
	}
	writeJSON(w, toSnapshotResponse(a.Snapshot(h.clk.Now())))
}

// SubmitBid — POST /api/v1/auctions/live/{key}/bids
func (h *LiveHandler) SubmitBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	key := chi.URLParam(r, "key")
	bid, err := h.bidding.SubmitBid(r.Context(), key, req.Actor.toActor(), req.Amount)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeAcceptedBid(w, bid)
}

// QuickBid — POST /api/v1/auctions/live/{key}/quick-bid
// Ставка ровно на минимальный шаг выше текущей цены.
func (h *LiveHandler) QuickBid(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	key := chi.URLParam(r, "key")
	bid, err := h.bidding.QuickBid(r.Context(), key, req.Actor.toActor())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeAcceptedBid(w, bid)
}

// Cancel — DELETE /api/v1/auctions/live/{key}
func (h *LiveHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.lifecycle.Cancel(r.Context(), key, req.Actor.toActor()); err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": string(model.StatusCancelled)})
}

func (h *LiveHandler) writeAcceptedBid(w http.ResponseWriter, bid model.Bid) {
	writeJSON(w, acceptedBidResponse{
		Bidder:        bid.Bidder,
		Amount:        bid.Amount,
		AmountDisplay: amount.Format(bid.Amount),
		PlacedAt:      bid.PlacedAt.UTC().Format(time.RFC3339),
	})
}

// writeServiceError маппит ошибки сервисного слоя в HTTP-ответы.
func (h *LiveHandler) writeServiceError(w http.ResponseWriter, err error) {
	var tooLow *model.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		apierrors.InvalidAmount(w, err.Error(), tooLow.Minimum, amount.Format(tooLow.Minimum))
	case errors.Is(err, service.ErrInvalidParameters):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrDuplicateKey):
		apierrors.Conflict(w, "Аукцион с таким ключом уже идёт")
	case errors.Is(err, service.ErrAuctionNotFound):
		apierrors.NotFound(w, "Аукцион не найден")
	case errors.Is(err, service.ErrIneligibleBidder):
		apierrors.Forbidden(w, "Участник не допущен к ставкам")
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, "Недостаточно прав")
	case errors.Is(err, service.ErrAlreadyTerminal):
		apierrors.Conflict(w, "Аукцион уже завершён")
	default:
		h.logger.Error("Внутренняя ошибка командного API", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка")
	}
}
