// settings.go — API настроек серверов.
// Настройки (роль допуска, канал audit-лога) хранятся в PostgreSQL
// и меняются модераторами через адаптер чат-платформы.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goauctions/internal/api/errors"
	"github.com/bigkaa/goauctions/internal/service"
)

// SettingsHandler — обработчик API настроек серверов.
type SettingsHandler struct {
	settings *service.SettingsService
	logger   *slog.Logger
}

// NewSettingsHandler создаёт обработчик настроек.
func NewSettingsHandler(settings *service.SettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		logger:   logger.With(slog.String("component", "settings_handler")),
	}
}

// settingResponse — настройка сервера в ответе API.
type settingResponse struct {
	GuildID string `json:"guild_id"`
	Name    string `json:"name"`
	Value   string `json:"value"`
}

// setSettingRequest — тело запроса изменения настройки.
type setSettingRequest struct {
	Value string `json:"value"`
}

// GetSetting — GET /api/v1/guilds/{guildID}/settings/{name}
func (h *SettingsHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	name := chi.URLParam(r, "name")
	if !service.KnownSetting(name) {
		apierrors.ValidationError(w, fmt.Sprintf("Неизвестная настройка %q", name))
		return
	}

	value, err := h.settings.Get(r.Context(), guildID, name)
	if err != nil {
		if errors.Is(err, service.ErrSettingNotFound) {
			apierrors.NotFound(w, "Настройка не задана")
			return
		}
		h.logger.Error("Ошибка чтения настройки", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка")
		return
	}

	writeJSON(w, settingResponse{GuildID: guildID, Name: name, Value: value})
}

// SetSetting — PUT /api/v1/guilds/{guildID}/settings/{name}
func (h *SettingsHandler) SetSetting(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guildID")
	name := chi.URLParam(r, "name")
	if !service.KnownSetting(name) {
		apierrors.ValidationError(w, fmt.Sprintf("Неизвестная настройка %q", name))
		return
	}

	var req setSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса")
		return
	}

	if err := h.settings.Set(r.Context(), guildID, name, req.Value); err != nil {
		h.logger.Error("Ошибка сохранения настройки", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка")
		return
	}

	writeJSON(w, settingResponse{GuildID: guildID, Name: name, Value: req.Value})
}
