// settings.go — сервис настроек серверов.
// Настройки хранятся в таблице settings парами ключ-значение,
// ключ составляется из ID сервера и имени настройки.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/goauctions/internal/repository"
)

// Имена настроек сервера.
const (
	// SettingAuctionRole — ID роли, дающей право участвовать в ставках
	// (пусто или не задано — участвовать могут все).
	SettingAuctionRole = "auction_role_id"
	// SettingLogChannel — канал для публикации audit-сводок.
	SettingLogChannel = "log_channel_id"
)

// knownSettings — настройки, принимаемые через API.
var knownSettings = map[string]bool{
	SettingAuctionRole: true,
	SettingLogChannel:  true,
}

// KnownSetting сообщает, известно ли имя настройки.
func KnownSetting(name string) bool {
	return knownSettings[name]
}

// SettingsService — настройки серверов поверх таблицы settings.
// fallbackRole используется как роль допуска, пока настройка
// auction_role_id для сервера не задана.
type SettingsService struct {
	repo         repository.SettingsRepository
	fallbackRole string
	logger       *slog.Logger
}

// NewSettingsService создаёт сервис настроек.
func NewSettingsService(repo repository.SettingsRepository, fallbackRole string, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		repo:         repo,
		fallbackRole: fallbackRole,
		logger:       logger.With(slog.String("component", "settings_service")),
	}
}

// settingKey составляет ключ хранения настройки сервера.
func settingKey(guildID, name string) string {
	return fmt.Sprintf("%s:%s", guildID, name)
}

// Set сохраняет настройку сервера (upsert).
func (s *SettingsService) Set(ctx context.Context, guildID, name, value string) error {
	if err := s.repo.Set(ctx, settingKey(guildID, name), value); err != nil {
		return err
	}
	s.logger.Info("Настройка сервера обновлена",
		slog.String("guild_id", guildID),
		slog.String("name", name),
	)
	return nil
}

// Get возвращает значение настройки сервера.
// Возвращает ErrSettingNotFound, если настройка не задана.
func (s *SettingsService) Get(ctx context.Context, guildID, name string) (string, error) {
	value, err := s.repo.Get(ctx, settingKey(guildID, name))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return value, nil
}

// AuctionRoleID возвращает ID роли допуска к ставкам для сервера.
// Незаданная настройка и сбой хранилища сводятся к роли из
// конфигурации: проверка допуска не должна падать из-за хранилища.
func (s *SettingsService) AuctionRoleID(ctx context.Context, guildID string) string {
	role, err := s.Get(ctx, guildID, SettingAuctionRole)
	if err != nil {
		if !errors.Is(err, ErrSettingNotFound) {
			s.logger.Warn("Не удалось прочитать роль допуска, используется роль из конфигурации",
				slog.String("guild_id", guildID),
				slog.String("error", err.Error()),
			)
		}
		return s.fallbackRole
	}
	return role
}
