// Пакет access — допуск участников к операциям аукционов.
package access

import (
	"context"

	"github.com/bigkaa/goauctions/internal/domain/model"
)

// RoleSource возвращает ID роли, обязательной для участия в ставках
// на сервере guildID. Пустая строка отключает проверку роли.
type RoleSource interface {
	AuctionRoleID(ctx context.Context, guildID string) string
}

// StaticRole — RoleSource с фиксированной ролью для всех серверов.
// Используется в тестах и при работе без хранилища настроек.
type StaticRole string

// AuctionRoleID возвращает фиксированную роль.
func (r StaticRole) AuctionRoleID(_ context.Context, _ string) string {
	return string(r)
}

// Policy — контроль допуска: боты не допускаются никогда,
// роль допуска берётся из RoleSource по серверу аукциона.
type Policy struct {
	roles RoleSource
}

// NewPolicy создаёт контроль допуска поверх источника ролей.
func NewPolicy(roles RoleSource) *Policy {
	return &Policy{roles: roles}
}

// IsEligible сообщает, допущен ли участник к ставкам на сервере guildID.
func (p *Policy) IsEligible(ctx context.Context, guildID string, actor model.Actor) bool {
	if actor.IsBot {
		return false
	}
	role := p.roles.AuctionRoleID(ctx, guildID)
	if role == "" {
		return true
	}
	return actor.HasRole(role)
}

// HasManagePermission сообщает, есть ли у участника права управления.
func (p *Policy) HasManagePermission(_ context.Context, actor model.Actor) bool {
	return actor.CanManage
}
