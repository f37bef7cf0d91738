// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrInvalidParameters — некорректные параметры создания аукциона.
	ErrInvalidParameters = errors.New("некорректные параметры аукциона")
	// ErrDuplicateKey — аукцион с таким ключом уже идёт.
	ErrDuplicateKey = errors.New("аукцион с таким ключом уже идёт")
	// ErrAuctionNotFound — живой аукцион не найден.
	ErrAuctionNotFound = errors.New("аукцион не найден")
	// ErrIneligibleBidder — участник не допущен к ставкам (бот или нет роли).
	ErrIneligibleBidder = errors.New("участник не допущен к ставкам")
	// ErrForbidden — недостаточно прав для операции управления.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrAlreadyTerminal — аукцион уже завершён или отменён.
	ErrAlreadyTerminal = errors.New("аукцион уже завершён")
	// ErrSettingNotFound — настройка сервера не задана.
	ErrSettingNotFound = errors.New("настройка не найдена")
)
