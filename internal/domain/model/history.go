package model

import "time"

// AuctionSummary — запись завершённого аукциона из хранилища.
// Соответствует строке таблицы auctions.
type AuctionSummary struct {
	// ID — идентификатор записи в хранилище
	ID int64
	// GuildID — сервер чат-платформы
	GuildID string
	// ChannelID — канал аукциона
	ChannelID string
	// Key — ключ аукциона (идентификатор сообщения-панели)
	Key string
	// StartPrice — стартовая цена
	StartPrice int64
	// FinalPrice — итоговая цена
	FinalPrice int64
	// MinIncrement — минимальный шаг ставки
	MinIncrement int64
	// CreatedBy — создатель
	CreatedBy string
	// StartedAt — начало аукциона
	StartedAt time.Time
	// Deadline — запланированное время завершения
	Deadline time.Time
	// EndedAt — фактическое время завершения (nil — ещё идёт)
	EndedAt *time.Time
	// Winner — победитель (nil — не продано)
	Winner *string
	// Ended — аукцион завершён
	Ended bool
	// Cancelled — аукцион отменён
	Cancelled bool
}

// AuctionStats — детальная статистика одного аукциона.
type AuctionStats struct {
	// Auction — сводка аукциона
	Auction AuctionSummary
	// TotalBids — количество ставок
	TotalBids int
	// TotalParticipants — количество уникальных участников
	TotalParticipants int
}

// UserStats — статистика участника в рамках одного сервера.
type UserStats struct {
	// TotalWins — количество выигранных аукционов
	TotalWins int
	// TotalSpent — сумма по выигранным аукционам
	TotalSpent int64
	// TotalBids — количество сделанных ставок
	TotalBids int
	// ParticipatedAuctions — количество аукционов с участием
	ParticipatedAuctions int
}
