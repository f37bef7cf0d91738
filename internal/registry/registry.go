// Пакет registry — реестр живых аукционов в памяти.
// Реестр служит только индексом: мьютекс карты держится коротко,
// сериализация операций над конкретным аукционом выполняется
// мьютексом самой записи.
package registry

import (
	"errors"
	"sync"

	"github.com/bigkaa/goauctions/internal/domain/model"
)

// ErrDuplicateKey — аукцион с таким ключом уже идёт.
var ErrDuplicateKey = errors.New("аукцион с таким ключом уже существует")

// Registry — потокобезопасная карта живых аукционов по ключу.
type Registry struct {
	mu       sync.Mutex
	auctions map[string]*model.Auction
}

// New создаёт пустой реестр.
func New() *Registry {
	return &Registry{auctions: make(map[string]*model.Auction)}
}

// Create регистрирует аукцион. Вставка строго insert-if-absent:
// при занятом ключе возвращается ErrDuplicateKey, существующая
// запись не затрагивается.
func (r *Registry) Create(a *model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[a.Key]; ok {
		return ErrDuplicateKey
	}
	r.auctions[a.Key] = a
	return nil
}

// Get возвращает живой аукцион по ключу.
func (r *Registry) Get(key string) (*model.Auction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.auctions[key]
	return a, ok
}

// Remove удаляет аукцион из реестра. Идемпотентна: удаление
// отсутствующего ключа не является ошибкой.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.auctions, key)
}

// Len возвращает количество живых аукционов.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.auctions)
}

// Keys возвращает ключи всех живых аукционов.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.auctions))
	for k := range r.auctions {
		keys = append(keys, k)
	}
	return keys
}
