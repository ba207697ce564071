// tokenstore — хранилище пары access/refresh токенов клиента витрины.
//
// Пара всегда записывается и очищается целиком: Set отклоняет пару
// с одной пустой половиной, Clear удаляет обе.
package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/pribylovaa/go-storefront/internal/config"
)

// Ключи хранения пары (имена полей JSON-файла и Redis-хэша).
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
)

var (
	// ErrIncompletePair — попытка сохранить пару, в которой пуст один из токенов.
	ErrIncompletePair = errors.New("incomplete token pair")
)

// Pair — пара токенов, выданная backend'ом при login/register/refresh.
type Pair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Empty — в хранилище нет ни одного токена.
func (p Pair) Empty() bool { return p.AccessToken == "" && p.RefreshToken == "" }

func (p Pair) validate() error {
	if p.AccessToken == "" || p.RefreshToken == "" {
		return ErrIncompletePair
	}

	return nil
}

// Store задает контракт хранилища пары токенов.
type Store interface {
	// Get возвращает сохранённую пару; отсутствие пары — не ошибка (Pair{}).
	Get(ctx context.Context) (Pair, error)
	// Set атомарно перезаписывает пару.
	Set(ctx context.Context, p Pair) error
	// Clear удаляет обе половины пары.
	Clear(ctx context.Context) error
}

// New выбирает реализацию по cfg.Kind.
// Для file с пустым FilePath используется config.DefaultCredentialsPath().
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	const op = "tokenstore.New"

	switch cfg.Kind {
	case config.StoreMemory:
		return NewMemoryStore(), nil
	case config.StoreNone:
		return NopStore{}, nil
	case config.StoreFile:
		path := cfg.FilePath
		if path == "" {
			p, err := config.DefaultCredentialsPath()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			path = p
		}

		return NewFileStore(path), nil
	case config.StoreRedis:
		st, err := NewRedisStore(ctx, cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return st, nil
	default:
		return nil, fmt.Errorf("%s: %w: %q", op, config.ErrUnknownStoreKind, cfg.Kind)
	}
}
