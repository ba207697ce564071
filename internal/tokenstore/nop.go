package tokenstore

import "context"

// NopStore — хранилище без состояния: чтение всегда пустое, запись игнорируется.
// Клиент с NopStore всегда ходит без Authorization и никогда не обновляет пару.
type NopStore struct{}

func (NopStore) Get(context.Context) (Pair, error) { return Pair{}, nil }
func (NopStore) Set(context.Context, Pair) error   { return nil }
func (NopStore) Clear(context.Context) error       { return nil }
