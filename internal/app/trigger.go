package app

import (
	"context"
	"sync"
)

// Trigger runs every subscribed handler, in subscription order, before Fire
// returns. Handlers own their error handling and keep the caller's values but
// not its cancellation: the write that fired them is already committed.
type Trigger[T any] struct {
	mu       sync.RWMutex
	handlers []func(context.Context, T)
}

func NewTrigger[T any]() *Trigger[T] {
	return &Trigger[T]{}
}

func (t *Trigger[T]) Subscribe(h func(context.Context, T)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

func (t *Trigger[T]) Fire(ctx context.Context, v T) {
	t.mu.RLock()
	handlers := append([]func(context.Context, T){}, t.handlers...)
	t.mu.RUnlock()

	ctx = context.WithoutCancel(ctx)
	for _, h := range handlers {
		h(ctx, v)
	}
}
