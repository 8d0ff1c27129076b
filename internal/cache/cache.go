// Package cache holds lists fetched once per page session.
package cache

import (
	"context"
	"sync"
)

// Loader fetches the full list.
type Loader[T any] func(ctx context.Context) ([]T, error)

// List is an ordered in-memory snapshot. Each Load replaces the whole list;
// a failed Load leaves it empty. There is no retry.
type List[T any] struct {
	load Loader[T]
	id   func(T) int64

	mu     sync.RWMutex
	items  []T
	loaded bool
}

func NewList[T any](load Loader[T], id func(T) int64) *List[T] {
	return &List[T]{load: load, id: id}
}

func (l *List[T]) Load(ctx context.Context) ([]T, error) {
	items, err := l.load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.items = nil
		l.loaded = false
		return nil, err
	}
	l.items = items
	l.loaded = true
	return append([]T{}, items...), nil
}

// Refresh re-fetches a list the rider is already looking at. Unlike Load, a
// failure keeps the previous snapshot.
func (l *List[T]) Refresh(ctx context.Context) ([]T, error) {
	items, err := l.load(ctx)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	l.loaded = true
	return append([]T{}, items...), nil
}

// Find returns the item with the given id.
func (l *List[T]) Find(id int64) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if l.id(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// All returns a copy of the list.
func (l *List[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T{}, l.items...)
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Loaded reports whether the last Load succeeded.
func (l *List[T]) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}
