package store

import (
	"context"
	"sync"

	"rupeetrack/internal/core"
)

// Categories keeps caller-defined categories in memory only; they reset on restart.
type Categories struct {
	mu    sync.Mutex
	items []core.Category
}

func NewCategories() *Categories {
	return &Categories{items: []core.Category{}}
}

// AddCategory appends c without any uniqueness check and returns the full list.
func (s *Categories) AddCategory(_ context.Context, c core.Category) ([]core.Category, error) {
	if c == nil {
		c = core.NullCategory
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, c)
	return append([]core.Category(nil), s.items...), nil
}

// ListCategories returns the categories in insertion order.
func (s *Categories) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category{}, s.items...), nil
}
