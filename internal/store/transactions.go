package store

import (
	"context"
	"fmt"
	"sync"

	"rupeetrack/internal/core"
)

// Transactions is the ordered transaction list, mirrored to a Persister on every add.
// A single mutex covers the dedup check, the append and the persist.
type Transactions struct {
	mu        sync.Mutex
	items     []core.Transaction
	persister Persister
}

// NewTransactions loads the current mirror once.
func NewTransactions(ctx context.Context, p Persister) (*Transactions, error) {
	items, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if items == nil {
		items = []core.Transaction{}
	}
	return &Transactions{items: items, persister: p}, nil
}

// Add appends tx unless a stored transaction has the same id, then rewrites the mirror
// with the full list and returns it. A duplicate returns the unchanged list together
// with core.ErrDuplicateRecord. If the mirror cannot be written the append is undone.
func (s *Transactions) Add(ctx context.Context, tx core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duplicate := false
	for _, existing := range s.items {
		if existing.SameRecord(tx) {
			duplicate = true
			break
		}
	}

	n := len(s.items)
	if !duplicate {
		s.items = append(s.items, tx)
	}

	if err := s.persister.Save(ctx, s.items); err != nil {
		s.items = s.items[:n]
		return nil, fmt.Errorf("persist transactions: %w", err)
	}

	snapshot := append([]core.Transaction(nil), s.items...)
	if duplicate {
		return snapshot, core.ErrDuplicateRecord
	}
	return snapshot, nil
}

// List returns the transactions in insertion order.
func (s *Transactions) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction{}, s.items...), nil
}

// Len returns the number of stored transactions.
func (s *Transactions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
