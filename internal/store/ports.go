package store

import (
	"context"

	"rupeetrack/internal/core"
)

// Ports used by the HTTP layer and by the transaction store.
type (
	CategoryWriter interface {
		AddCategory(ctx context.Context, c core.Category) ([]core.Category, error)
	}

	CategoryLister interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}

	TransactionWriter interface {
		// AddTransaction records a submission and returns the full transaction list.
		AddTransaction(ctx context.Context, fields map[string]string, receipt *core.Receipt) ([]core.Transaction, error)
	}

	TransactionLister interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// Persister mirrors the whole transaction list to durable storage.
	Persister interface {
		Load(ctx context.Context) ([]core.Transaction, error)
		Save(ctx context.Context, txs []core.Transaction) error
	}
)
