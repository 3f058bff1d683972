package backend

import (
	"context"

	"rupeetrack/internal/store"
)

// Backend is everything the HTTP layer needs from the data side.
type Backend interface {
	store.CategoryWriter
	store.CategoryLister
	store.TransactionWriter
	store.TransactionLister
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Persistence
	Type             BackendType
	TransactionsFile string
	SQLiteDBPath     string

	// Receipts
	UploadDir string

	// Events, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects where the transaction mirror lives.
type BackendType string

const (
	FileBackend   BackendType = "file"
	SQLiteBackend BackendType = "sqlite"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
