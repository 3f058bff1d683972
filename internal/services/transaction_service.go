package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"

	"rupeetrack/internal/core"
	applog "rupeetrack/internal/log"
	"rupeetrack/internal/store"
)

// EventPublisher is notified after a new transaction is stored.
type EventPublisher interface {
	PublishTransactionRecorded(ctx context.Context, tx core.Transaction) error
	Close() error
}

// ReceiptSaver stores an uploaded receipt and returns the on-disk name.
type ReceiptSaver interface {
	Save(ctx context.Context, name string, body io.Reader) (string, error)
}

// URLBuilder maps a stored receipt name to its public path.
type URLBuilder func(name string) string

// TransactionService orchestrates receipt uploads, the transaction store and events.
type TransactionService struct {
	transactions *store.Transactions
	categories   *store.Categories
	receipts     ReceiptSaver
	receiptURL   URLBuilder
	publisher    EventPublisher
	closers      []io.Closer
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(txs *store.Transactions, cats *store.Categories, receipts ReceiptSaver, receiptURL URLBuilder, publisher EventPublisher) *TransactionService {
	return &TransactionService{
		transactions: txs,
		categories:   cats,
		receipts:     receipts,
		receiptURL:   receiptURL,
		publisher:    publisher,
	}
}

// AddCloser registers a resource released by Close, such as the persister.
func (s *TransactionService) AddCloser(c io.Closer) {
	s.closers = append(s.closers, c)
}

// AddTransaction stores the receipt if one was attached, builds the transaction from the
// submitted fields and records it. Duplicate ids are not an error: the unchanged list is
// returned. Malformed items are defaulted and logged.
func (s *TransactionService) AddTransaction(ctx context.Context, fields map[string]string, receipt *core.Receipt) ([]core.Transaction, error) {
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentService)

	fields = maps.Clone(fields)
	if fields == nil {
		fields = map[string]string{}
	}

	if receipt != nil && receipt.Filename != "" {
		name, err := s.receipts.Save(ctx, receipt.Filename, receipt.Body)
		if err != nil {
			return nil, fmt.Errorf("save receipt: %w", err)
		}
		fields[core.FieldImgURL] = s.receiptURL(name)
		logger.InfoContext(ctx, "Receipt saved", applog.FieldFilename, name)
	}

	tx, err := core.NewTransaction(fields)
	if err != nil {
		logger.WarnContext(ctx, "Items defaulted to empty list",
			applog.NewFields().
				WithError(err).
				WithErrorType(applog.ErrorTypeInvalidPayload).
				WithOperation(applog.OpParse).
				ToSlice()...)
	}

	list, err := s.transactions.Add(ctx, tx)
	switch {
	case errors.Is(err, core.ErrDuplicateRecord):
		logger.InfoContext(ctx, "Duplicate transaction, not adding",
			applog.FieldTxID, tx.IDValue(),
			applog.FieldErrorType, applog.ErrorTypeDuplicate)
		return list, nil
	case err != nil:
		return nil, err
	}

	logger.InfoContext(ctx, "Transaction added",
		applog.NewFields().
			WithTransaction(tx.IDValue(), tx.StoreName, len(tx.Items)).
			WithOperation(applog.OpCreate).
			ToSlice()...)
	logger.DebugContext(ctx, "Transactions list", applog.FieldTxCount, len(list))

	s.publish(ctx, tx)
	return list, nil
}

// ListTransactions returns every stored transaction in insertion order.
func (s *TransactionService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.transactions.List(ctx)
}

// AddCategory appends a category; categories are never persisted.
func (s *TransactionService) AddCategory(ctx context.Context, c core.Category) ([]core.Category, error) {
	return s.categories.AddCategory(ctx, c)
}

// ListCategories returns the in-memory categories.
func (s *TransactionService) ListCategories(ctx context.Context) ([]core.Category, error) {
	return s.categories.ListCategories(ctx)
}

func (s *TransactionService) publish(ctx context.Context, tx core.Transaction) {
	if s.publisher == nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentService).DebugContext(ctx, "AMQP publisher not configured, skipping event")
		return
	}
	if err := s.publisher.PublishTransactionRecorded(ctx, tx); err != nil {
		applog.LogError(ctx, "Failed to publish transaction event", err,
			applog.ComponentAMQP, applog.OpPublish, applog.ErrorTypeNetwork)
	}
}

// Close releases the publisher and any registered resources.
func (s *TransactionService) Close() error {
	var errs []error

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %w", errors.Join(errs...))
	}
	return nil
}
