package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rupeetrack/internal/core"
	"rupeetrack/internal/storage"
)

type recordingPersister struct {
	mu      sync.Mutex
	saved   [][]core.Transaction
	loadErr error
	saveErr error
}

func (p *recordingPersister) Load(context.Context) ([]core.Transaction, error) {
	return nil, p.loadErr
}

func (p *recordingPersister) Save(_ context.Context, txs []core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = append(p.saved, append([]core.Transaction(nil), txs...))
	return nil
}

func (p *recordingPersister) saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saved)
}

func newTx(t *testing.T, fields map[string]string) core.Transaction {
	t.Helper()
	tx, _ := core.NewTransaction(fields)
	return tx
}

func TestCategoriesAppendWithoutUniqueness(t *testing.T) {
	s := NewCategories()
	ctx := context.Background()

	empty, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = s.AddCategory(ctx, core.Category(`{"name":"Food"}`))
	require.NoError(t, err)
	list, err := s.AddCategory(ctx, core.Category(`{"name":"Food"}`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.AddCategory(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, core.NullCategory, list[2])
}

func TestTransactionsDedupByID(t *testing.T) {
	p := &recordingPersister{}
	s, err := NewTransactions(context.Background(), p)
	require.NoError(t, err)
	ctx := context.Background()

	list, err := s.Add(ctx, newTx(t, map[string]string{"id": "t1", "storeName": "A"}))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.Add(ctx, newTx(t, map[string]string{"id": "t1", "storeName": "B"}))
	assert.ErrorIs(t, err, core.ErrDuplicateRecord)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].StoreName)

	// the mirror is rewritten on duplicates too
	assert.Equal(t, 2, p.saves())
}

func TestTransactionsWithoutIDAreAllKept(t *testing.T) {
	s, err := NewTransactions(context.Background(), &recordingPersister{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Add(ctx, newTx(t, map[string]string{"storeName": "A"}))
	require.NoError(t, err)
	_, err = s.Add(ctx, newTx(t, map[string]string{"storeName": "B"}))
	require.NoError(t, err)
	list, err := s.Add(ctx, newTx(t, map[string]string{"id": "", "storeName": "C"}))
	require.NoError(t, err)

	require.Len(t, list, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{list[0].StoreName, list[1].StoreName, list[2].StoreName})
}

func TestTransactionsRollbackOnPersistFailure(t *testing.T) {
	p := &recordingPersister{}
	s, err := NewTransactions(context.Background(), p)
	require.NoError(t, err)
	ctx := context.Background()

	p.saveErr = fmt.Errorf("%w: disk full", core.ErrStorageIO)
	_, err = s.Add(ctx, newTx(t, map[string]string{"id": "t1"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStorageIO)
	assert.Equal(t, 0, s.Len())

	p.saveErr = nil
	list, err := s.Add(ctx, newTx(t, map[string]string{"id": "t1"}))
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewTransactionsLoadError(t *testing.T) {
	_, err := NewTransactions(context.Background(), &recordingPersister{loadErr: errors.New("boom")})
	require.Error(t, err)
}

func TestTransactionsPersistAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	ctx := context.Background()

	first, err := NewTransactions(ctx, storage.NewJSONFile(path))
	require.NoError(t, err)
	_, err = first.Add(ctx, newTx(t, map[string]string{"id": "t1", "items": `[{"name":"Milk","price":40}]`}))
	require.NoError(t, err)
	_, err = first.Add(ctx, newTx(t, map[string]string{"id": "t2"}))
	require.NoError(t, err)

	second, err := NewTransactions(ctx, storage.NewJSONFile(path))
	require.NoError(t, err)
	list, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].IDValue())
	require.Len(t, list[0].Items, 1)
	assert.JSONEq(t, `{"name":"Milk","price":40}`, string(list[0].Items[0]))

	// dedup still applies to reloaded records
	_, err = second.Add(ctx, newTx(t, map[string]string{"id": "t1"}))
	assert.ErrorIs(t, err, core.ErrDuplicateRecord)
}

func TestTransactionsConcurrentAdds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	ctx := context.Background()
	s, err := NewTransactions(ctx, storage.NewJSONFile(path))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every id is submitted twice
			id := fmt.Sprintf("t%d", i%25)
			_, _ = s.Add(ctx, newTx(t, map[string]string{"id": id}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, s.Len())

	reloaded, err := storage.NewJSONFile(path).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, 25)
}
