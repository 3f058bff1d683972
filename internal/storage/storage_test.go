package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rupeetrack/internal/core"
)

func sampleTransactions(t *testing.T) []core.Transaction {
	t.Helper()
	var txs []core.Transaction
	raw := `[
		{"id":"t1","storeName":"Corner Shop","billNo":"B-1","items":[{"name":"Milk","price":40}],"amount":"40"},
		{"storeName":"","billNo":"","items":[],"img_url":"/uploads/r.jpg"}
	]`
	require.NoError(t, json.Unmarshal([]byte(raw), &txs))
	return txs
}

func TestJSONFileMissingFileLoadsEmpty(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "transactions.json"))

	txs, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestJSONFileInvalidJSONLoadsEmpty(t *testing.T) {
	for name, content := range map[string]string{
		"garbage":    "{not json",
		"object":     `{"id":"t1"}`,
		"null":       "null",
		"not object": `[1,2,3]`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "transactions.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			txs, err := NewJSONFile(path).Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, txs)
		})
	}
}

func TestJSONFileSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transactions.json")
	f := NewJSONFile(path)
	want := sampleTransactions(t)

	require.NoError(t, f.Save(context.Background(), want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "t1", decoded[0]["id"])
	assert.Equal(t, "/uploads/r.jpg", decoded[1]["img_url"])

	got, err := NewJSONFile(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].IDValue())
	assert.Nil(t, got[1].ID)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestJSONFileRewriteKeepsLoadedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	stored := `[
		{"id":"a","storeName":5,"items":{"name":"Milk"},"img_url":""},
		{"id":null,"billNo":12,"items":[{"name":"Bread"}],"date":"2024-01-02"},
		{"storeName":"Corner Shop"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(stored), 0o644))

	f := NewJSONFile(path)
	txs, err := f.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 3)
	require.NoError(t, f.Save(context.Background(), txs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, stored, string(data))
}

func TestJSONFileSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	f := NewJSONFile(path)
	txs := sampleTransactions(t)

	require.NoError(t, f.Save(context.Background(), txs))
	require.NoError(t, f.Save(context.Background(), txs[:1]))

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)

	require.NoError(t, f.Save(context.Background(), nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestSQLiteRepositorySaveAndLoad(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "rupeetrack.db")
	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := sampleTransactions(t)
	require.NoError(t, repo.Save(ctx, want))
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].IDValue())
	assert.Equal(t, "Corner Shop", got[0].StoreName)
	assert.JSONEq(t, `"40"`, string(got[0].Extra["amount"]))
	assert.Equal(t, "/uploads/r.jpg", got[1].ImgURL)
}

func TestSQLiteRepositoryKeepsLoadedRecords(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "rupeetrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	stored := `[{"id":"a","storeName":5,"items":{"name":"Milk"},"img_url":""},{"id":null}]`
	var txs []core.Transaction
	require.NoError(t, json.Unmarshal([]byte(stored), &txs))

	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, txs))
	got, err := repo.Load(ctx)
	require.NoError(t, err)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, stored, string(data))
}

func TestSQLiteRepositoryReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "rupeetrack.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sampleTransactions(t)))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
