package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"array of objects", `[{"name":"Milk","price":40}]`, 1, false},
		{"empty array", `[]`, 0, false},
		{"mixed values", `[1,"two",null,{"x":true}]`, 4, false},
		{"empty string", ``, 0, true},
		{"whitespace", `   `, 0, true},
		{"malformed", `[{"name":`, 0, true},
		{"object instead of array", `{"name":"Milk"}`, 0, true},
		{"null", `null`, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, err := ParseItems(tc.raw)
			require.NotNil(t, items)
			assert.Len(t, items, tc.wantLen)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidPayload))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNewTransactionDefaults(t *testing.T) {
	tx, err := NewTransaction(map[string]string{"amount": "120"})
	require.NoError(t, err)

	assert.Nil(t, tx.ID)
	assert.Equal(t, "", tx.StoreName)
	assert.Equal(t, "", tx.BillNo)
	assert.Empty(t, tx.Items)
	assert.JSONEq(t, `"120"`, string(tx.Extra["amount"]))

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"120","storeName":"","billNo":"","items":[]}`, string(data))
}

func TestNewTransactionMalformedItems(t *testing.T) {
	tx, err := NewTransaction(map[string]string{"id": "t1", "items": "not json"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Equal(t, "t1", tx.IDValue())
	assert.NotNil(t, tx.Items)
	assert.Empty(t, tx.Items)
}

func TestNewTransactionParsesItems(t *testing.T) {
	tx, err := NewTransaction(map[string]string{
		"id":        "t1",
		"storeName": "Corner Shop",
		"items":     `[{"name":"Milk","price":40}]`,
	})
	require.NoError(t, err)

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"t1","storeName":"Corner Shop","billNo":"","items":[{"name":"Milk","price":40}]}`, string(data))
}

func TestSameRecord(t *testing.T) {
	id := func(s string) *string { return &s }

	assert.True(t, Transaction{ID: id("a")}.SameRecord(Transaction{ID: id("a")}))
	assert.False(t, Transaction{ID: id("a")}.SameRecord(Transaction{ID: id("b")}))
	assert.False(t, Transaction{}.SameRecord(Transaction{}))
	assert.False(t, Transaction{ID: id("")}.SameRecord(Transaction{ID: id("")}))
	assert.False(t, Transaction{ID: id("a")}.SameRecord(Transaction{}))
}

func TestTransactionUnmarshalKeepsUnknownFields(t *testing.T) {
	input := `{"id":null,"storeName":"S","billNo":42,"img_url":"/uploads/r.jpg","items":[{"n":1}],"date":"2024-01-02","amount":12.5}`

	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(input), &tx))

	assert.Nil(t, tx.ID)
	assert.Equal(t, "S", tx.StoreName)
	assert.Equal(t, "42", tx.BillNo)
	assert.Equal(t, "/uploads/r.jpg", tx.ImgURL)
	require.Len(t, tx.Items, 1)
	assert.JSONEq(t, `"2024-01-02"`, string(tx.Extra["date"]))
	assert.JSONEq(t, `12.5`, string(tx.Extra["amount"]))

	out, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestTransactionDecodedRecordEncodesUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"numeric store name", `{"id":"a","storeName":5}`},
		{"object items", `{"id":"a","items":{"name":"Milk"}}`},
		{"empty img_url", `{"id":"a","img_url":""}`},
		{"null id", `{"id":null,"storeName":"S"}`},
		{"numeric id", `{"id":7,"billNo":null}`},
		{"no known fields", `{"amount":"12"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tx Transaction
			require.NoError(t, json.Unmarshal([]byte(tt.input), &tx))

			out, err := json.Marshal(tx)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(out))
		})
	}
}

func TestTransactionDecodedNonStringFields(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"storeName":5,"items":{"name":"Milk"}}`), &tx))

	assert.Equal(t, "7", tx.IDValue())
	assert.Equal(t, "5", tx.StoreName)
	assert.NotNil(t, tx.Items)
	assert.Empty(t, tx.Items)
}

func TestNewCategory(t *testing.T) {
	assert.Equal(t, NullCategory, NewCategory(nil))
	assert.Equal(t, NullCategory, NewCategory([]byte("{broken")))
	assert.JSONEq(t, `{"name":"Food"}`, string(NewCategory([]byte(` {"name":"Food"} `))))
}
