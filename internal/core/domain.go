package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Known transaction field names as they appear on the wire and on disk.
const (
	FieldID        = "id"
	FieldStoreName = "storeName"
	FieldBillNo    = "billNo"
	FieldImgURL    = "img_url"
	FieldItems     = "items"
)

var (
	// ErrInvalidPayload marks request data that could not be interpreted and was defaulted.
	ErrInvalidPayload = errors.New("invalid payload")
	// ErrStorageIO marks failures writing uploads or the persisted transaction mirror.
	ErrStorageIO = errors.New("storage io error")
	// ErrDuplicateRecord reports that a transaction id was already stored. It is informational:
	// the request still succeeds with the unchanged list.
	ErrDuplicateRecord = errors.New("duplicate record")
)

type (
	// Category is an arbitrary caller-defined JSON value.
	Category = json.RawMessage

	// Transaction is a single recorded expense entry.
	Transaction struct {
		ID        *string
		StoreName string
		BillNo    string
		ImgURL    string
		Items     []json.RawMessage
		// Extra holds every field that is not one of the known ones, verbatim.
		Extra map[string]json.RawMessage

		// stored holds the known fields of a decoded record exactly as read. A non-nil
		// map makes MarshalJSON write them back unchanged.
		stored map[string]json.RawMessage
	}

	// Receipt is an uploaded bill image attached to a transaction submission.
	Receipt struct {
		Filename string
		Body     io.Reader
	}
)

// NullCategory is stored when a category body is missing or not valid JSON.
var NullCategory = Category("null")

// NewCategory returns the body as a category, or null when it is not valid JSON.
func NewCategory(body []byte) Category {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || !json.Valid(body) {
		return NullCategory
	}
	return Category(append([]byte(nil), body...))
}

// NewTransaction builds a transaction from submitted form fields. storeName and billNo
// default to "", items is decoded with ParseItems and defaults to an empty list.
// The returned error, if any, wraps ErrInvalidPayload and describes a defaulted items
// field; the transaction is always usable.
func NewTransaction(fields map[string]string) (Transaction, error) {
	tx := Transaction{
		Items: []json.RawMessage{},
		Extra: make(map[string]json.RawMessage),
	}
	var itemsErr error
	for key, value := range fields {
		switch key {
		case FieldID:
			id := value
			tx.ID = &id
		case FieldStoreName:
			tx.StoreName = value
		case FieldBillNo:
			tx.BillNo = value
		case FieldImgURL:
			tx.ImgURL = value
		case FieldItems:
			tx.Items, itemsErr = ParseItems(value)
		default:
			raw, _ := json.Marshal(value)
			tx.Extra[key] = raw
		}
	}
	return tx, itemsErr
}

// ParseItems decodes a JSON-encoded array of line items. Empty input, malformed JSON and
// non-array values fall back to an empty list together with an ErrInvalidPayload error.
func ParseItems(raw string) ([]json.RawMessage, error) {
	if strings.TrimSpace(raw) == "" {
		return []json.RawMessage{}, fmt.Errorf("%w: empty items", ErrInvalidPayload)
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []json.RawMessage{}, fmt.Errorf("%w: items: %v", ErrInvalidPayload, err)
	}
	if items == nil {
		return []json.RawMessage{}, fmt.Errorf("%w: items is null", ErrInvalidPayload)
	}
	return items, nil
}

// HasID reports whether the transaction carries a usable dedup key.
func (t Transaction) HasID() bool {
	return t.ID != nil && *t.ID != ""
}

// IDValue returns the id or "" when absent.
func (t Transaction) IDValue() string {
	if t.ID == nil {
		return ""
	}
	return *t.ID
}

// SameRecord reports whether both transactions share the same non-empty id.
// Transactions without an id never match, so each of them is stored.
func (t Transaction) SameRecord(other Transaction) bool {
	return t.HasID() && other.HasID() && *t.ID == *other.ID
}

// MarshalJSON flattens Extra next to the known fields. A transaction read with
// UnmarshalJSON writes its known fields back exactly as they were read, so records
// loaded from disk survive a rewrite unchanged.
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(t.Extra)+5)
	for k, v := range t.Extra {
		out[k] = v
	}
	if t.stored != nil {
		for k, v := range t.stored {
			out[k] = v
		}
		return json.Marshal(out)
	}
	if t.ID != nil {
		out[FieldID] = *t.ID
	}
	out[FieldStoreName] = t.StoreName
	out[FieldBillNo] = t.BillNo
	if t.ImgURL != "" {
		out[FieldImgURL] = t.ImgURL
	}
	items := t.Items
	if items == nil {
		items = []json.RawMessage{}
	}
	out[FieldItems] = items
	return json.Marshal(out)
}

// UnmarshalJSON reads a stored transaction. Known fields holding a non-string value are
// exposed as their JSON text, a non-array items as an empty list; the raw values are kept
// for MarshalJSON. Unknown fields go to Extra untouched.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Transaction{
		Items:  []json.RawMessage{},
		Extra:  make(map[string]json.RawMessage),
		stored: make(map[string]json.RawMessage),
	}
	for key, value := range raw {
		switch key {
		case FieldID:
			if s, ok := rawString(value); ok {
				t.ID = &s
			}
		case FieldStoreName:
			t.StoreName, _ = rawString(value)
		case FieldBillNo:
			t.BillNo, _ = rawString(value)
		case FieldImgURL:
			t.ImgURL, _ = rawString(value)
		case FieldItems:
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err == nil && items != nil {
				t.Items = items
			}
		default:
			t.Extra[key] = value
			continue
		}
		t.stored[key] = value
	}
	return nil
}

// rawString returns a JSON string value, or the raw JSON text for other values.
// ok is false for null.
func rawString(value json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, true
	}
	return string(trimmed), true
}
