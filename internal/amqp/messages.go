package amqp

import (
	"encoding/json"
	"time"

	"rupeetrack/internal/core"
)

// TransactionRecordedMessage announces a newly stored transaction. Duplicates are never
// announced.
type TransactionRecordedMessage struct {
	ID        string    `json:"id,omitempty"`
	StoreName string    `json:"storeName"`
	BillNo    string    `json:"billNo"`
	ImgURL    string    `json:"img_url,omitempty"`
	ItemCount int       `json:"item_count"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionRecordedMessage summarizes tx for publishing
func NewTransactionRecordedMessage(tx core.Transaction) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		ID:        tx.IDValue(),
		StoreName: tx.StoreName,
		BillNo:    tx.BillNo,
		ImgURL:    tx.ImgURL,
		ItemCount: len(tx.Items),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionRecordedMessageFromJSON decodes a message body
func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
