package amqp

import (
	"encoding/json"
	"time"

	"myrupee/internal/core"
	"myrupee/internal/docstore"
)

// EventTransactionChanged is the message type for new or changed
// transactions.
const EventTransactionChanged = "transaction.changed"

// TransactionChangedMessage carries the full transaction so consumers do
// not need access to the writer's database.
type TransactionChangedMessage struct {
	Event       string           `json:"event"`
	UserID      string           `json:"userId"`
	Transaction core.Transaction `json:"transaction"`
	Timestamp   time.Time        `json:"timestamp"`
}

func NewTransactionChangedMessage(c docstore.Change) *TransactionChangedMessage {
	ts := c.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return &TransactionChangedMessage{
		Event:       EventTransactionChanged,
		UserID:      c.UserID,
		Transaction: c.Transaction,
		Timestamp:   ts,
	}
}

// Change converts the message back to a docstore change.
func (m *TransactionChangedMessage) Change() docstore.Change {
	return docstore.Change{UserID: m.UserID, Transaction: m.Transaction, Timestamp: m.Timestamp}
}

func (m *TransactionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionChangedMessageFromJSON(data []byte) (*TransactionChangedMessage, error) {
	var msg TransactionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
