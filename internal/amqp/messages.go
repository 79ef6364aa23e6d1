package amqp

import (
	"encoding/json"
	"time"
)

// RecurringDueMessage asks a worker to book the due occurrence of one
// recurring transaction. The worker reloads the template from the database,
// so the message only carries identifiers.
type RecurringDueMessage struct {
	TransactionID string    `json:"transaction_id"`
	DueAt         time.Time `json:"due_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewRecurringDueMessage creates a message stamped with the current time.
func NewRecurringDueMessage(transactionID string, dueAt time.Time) *RecurringDueMessage {
	return &RecurringDueMessage{
		TransactionID: transactionID,
		DueAt:         dueAt,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecurringDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecurringDueMessageFromJSON decodes a message body.
func RecurringDueMessageFromJSON(data []byte) (*RecurringDueMessage, error) {
	var msg RecurringDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
