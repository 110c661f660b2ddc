package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export kinds carried on the wire. They match the activity kinds used by
// the reporting feed.
const (
	KindExpense = "expense"
	KindPayment = "payment"
)

// ExportMessage is a lightweight pointer to a row awaiting spreadsheet
// export. It carries only the kind and id; the worker fetches the full row
// from the database.
type ExportMessage struct {
	Kind      string    `json:"kind"`
	ID        int64     `json:"id"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExportMessage creates an export message with a fresh message id for
// tracing and de-duplication on the consumer side.
func NewExportMessage(kind string, id int64) *ExportMessage {
	return &ExportMessage{
		Kind:      kind,
		ID:        id,
		MessageID: uuid.NewString(),
		Timestamp: time.Now(),
	}
}

// Validate rejects messages with an unknown kind or a missing id.
func (m *ExportMessage) Validate() error {
	if m.Kind != KindExpense && m.Kind != KindPayment {
		return fmt.Errorf("unknown export kind %q", m.Kind)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid export id %d", m.ID)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportMessageFromJSON creates a message from JSON bytes
func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
