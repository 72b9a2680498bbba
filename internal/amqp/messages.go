package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/ledger"
	"fintrack/internal/storage"
)

// LedgerEventMessage announces that a ledger collection changed. It carries
// no entity data: consumers re-read the collection from storage.
type LedgerEventMessage struct {
	Collection storage.Collection `json:"collection"`
	Op         ledger.Op          `json:"op"`
	ID         string             `json:"id,omitempty"`
	At         time.Time          `json:"at"`
	Timestamp  time.Time          `json:"timestamp"`
}

// NewLedgerEventMessage wraps ev for publishing.
func NewLedgerEventMessage(ev ledger.Event) *LedgerEventMessage {
	return &LedgerEventMessage{
		Collection: ev.Collection,
		Op:         ev.Op,
		ID:         ev.ID,
		At:         ev.At,
		Timestamp:  time.Now(),
	}
}

// Event converts the message back to a ledger event.
func (m *LedgerEventMessage) Event() ledger.Event {
	return ledger.Event{Collection: m.Collection, Op: m.Op, ID: m.ID, At: m.At}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
