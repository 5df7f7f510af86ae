package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/warp/fund-ledger/ledger"
)

// Message is the wire form of a ledger.Change. It only identifies what
// changed; consumers reload the ledger from the store.
type Message struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id,omitempty"`
	Date      string    `json:"date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage converts a change.
func NewMessage(c ledger.Change) Message {
	return Message{
		Kind:      string(c.Kind),
		ID:        c.ID,
		Date:      string(c.Date),
		Timestamp: c.At.UTC(),
	}
}

// Change converts the message back.
func (m Message) Change() ledger.Change {
	return ledger.Change{
		Kind: ledger.ChangeKind(m.Kind),
		ID:   m.ID,
		Date: ledger.CanonicalDate(m.Date),
		At:   m.Timestamp,
	}
}

// ToJSON converts the message to JSON bytes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON parses a message. Messages without a kind are rejected.
func MessageFromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	if m.Kind == "" {
		return Message{}, fmt.Errorf("message has no kind")
	}
	return m, nil
}
