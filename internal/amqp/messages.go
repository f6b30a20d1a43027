package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// RecordAddedMessage announces a record stored in one of the collections.
// The record travels in full so consumers never read the primary store.
type RecordAddedMessage struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRecordAddedMessage builds the event for r with a fresh message ID.
func NewRecordAddedMessage(kind core.Kind, r core.Record) *RecordAddedMessage {
	return &RecordAddedMessage{
		ID:          uuid.NewString(),
		Kind:        kind.String(),
		Date:        r.Date.String(),
		Category:    r.Category,
		Amount:      r.Amount.String(),
		Description: r.Description,
		Timestamp:   time.Now().UTC(),
	}
}

// Record decodes the collection and the record carried by the message.
func (m *RecordAddedMessage) Record() (core.Kind, core.Record, error) {
	kind, err := core.ParseKind(m.Kind)
	if err != nil {
		return "", core.Record{}, err
	}
	date, err := core.ParseDate(m.Date)
	if err != nil {
		return "", core.Record{}, err
	}
	amount, err := core.ParseAmount(m.Amount)
	if err != nil {
		return "", core.Record{}, fmt.Errorf("%w: %q", err, m.Amount)
	}
	r := core.Record{Date: date, Category: m.Category, Amount: amount, Description: m.Description}
	if err := r.Validate(); err != nil {
		return "", core.Record{}, err
	}
	return kind, r, nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordAddedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordAddedMessageFromJSON decodes a message body.
func RecordAddedMessageFromJSON(data []byte) (*RecordAddedMessage, error) {
	var msg RecordAddedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
