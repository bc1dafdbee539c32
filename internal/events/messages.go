package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"budgetbook/internal/core"
)

// Kind names a ledger change.
type Kind string

const (
	KindAdded   Kind = "added"
	KindUpdated Kind = "updated"
	KindRemoved Kind = "removed"
)

// RoutingKey is the topic routing key for events of this kind.
func (k Kind) RoutingKey() string {
	return "ledger.transaction." + string(k)
}

// ChangeMessage describes one ledger mutation. Old is set for updates and
// removals, New for additions and updates.
type ChangeMessage struct {
	ID         string            `json:"id"`
	Kind       Kind              `json:"kind"`
	OccurredAt time.Time         `json:"occurred_at"`
	Old        *core.Transaction `json:"old,omitempty"`
	New        *core.Transaction `json:"new,omitempty"`
}

func NewChangeMessage(kind Kind, old, updated *core.Transaction) *ChangeMessage {
	return &ChangeMessage{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		Old:        old,
		New:        updated,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON parses a message produced by ToJSON.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
