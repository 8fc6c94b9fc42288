package realtime

import (
	"github.com/google/uuid"

	"github.com/custdash/backend/internal/domain/customer"
)

// Envelope is the wire format for customer events crossing instances
// over Redis Pub/Sub. Exactly one of Summary, ID, or IDs is set,
// depending on the event.
type Envelope struct {
	Event     string            `json:"event"`
	Summary   *customer.Summary `json:"summary,omitempty"`
	ID        *uuid.UUID        `json:"id,omitempty"`
	IDs       []uuid.UUID       `json:"ids,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// ApplyTo dispatches the envelope to a local notifier. Unknown or
// malformed envelopes are ignored.
func (e Envelope) ApplyTo(n customer.Notifier) {
	switch e.Event {
	case customer.EventCreated:
		if e.Summary != nil {
			n.CustomerCreated(*e.Summary)
		}
	case customer.EventUpdated:
		if e.Summary != nil {
			n.CustomerUpdated(*e.Summary)
		}
	case customer.EventDeleted:
		if e.ID != nil {
			n.CustomerDeleted(*e.ID)
		}
	case customer.EventBulkDeleted:
		if len(e.IDs) > 0 {
			n.CustomersBulkDeleted(e.IDs)
		}
	}
}
