package customer

import "github.com/google/uuid"

// Event names broadcast to realtime listeners
const (
	EventCreated     = "customer.created"
	EventUpdated     = "customer.updated"
	EventDeleted     = "customer.deleted"
	EventBulkDeleted = "customers.bulk_deleted"
)

// Summary is the realtime event payload for created/updated events.
// It carries public fields only, regardless of which visibility mode
// triggered the mutation: the broadcast channel has no per-subscriber
// authorization, so sensitive fields must never travel through it.
// Listeners re-fetch through the read path for a mode-appropriate view.
type Summary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

// NewSummary builds the public event payload for a customer
func NewSummary(c *Customer) Summary {
	return Summary{
		ID:       c.ID,
		FullName: c.FullName,
		Email:    c.Email,
	}
}

// Notifier broadcasts customer change events to connected listeners.
// Delivery is best-effort fire-and-forget: no acknowledgment, no replay.
// Implementations must not block the calling mutation.
type Notifier interface {
	CustomerCreated(summary Summary)
	CustomerUpdated(summary Summary)
	CustomerDeleted(id uuid.UUID)
	CustomersBulkDeleted(ids []uuid.UUID)
}

// NopNotifier is a Notifier that discards all events
type NopNotifier struct{}

func (NopNotifier) CustomerCreated(Summary)          {}
func (NopNotifier) CustomerUpdated(Summary)          {}
func (NopNotifier) CustomerDeleted(uuid.UUID)        {}
func (NopNotifier) CustomersBulkDeleted([]uuid.UUID) {}
