package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID `json:"userId"`
	Role   string    `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// OrderPlacedData is the event payload for order.placed.
type OrderPlacedData struct {
	OrderNumber   string `json:"orderNumber"`
	UserID        string `json:"userId"`
	TotalCents    int64  `json:"totalCents"`
	PaymentMethod string `json:"paymentMethod"`
	ItemCount     int    `json:"itemCount"`
}

// UserRegisteredData is the event payload for user.registered.
type UserRegisteredData struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
