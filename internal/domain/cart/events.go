package cart

import "time"

const (
	EventAddToCartSucceeded = "AddToCartSucceeded"
	EventAddToCartRejected  = "AddToCartRejected"
	EventAddToCartFailed    = "AddToCartFailed"
)

// ActivityEvent records the outcome of one add-to-cart click.
type ActivityEvent struct {
	EventType  string    `json:"event_type"`
	ItemID     string    `json:"item_id"`
	Quantity   int       `json:"quantity"`
	StatusCode int       `json:"status_code,omitempty"`
	CartCount  *int      `json:"cart_count,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewActivityEvent classifies an outcome. A non-nil err is a transport
// failure and wins over result.
func NewActivityEvent(req ItemRequest, result UpdateResult, err error, at time.Time) ActivityEvent {
	e := ActivityEvent{
		ItemID:     req.ItemID,
		Quantity:   req.Quantity,
		OccurredAt: at,
	}
	switch {
	case err != nil:
		e.EventType = EventAddToCartFailed
	case result.Succeeded():
		e.EventType = EventAddToCartSucceeded
		e.StatusCode = result.StatusCode
		e.CartCount = result.CartCount
		e.Message = result.Message
	default:
		e.EventType = EventAddToCartRejected
		e.StatusCode = result.StatusCode
		e.Message = result.Message
	}
	return e
}

// Type returns the event type.
func (e ActivityEvent) Type() string { return e.EventType }
