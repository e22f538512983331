package readmodel

import "time"

// ItemActivityReadModel aggregates add-to-cart outcomes for one item
type ItemActivityReadModel struct {
	ItemID         string    `json:"item_id"`
	Succeeded      int       `json:"succeeded"`
	Rejected       int       `json:"rejected"`
	Failed         int       `json:"failed"`
	QuantityAdded  int       `json:"quantity_added"`
	LastCartCount  *int      `json:"last_cart_count,omitempty"`
	LastMessage    string    `json:"last_message,omitempty"`
	LastOccurredAt time.Time `json:"last_occurred_at"`
}

// Attempts is the number of outcomes recorded
func (m *ItemActivityReadModel) Attempts() int {
	return m.Succeeded + m.Rejected + m.Failed
}
