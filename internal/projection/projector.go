// Package projection folds cart activity events into per-item read models.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/domain/cart"
	"github.com/example/ec-storefront/internal/infrastructure/store"
	"github.com/example/ec-storefront/internal/readmodel"
)

type Projector struct {
	// mu serializes the create-or-update of a read model.
	mu        sync.Mutex
	readStore store.ReadStoreInterface
	logger    *zap.Logger
}

func NewProjector(readStore store.ReadStoreInterface, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{
		readStore: readStore,
		logger:    logger.Named("projector"),
	}
}

// HandleEvent matches kafka.MessageHandler. Unknown event types are ignored.
func (p *Projector) HandleEvent(ctx context.Context, eventType string, key, value []byte) error {
	var event cart.ActivityEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return fmt.Errorf("decode activity event: %w", err)
	}
	if eventType == "" {
		eventType = event.EventType
	}
	if event.ItemID == "" {
		event.ItemID = string(key)
	}

	p.logger.Debug("received event",
		zap.String("event_type", eventType),
		zap.String("item_id", event.ItemID),
	)

	switch eventType {
	case cart.EventAddToCartSucceeded, cart.EventAddToCartRejected, cart.EventAddToCartFailed:
	default:
		return nil
	}

	fold := func(current any) any {
		item := clone(current.(*readmodel.ItemActivityReadModel))
		apply(item, eventType, event)
		return item
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.readStore.Update(store.ItemActivityCollection, event.ItemID, fold) {
		return nil
	}
	p.readStore.Set(store.ItemActivityCollection, event.ItemID,
		fold(&readmodel.ItemActivityReadModel{ItemID: event.ItemID}))
	return nil
}

func apply(item *readmodel.ItemActivityReadModel, eventType string, event cart.ActivityEvent) {
	switch eventType {
	case cart.EventAddToCartSucceeded:
		item.Succeeded++
		item.QuantityAdded += event.Quantity
		if event.CartCount != nil {
			count := *event.CartCount
			item.LastCartCount = &count
		}
	case cart.EventAddToCartRejected:
		item.Rejected++
	case cart.EventAddToCartFailed:
		item.Failed++
	}
	item.LastMessage = event.Message
	if event.OccurredAt.After(item.LastOccurredAt) {
		item.LastOccurredAt = event.OccurredAt
	}
}

// clone copies m deeply enough that the copy shares no memory with it.
func clone(m *readmodel.ItemActivityReadModel) *readmodel.ItemActivityReadModel {
	out := *m
	if m.LastCartCount != nil {
		count := *m.LastCartCount
		out.LastCartCount = &count
	}
	return &out
}

// Get returns a copy of the read model for itemID.
func (p *Projector) Get(itemID string) (readmodel.ItemActivityReadModel, bool) {
	data, ok := p.readStore.Get(store.ItemActivityCollection, itemID)
	if !ok {
		return readmodel.ItemActivityReadModel{}, false
	}
	return *clone(data.(*readmodel.ItemActivityReadModel)), true
}

// List returns copies of all read models ordered by item id.
func (p *Projector) List() []readmodel.ItemActivityReadModel {
	all := p.readStore.GetAll(store.ItemActivityCollection)
	out := make([]readmodel.ItemActivityReadModel, 0, len(all))
	for _, data := range all {
		out = append(out, *clone(data.(*readmodel.ItemActivityReadModel)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}
