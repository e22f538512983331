package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-storefront/internal/domain/cart"
)

// MockClient is a scripted cart client for testing
type MockClient struct {
	mu        sync.Mutex
	responses map[string]MockResponse
	gates     map[string]chan struct{}

	// For tracking calls in tests
	AddToCartCalls []AddToCartCall
}

// MockResponse is the scripted answer for one item
type MockResponse struct {
	Result cart.UpdateResult
	Err    error
}

// AddToCartCall records parameters passed to AddToCart
type AddToCartCall struct {
	ItemID   string
	Quantity int
}

// NewMockClient creates a new MockClient
func NewMockClient() *MockClient {
	return &MockClient{
		responses:      make(map[string]MockResponse),
		gates:          make(map[string]chan struct{}),
		AddToCartCalls: make([]AddToCartCall, 0),
	}
}

// Respond scripts the answer for itemID
func (m *MockClient) Respond(itemID string, result cart.UpdateResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[itemID] = MockResponse{Result: result, Err: err}
}

// Hold makes requests for itemID block until Release is called
func (m *MockClient) Hold(itemID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[itemID] = make(chan struct{})
}

// Release unblocks requests held for itemID
func (m *MockClient) Release(itemID string) {
	m.mu.Lock()
	gate, ok := m.gates[itemID]
	delete(m.gates, itemID)
	m.mu.Unlock()
	if ok {
		close(gate)
	}
}

// Calls returns a copy of the recorded calls
func (m *MockClient) Calls() []AddToCartCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AddToCartCall(nil), m.AddToCartCalls...)
}

// AddToCart records the call and returns the scripted answer
func (m *MockClient) AddToCart(ctx context.Context, req cart.ItemRequest) (cart.UpdateResult, error) {
	m.mu.Lock()
	m.AddToCartCalls = append(m.AddToCartCalls, AddToCartCall{
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
	})
	gate := m.gates[req.ItemID]
	resp, ok := m.responses[req.ItemID]
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return cart.UpdateResult{}, ctx.Err()
		}
	}

	if !ok {
		return cart.UpdateResult{StatusCode: 200, OK: true}, nil
	}
	return resp.Result, resp.Err
}
