package cart

// Fallback texts shown when the server does not supply a message.
const (
	MessageAdded        = "ITEM ADDED TO CART."
	MessageFailed       = "FAILED TO ADD ITEM TO CART."
	MessageNetworkError = "NETWORK ERROR. PLEASE TRY AGAIN."
)

// UpdateResult is the server's answer to an ItemRequest.
type UpdateResult struct {
	StatusCode int    `json:"-"`
	OK         bool   `json:"ok"`
	CartCount  *int   `json:"cart_count,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Succeeded reports a 2xx status together with the application-level ok
// flag.
func (r UpdateResult) Succeeded() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300 && r.OK
}

// SuccessMessage returns the server text or the generic success fallback.
func (r UpdateResult) SuccessMessage() string {
	if r.Message != "" {
		return r.Message
	}
	return MessageAdded
}

// FailureMessage returns the server text or the generic failure fallback.
func (r UpdateResult) FailureMessage() string {
	if r.Message != "" {
		return r.Message
	}
	return MessageFailed
}

// Count returns a pointer to n, for building results.
func Count(n int) *int {
	return &n
}
