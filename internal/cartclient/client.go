// Package cartclient talks to the storefront's cart endpoint under the
// page's existing session.
package cartclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/domain/cart"
)

// ErrTransport wraps every failure that prevented a well-formed answer:
// network errors, unreadable bodies, non-JSON replies.
var ErrTransport = errors.New("cart request failed")

const (
	addToCartPath = "/customer/add_to_cart/"
	maxBodyBytes  = 1 << 20
)

// HTTPClient builds the session client. jar carries the session cookie;
// redirects leaving origin are not followed. A zero timeout leaves request
// duration to the transport defaults.
func HTTPClient(jar http.CookieJar, timeout time.Duration, origin *url.URL) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:       timeout,
		Transport:     transport,
		Jar:           jar,
		CheckRedirect: sameOrigin(origin),
	}
}

func sameOrigin(origin *url.URL) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		if origin != nil && (req.URL.Scheme != origin.Scheme || req.URL.Host != origin.Host) {
			return http.ErrUseLastResponse
		}
		return nil
	}
}

// Client issues add-to-cart requests.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for the storefront at baseURL.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = HTTPClient(nil, 0, base)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:       base,
		httpClient: httpClient,
		logger:     logger.Named("cartclient"),
	}, nil
}

// AddToCartURL is the endpoint for req under base.
func AddToCartURL(base *url.URL, req cart.ItemRequest) string {
	u := base.ResolveReference(&url.URL{Path: addToCartPath + req.ItemID})
	u.RawPath = addToCartPath + url.PathEscape(req.ItemID)
	u.RawQuery = url.Values{"quantity": {strconv.Itoa(req.Quantity)}}.Encode()
	return u.String()
}

// URL returns the endpoint for req.
func (c *Client) URL(req cart.ItemRequest) string {
	return AddToCartURL(c.base, req)
}

type addToCartResponse struct {
	OK        bool   `json:"ok"`
	CartCount *int   `json:"cart_count"`
	Message   string `json:"message"`
}

// AddToCart sends req as a programmatic call and decodes the JSON answer.
// Any status with a JSON body is a result; everything else is ErrTransport.
func (c *Client) AddToCart(ctx context.Context, req cart.ItemRequest) (cart.UpdateResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(req), nil)
	if err != nil {
		return cart.UpdateResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return cart.UpdateResult{}, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return cart.UpdateResult{}, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	var decoded addToCartResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return cart.UpdateResult{}, fmt.Errorf("%w: status %d: decode body: %v", ErrTransport, resp.StatusCode, err)
	}

	c.logger.Debug("add to cart answered",
		zap.String("item_id", req.ItemID),
		zap.Int("quantity", req.Quantity),
		zap.Int("status", resp.StatusCode),
		zap.Bool("ok", decoded.OK),
	)

	return cart.UpdateResult{
		StatusCode: resp.StatusCode,
		OK:         decoded.OK,
		CartCount:  decoded.CartCount,
		Message:    decoded.Message,
	}, nil
}
