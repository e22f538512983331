package cartclient

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/domain/cart"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL, nil, zap.NewNop())
	require.NoError(t, err)
	return client, srv
}

// ============================================
// AddToCart Tests
// ============================================

func TestClient_AddToCart_SendsProgrammaticRequest(t *testing.T) {
	var captured *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"cart_count":5,"message":"Added"}`))
	})

	result, err := client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "42", Quantity: 3})

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/customer/add_to_cart/42", captured.URL.Path)
	assert.Equal(t, "3", captured.URL.Query().Get("quantity"))
	assert.Equal(t, "XMLHttpRequest", captured.Header.Get("X-Requested-With"))
	assert.Equal(t, "application/json", captured.Header.Get("Accept"))

	assert.True(t, result.Succeeded())
	assert.Equal(t, http.StatusOK, result.StatusCode)
	require.NotNil(t, result.CartCount)
	assert.Equal(t, 5, *result.CartCount)
	assert.Equal(t, "Added", result.Message)
}

func TestClient_AddToCart_EscapesItemID(t *testing.T) {
	var rawPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawPath = r.URL.EscapedPath()
		w.Write([]byte(`{"ok":true}`))
	})

	_, err := client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "a/b c", Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, "/customer/add_to_cart/a%2Fb%20c", rawPath)
}

func TestClient_AddToCart_ApplicationFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"message":"Out of stock"}`))
	})

	result, err := client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "1", Quantity: 1})

	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Nil(t, result.CartCount)
	assert.Equal(t, "Out of stock", result.Message)
}

func TestClient_AddToCart_Non2xxWithJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":true,"message":"You can only order from one restaurant at a time"}`))
	})

	result, err := client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "1", Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, result.StatusCode)
	assert.False(t, result.Succeeded())
}

func TestClient_AddToCart_UnparsableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>Internal Server Error</html>`))
	})

	_, err := client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "1", Quantity: 1})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_AddToCart_NetworkError(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "1", Quantity: 1})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_AddToCart_UsesSessionCookie(t *testing.T) {
	var cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err == nil {
			cookie = c.Value
		}
		w.Write([]byte(`{"ok":true,"cart_count":1}`))
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	jar.SetCookies(base, []*http.Cookie{{Name: "session", Value: "abc123"}})

	client, err := New(srv.URL, HTTPClient(jar, 0, base), nil)
	require.NoError(t, err)

	_, err = client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "1", Quantity: 1})

	require.NoError(t, err)
	assert.Equal(t, "abc123", cookie)
}

func TestClient_AddToCart_DoesNotFollowCrossOriginRedirect(t *testing.T) {
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("cross-origin redirect was followed")
	}))
	defer other.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, other.URL+"/login", http.StatusFound)
	}))
	defer srv.Close()

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	client, err := New(srv.URL, HTTPClient(nil, 0, base), nil)
	require.NoError(t, err)

	_, err = client.AddToCart(context.Background(), cart.ItemRequest{ItemID: "1", Quantity: 1})

	assert.ErrorIs(t, err, ErrTransport)
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/relative", nil, nil)

	assert.Error(t, err)
}

// ============================================
// Page Tests
// ============================================

func TestClient_FetchPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customer/menu", r.URL.Path)
		w.Write([]byte(`<html><body><span id="cart-badge">2</span></body></html>`))
	})

	page, err := client.FetchPage(context.Background(), "/customer/menu")

	require.NoError(t, err)
	assert.Equal(t, "2", page.ByID("cart-badge").Text())
}

func TestClient_FetchPage_BadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	_, err := client.FetchPage(context.Background(), "/customer/menu")

	assert.Error(t, err)
}

func TestClient_Navigate_FollowsSameOriginRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/customer/add_to_cart/5", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/customer/menu", http.StatusFound)
	})
	mux.HandleFunc("/customer/menu", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := New(srv.URL, nil, nil)
	require.NoError(t, err)

	final, err := client.Navigate(context.Background(), client.URL(cart.ItemRequest{ItemID: "5", Quantity: 2}))

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/customer/menu", final)
}
