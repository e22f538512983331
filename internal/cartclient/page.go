package cartclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/ec-storefront/internal/dom"
)

// FetchPage loads a storefront page under the session and parses it.
func (c *Client) FetchPage(ctx context.Context, path string) (*dom.Page, error) {
	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(b))
	}
	return dom.Parse(resp.Body)
}

// Navigate performs a full-page navigation to rawURL, the way a browser
// follows a plain link, and returns the final URL reached.
func (c *Client) Navigate(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	final := resp.Request.URL.String()
	c.logger.Info("navigated", zap.String("url", rawURL), zap.String("final_url", final), zap.Int("status", resp.StatusCode))
	if resp.StatusCode >= 400 {
		return final, fmt.Errorf("bad status %d", resp.StatusCode)
	}
	return final, nil
}

func (c *Client) get(ctx context.Context, ref string) (*http.Response, error) {
	u, err := c.base.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", ref, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return c.httpClient.Do(req)
}
