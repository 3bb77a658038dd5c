// Package mt5 provides a tick source backed by a MetaTrader 5 bridge
// gateway: a small HTTP sidecar running next to the terminal that exposes
// symbol availability and the latest tick.
package mt5

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/harune-dev/pipwatch/internal/logger"
	"github.com/harune-dev/pipwatch/internal/models"
)

// Client talks to the bridge gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// tickResponse is the bridge's latest-tick document. The bid side is the
// monitored price.
type tickResponse struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time"`
}

// NewClient creates a bridge client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Connect verifies the terminal is reachable and filters the requested
// symbols down to those the terminal can quote. Unavailable symbols are
// logged and dropped rather than treated as errors.
func (c *Client) Connect(ctx context.Context, symbols []string) ([]string, error) {
	if err := c.ping(ctx); err != nil {
		return nil, fmt.Errorf("terminal unreachable: %w", err)
	}

	var available []string
	for _, symbol := range symbols {
		ok, err := c.symbolAvailable(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to check symbol %s: %w", symbol, err)
		}
		if !ok {
			logger.Warn("Symbol %s not available at terminal, skipping", symbol)
			continue
		}
		available = append(available, symbol)
	}
	return available, nil
}

// CurrentPrice fetches the latest bid for a symbol. A symbol without a
// quote reports models.ErrPriceUnavailable.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	u, err := url.Parse(c.baseURL + "/tick")
	if err != nil {
		return 0, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("symbol", symbol)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tick: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, models.ErrPriceUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d from bridge", resp.StatusCode)
	}

	var tick tickResponse
	if err := json.NewDecoder(resp.Body).Decode(&tick); err != nil {
		return 0, fmt.Errorf("failed to decode tick: %w", err)
	}
	if tick.Bid <= 0 {
		return 0, models.ErrPriceUnavailable
	}
	return tick.Bid, nil
}

// Close releases the connection pool.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) symbolAvailable(ctx context.Context, symbol string) (bool, error) {
	u, err := url.Parse(c.baseURL + "/symbols/" + url.PathEscape(symbol))
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}
