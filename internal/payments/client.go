// Package payments is a thin client for the payments provider. It creates
// checkout sessions and relays the provider's response; subscription state
// itself lives with the provider.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voicebridge-systems/voicebridge/internal/apierr"
	"github.com/voicebridge-systems/voicebridge/internal/metrics"
)

// Config holds the provider endpoint and credentials.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	SuccessURL string
	CancelURL  string
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New constructs a Client with a bounded request timeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CheckoutParams identifies what the user is buying.
type CheckoutParams struct {
	PriceID  string
	UserID   string
	Email    string
	PlanName string
}

// CheckoutSession is the provider's hosted-checkout handle.
type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// CreateCheckoutSession opens a hosted checkout session for the user.
// The user ID rides along as the client reference so the completion
// webhook can be tied back to the account.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	if c == nil {
		return nil, fmt.Errorf("payments client not configured")
	}

	reqBody := map[string]interface{}{
		"mode":                "subscription",
		"client_reference_id": params.UserID,
		"customer_email":      params.Email,
		"success_url":         c.cfg.SuccessURL,
		"cancel_url":          c.cfg.CancelURL,
		"line_items": []map[string]interface{}{
			{"price": params.PriceID, "quantity": 1},
		},
		"metadata": map[string]string{
			"user_id":   params.UserID,
			"plan_name": params.PlanName,
		},
	}

	var resp struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.post(ctx, "/v1/checkout/sessions", "create_checkout_session", reqBody, &resp); err != nil {
		return nil, err
	}

	return &CheckoutSession{ID: resp.ID, URL: resp.URL}, nil
}

func (c *Client) post(ctx context.Context, path, operation string, body, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.httpClient.Do(request)
	metrics.UpstreamDuration.WithLabelValues("payments", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("payments", operation).Inc()
		return apierr.Upstream("payments provider unreachable", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamErrors.WithLabelValues("payments", operation).Inc()
		detail := readErrorDetail(resp.Body)
		return apierr.Upstream(
			fmt.Sprintf("payments provider returned status %d", resp.StatusCode),
			detail,
			nil,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierr.Upstream("payments provider returned malformed response", "", err)
	}
	return nil
}

// readErrorDetail pulls the provider's diagnostic text out of a failure
// body, falling back to the raw (truncated) body.
func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var wrapped struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &wrapped) == nil {
		if wrapped.Error.Message != "" {
			return wrapped.Error.Message
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
