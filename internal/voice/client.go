// Package voice is a thin client for the conversational voice/chat AI
// provider: outbound call initiation and text chat relay.
package voice

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

// Config holds the provider endpoint, credentials, and the agent identity
// the relay speaks as.
type Config struct {
	BaseURL     string
	APIKey      string
	AgentID     string
	PhoneNumber string
	Timeout     time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New constructs a Client with a bounded request timeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// CallParams describes an outbound call request.
type CallParams struct {
	PhoneNumber string
	UserID      string
}

// Call is the provider's handle for an initiated call.
type Call struct {
	ID     string `json:"call_id"`
	Status string `json:"status"`
}

// StartCall asks the provider to place an outbound call from the
// configured agent to the given number.
func (c *Client) StartCall(ctx context.Context, params CallParams) (*Call, error) {
	if c == nil {
		return nil, fmt.Errorf("voice client not configured")
	}

	reqBody := map[string]interface{}{
		"agent_id":     c.cfg.AgentID,
		"phone_number": c.cfg.PhoneNumber,
		"customer": map[string]string{
			"number": params.PhoneNumber,
		},
		"metadata": map[string]string{
			"user_id": params.UserID,
		},
	}

	var resp struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/v1/calls", "start_call", reqBody, &resp); err != nil {
		return nil, err
	}
	return &Call{ID: resp.ID, Status: resp.Status}, nil
}

// ChatParams describes one chat turn to relay.
type ChatParams struct {
	Message     string
	UserID      string
	SessionID   string
	PhoneNumber string
}

// ChatReply is the agent's response to a relayed message.
type ChatReply struct {
	SessionID string `json:"session_id"`
	Output    string `json:"output"`
}

// SendChat relays one user message to the agent and returns its reply.
// SessionID threads a conversation across turns; empty starts a new one.
func (c *Client) SendChat(ctx context.Context, params ChatParams) (*ChatReply, error) {
	if c == nil {
		return nil, fmt.Errorf("voice client not configured")
	}

	reqBody := map[string]interface{}{
		"agent_id": c.cfg.AgentID,
		"input":    params.Message,
		"metadata": map[string]string{
			"user_id":      params.UserID,
			"phone_number": params.PhoneNumber,
		},
	}
	if params.SessionID != "" {
		reqBody["session_id"] = params.SessionID
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Output    string `json:"output"`
	}
	if err := c.post(ctx, "/v1/chat", "send_chat", reqBody, &resp); err != nil {
		return nil, err
	}
	return &ChatReply{SessionID: resp.SessionID, Output: resp.Output}, nil
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
	metrics.UpstreamDuration.WithLabelValues("voice", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("voice", operation).Inc()
		return apierr.Upstream("voice provider unreachable", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamErrors.WithLabelValues("voice", operation).Inc()
		detail := readErrorDetail(resp.Body)
		return apierr.Upstream(
			fmt.Sprintf("voice provider returned status %d", resp.StatusCode),
			detail,
			nil,
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierr.Upstream("voice provider returned malformed response", "", err)
	}
	return nil
}

func readErrorDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var wrapped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &wrapped) == nil {
		if wrapped.Error != "" {
			return wrapped.Error
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
