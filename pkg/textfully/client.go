// Package textfully provides a client for the Textfully SMS API.
package textfully

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.textfully.dev/v1"

// Client sends SMS messages through Textfully.
type Client interface {
	SendMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)
}

// MessageRequest is the request body for POST /messages.
type MessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
	From string `json:"from,omitempty"`
}

// MessageResponse is the response from POST /messages.
type MessageResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithSender sets the sender ID applied when a request leaves From empty.
func WithSender(sender string) Option {
	return func(c *httpClient) {
		c.sender = sender
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	sender  string
	http    *http.Client
}

// NewClient creates a Textfully API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NormalizePhone strips whitespace and guarantees a leading "+" so numbers
// copied from the sheet in local notation still reach the API in E.164 form.
func NormalizePhone(phone string) string {
	phone = strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	if phone == "" {
		return ""
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}
	return phone
}

func (c *httpClient) SendMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	req.To = NormalizePhone(req.To)
	if req.To == "" {
		return nil, eris.New("textfully: missing destination number")
	}
	if req.From == "" {
		req.From = c.sender
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "textfully: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "textfully: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "textfully: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "textfully: read response")
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, eris.Errorf("textfully: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result MessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "textfully: unmarshal response")
	}

	return &result, nil
}
