// Package delivery sends composed newsletters over an email API.
package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/creatorpulse/server/internal/config"
)

// Message is a single outbound email
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message to one recipient
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client talks to a Resend-compatible email endpoint
type Client struct {
	endpoint   string
	apiKey     string
	from       string
	httpClient *http.Client
}

// NewClient builds an email client from configuration
func NewClient(cfg config.EmailConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	from := cfg.SenderEmail
	if cfg.SenderName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.SenderName, cfg.SenderEmail)
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send posts the message to the email endpoint. Any non-2xx response is an
// error; the caller decides whether a failed recipient blocks the send.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.endpoint == "" || c.apiKey == "" {
		return fmt.Errorf("email delivery is not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("message has no recipient")
	}

	payload := sendRequest{
		From:    c.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	return nil
}
