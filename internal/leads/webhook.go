package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultWebhookTimeout bounds a single webhook delivery.
const DefaultWebhookTimeout = 2500 * time.Millisecond

type webhookPayload struct {
	Timestamp            string `json:"timestamp"`
	Source               string `json:"source"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Phone                string `json:"phone"`
	PortfolioDescription string `json:"portfolioDescription"`
	IP                   string `json:"ip"`
	UserAgent            string `json:"userAgent"`
	Referer              string `json:"referer"`
}

// WebhookSink posts leads as JSON to a spreadsheet webhook.
type WebhookSink struct {
	url     string
	timeout time.Duration
	client  *http.Client
}

// NewWebhookSink returns nil when url is blank.
func NewWebhookSink(url string, timeout time.Duration, client *http.Client) *WebhookSink {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{url: url, timeout: timeout, client: client}
}

func (w *WebhookSink) Send(ctx context.Context, lead Lead) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	body, err := json.Marshal(webhookPayload{
		Timestamp:            lead.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Source:               lead.Source,
		Name:                 lead.Name,
		Email:                lead.Email,
		Phone:                lead.Phone,
		PortfolioDescription: lead.PortfolioDescription,
		IP:                   lead.Meta.IP,
		UserAgent:            lead.Meta.UserAgent,
		Referer:              lead.Meta.Referer,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if msg := strings.TrimSpace(string(text)); msg != "" {
			return errors.New(msg)
		}
		return fmt.Errorf("Google Sheets webhook failed (%d).", resp.StatusCode)
	}
	return nil
}
