// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// WebhookNotifier posts notifications to a generic webhook endpoint.
type WebhookNotifier struct {
	webhookURL string
	headers    map[string]string
	client     *http.Client
	enabled    bool
	limiter    *rate.Limiter
	mu         sync.RWMutex
}

// WebhookConfig configures the generic webhook notifier.
type WebhookConfig struct {
	WebhookURL  string            `json:"webhook_url" koanf:"webhook_url"`
	Headers     map[string]string `json:"headers,omitempty" koanf:"headers"`
	Enabled     bool              `json:"enabled" koanf:"enabled"`
	RateLimitMs int               `json:"rate_limit_ms" koanf:"rate_limit_ms"`
}

// WebhookPayload is the JSON body sent to the endpoint.
type WebhookPayload struct {
	Notification *Notification `json:"notification"`
	EventType    string        `json:"event_type"`
	Timestamp    time.Time     `json:"timestamp"`
	Source       string        `json:"source"`
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	interval := time.Duration(config.RateLimitMs) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}

	return &WebhookNotifier{
		webhookURL: config.WebhookURL,
		headers:    headers,
		enabled:    config.Enabled,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the notifier name.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled returns whether this notifier is enabled.
func (n *WebhookNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.webhookURL != ""
}

// SetEnabled enables or disables the notifier.
func (n *WebhookNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Send posts the notification.
func (n *WebhookNotifier) Send(ctx context.Context, notification *Notification) error {
	n.mu.RLock()
	if !n.enabled || n.webhookURL == "" {
		n.mu.RUnlock()
		return nil
	}
	webhookURL := n.webhookURL
	headers := make(map[string]string, len(n.headers))
	for k, v := range n.headers {
		headers[k] = v
	}
	n.mu.RUnlock()

	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(WebhookPayload{
		Notification: notification,
		EventType:    string(notification.Kind),
		Timestamp:    time.Now(),
		Source:       "queuewatch",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
