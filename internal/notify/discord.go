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
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DiscordNotifier posts notifications to a Discord webhook as embeds.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
	enabled    bool
	limiter    *rate.Limiter
	mu         sync.RWMutex
}

// DiscordConfig configures the Discord notifier.
type DiscordConfig struct {
	WebhookURL  string `json:"webhook_url" koanf:"webhook_url"`
	Enabled     bool   `json:"enabled" koanf:"enabled"`
	RateLimitMs int    `json:"rate_limit_ms" koanf:"rate_limit_ms"`
}

// NewDiscordNotifier creates a Discord notifier.
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	interval := time.Duration(config.RateLimitMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return &DiscordNotifier{
		webhookURL: config.WebhookURL,
		enabled:    config.Enabled,
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name returns the notifier name.
func (n *DiscordNotifier) Name() string {
	return "discord"
}

// Enabled returns whether this notifier is enabled.
func (n *DiscordNotifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled && n.webhookURL != ""
}

// SetEnabled enables or disables the notifier.
func (n *DiscordNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Send delivers the notification to Discord.
func (n *DiscordNotifier) Send(ctx context.Context, notification *Notification) error {
	n.mu.RLock()
	if !n.enabled || n.webhookURL == "" {
		n.mu.RUnlock()
		return nil
	}
	webhookURL := n.webhookURL
	n.mu.RUnlock()

	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(discordWebhookPayload{
		Embeds: []discordEmbed{buildEmbed(notification)},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildEmbed(n *Notification) discordEmbed {
	fields := []discordEmbedField{
		{Name: "Position", Value: strconv.Itoa(n.Position), Inline: true},
	}
	if n.ETA != "" {
		fields = append(fields, discordEmbedField{Name: "ETA", Value: n.ETA, Inline: true})
	}
	if !n.FinishTime.IsZero() {
		fields = append(fields, discordEmbedField{
			Name:   "Expected",
			Value:  "<t:" + strconv.FormatInt(n.FinishTime.Unix(), 10) + ":t>",
			Inline: true,
		})
	}

	return discordEmbed{
		Title:       n.Title,
		Description: n.Message,
		Color:       kindColor(n.Kind),
		Timestamp:   n.Time.Format(time.RFC3339),
		Fields:      fields,
		Footer:      discordEmbedFooter{Text: "Queuewatch"},
	}
}

func kindColor(kind Kind) int {
	switch kind {
	case KindQueueThreshold:
		return 0xFFA500 // Orange
	case KindQueueFinished:
		return 0x2ECC71 // Green
	case KindStopped:
		return 0xFF0000 // Red
	default:
		return 0x95A5A6 // Gray
	}
}

type discordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}
