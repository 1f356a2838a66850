// Queuewatch - Queue Position Tracking and ETA Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/queuewatch

package config

import (
	"errors"
	"fmt"

	"github.com/tomtom215/queuewatch/internal/validation"
)

// Validate runs the struct tag rules and then the cross-field checks.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	return errors.Join(
		c.validateHistory(),
		c.validateNotify(),
		c.validateNATS(),
		c.validateSecurity(),
	)
}

func (c *Config) validateHistory() error {
	if c.History.Backend != "memory" && c.History.Path == "" {
		return fmt.Errorf("history.path is required for the %s backend", c.History.Backend)
	}
	return nil
}

func (c *Config) validateNotify() error {
	var errs []error
	if c.Notify.WebhookEnabled && !validation.HasScheme(c.Notify.WebhookURL, "http", "https") {
		errs = append(errs, fmt.Errorf("notify.webhook_url must be an http(s) URL when webhooks are enabled"))
	}
	if c.Notify.DiscordEnabled && !validation.HasScheme(c.Notify.DiscordWebhookURL, "https") {
		errs = append(errs, fmt.Errorf("notify.discord_webhook_url must be an https URL when Discord is enabled"))
	}
	return errors.Join(errs...)
}

// validateNATS only checks the client URL when connecting to an external
// server; the embedded server supplies its own URL.
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled || c.NATS.EmbeddedServer {
		return nil
	}
	if !validation.HasScheme(c.NATS.URL, "nats", "tls", "ws", "wss") {
		return fmt.Errorf("nats.url must use the nats, tls, ws or wss scheme, got %q", c.NATS.URL)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.IsProduction() && c.Server.Enabled && c.Security.APIToken == "" {
		return fmt.Errorf("security.api_token is required in production")
	}
	return nil
}

// ShouldWarnAboutCORS reports a wildcard CORS origin outside development.
func (c *Config) ShouldWarnAboutCORS() bool {
	if c.Server.Environment == "development" {
		return false
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}
