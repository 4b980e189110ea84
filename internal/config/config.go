// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// Package config holds application configuration loaded with Koanf v2.
//
// Configuration is layered, highest priority last:
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml)
//  3. Environment variables (PIXIV_REFRESH_TOKEN, BOT_PAGE_SIZE, ...)
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Pixiv    PixivConfig    `koanf:"pixiv"`
	Bot      BotConfig      `koanf:"bot"`
	Filter   FilterConfig   `koanf:"filter"`
	Database DatabaseConfig `koanf:"database"`
	Delivery DeliveryConfig `koanf:"delivery"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// PixivConfig holds credentials and tuning for the Pixiv app-API client.
//
// Environment Variables:
//   - PIXIV_REFRESH_TOKEN: OAuth refresh token (required)
//   - PIXIV_API_URL / PIXIV_AUTH_URL: endpoint overrides, mainly for tests
type PixivConfig struct {
	// RefreshToken is the OAuth refresh token used to obtain access tokens.
	// Required; the service will not start without it.
	RefreshToken string `koanf:"refresh_token"`

	// APIURL is the app-API base URL.
	APIURL string `koanf:"api_url"`

	// AuthURL is the OAuth token endpoint base URL.
	AuthURL string `koanf:"auth_url"`

	// Timeout bounds each remote HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond throttles outbound API calls. The public API bans
	// aggressive clients, so keep this conservative.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the rate limiter burst size.
	Burst int `koanf:"burst"`
}

// BotConfig holds session-layer behavior settings.
//
// Environment Variables:
//   - BOT_PAGE_SIZE: illustrations per page, 1-10 (default: 3)
//   - BOT_SESSION_TTL: idle time before a session is expired (default: 30m)
type BotConfig struct {
	// PageSize is the number of illustrations delivered per page (1-10).
	PageSize int `koanf:"page_size"`

	// SessionTTL expires browse sessions idle for longer than this.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// JanitorInterval is how often expired sessions are swept.
	JanitorInterval time.Duration `koanf:"janitor_interval"`
}

// FilterConfig is the content-filtering policy. Immutable for the process
// lifetime; changing it requires a restart.
type FilterConfig struct {
	// AllowAdult permits R-18 flagged or tagged works (default: false).
	AllowAdult bool `koanf:"allow_adult"`

	// AllowAI permits AI-generated works (default: false).
	AllowAI bool `koanf:"allow_ai"`
}

// DatabaseConfig configures the BadgerDB favorites store.
type DatabaseConfig struct {
	// Path is the BadgerDB directory.
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Test use only.
	InMemory bool `koanf:"in_memory"`
}

// DeliveryConfig configures the outbound message webhook.
//
// Environment Variables:
//   - DELIVERY_WEBHOOK_URL: endpoint that relays messages to the chat platform
type DeliveryConfig struct {
	// WebhookURL receives one JSON message per delivered illustration.
	// Required.
	WebhookURL string `koanf:"webhook_url"`

	// Timeout bounds each delivery POST.
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig configures the inbound HTTP command API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// RateLimitReqs requests per RateLimitWindow per client IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validatePixiv(); err != nil {
		return err
	}
	if err := c.validateBot(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePixiv() error {
	if c.Pixiv.RefreshToken == "" {
		return fmt.Errorf("PIXIV_REFRESH_TOKEN is required")
	}
	if err := validateHTTPURL(c.Pixiv.APIURL, "PIXIV_API_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.Pixiv.AuthURL, "PIXIV_AUTH_URL"); err != nil {
		return err
	}
	if c.Pixiv.Timeout <= 0 {
		return fmt.Errorf("PIXIV_TIMEOUT must be positive")
	}
	if c.Pixiv.RequestsPerSecond <= 0 {
		return fmt.Errorf("PIXIV_REQUESTS_PER_SECOND must be positive")
	}
	if c.Pixiv.Burst < 1 {
		return fmt.Errorf("PIXIV_BURST must be at least 1")
	}
	return nil
}

func (c *Config) validateBot() error {
	if c.Bot.PageSize < 1 || c.Bot.PageSize > 10 {
		return fmt.Errorf("BOT_PAGE_SIZE must be between 1 and 10")
	}
	if c.Bot.SessionTTL <= 0 {
		return fmt.Errorf("BOT_SESSION_TTL must be positive")
	}
	if c.Bot.JanitorInterval <= 0 {
		return fmt.Errorf("BOT_JANITOR_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if c.Delivery.WebhookURL == "" {
		return fmt.Errorf("DELIVERY_WEBHOOK_URL is required")
	}
	if err := validateHTTPURL(c.Delivery.WebhookURL, "DELIVERY_WEBHOOK_URL"); err != nil {
		return err
	}
	if c.Delivery.Timeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive")
	}
	if c.Server.RateLimitReqs < 1 {
		return fmt.Errorf("SERVER_RATE_LIMIT_REQS must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal/disabled, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL checks that value parses as an absolute http(s) URL.
func validateHTTPURL(value, name string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", name, value)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", name, value)
	}
	return nil
}
