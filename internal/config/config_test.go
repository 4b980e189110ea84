// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a default config with required secrets filled in.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Pixiv.RefreshToken = "refresh-token-value"
	cfg.Delivery.WebhookURL = "http://localhost:9000/deliver"
	return cfg
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing refresh token",
			mutate:  func(c *Config) { c.Pixiv.RefreshToken = "" },
			wantErr: "PIXIV_REFRESH_TOKEN",
		},
		{
			name:    "missing webhook url",
			mutate:  func(c *Config) { c.Delivery.WebhookURL = "" },
			wantErr: "DELIVERY_WEBHOOK_URL",
		},
		{
			name:    "webhook url without scheme",
			mutate:  func(c *Config) { c.Delivery.WebhookURL = "localhost:9000" },
			wantErr: "DELIVERY_WEBHOOK_URL",
		},
		{
			name:    "page size zero",
			mutate:  func(c *Config) { c.Bot.PageSize = 0 },
			wantErr: "BOT_PAGE_SIZE",
		},
		{
			name:    "page size over limit",
			mutate:  func(c *Config) { c.Bot.PageSize = 11 },
			wantErr: "BOT_PAGE_SIZE",
		},
		{
			name:    "negative session ttl",
			mutate:  func(c *Config) { c.Bot.SessionTTL = -time.Minute },
			wantErr: "BOT_SESSION_TTL",
		},
		{
			name:    "invalid api url",
			mutate:  func(c *Config) { c.Pixiv.APIURL = "ftp://example.com" },
			wantErr: "PIXIV_API_URL",
		},
		{
			name:    "invalid server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "SERVER_PORT",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Bot.PageSize != 3 {
		t.Errorf("default page size = %d, want 3", cfg.Bot.PageSize)
	}
	if cfg.Filter.AllowAdult {
		t.Error("AllowAdult should default to false")
	}
	if cfg.Filter.AllowAI {
		t.Error("AllowAI should default to false")
	}
	if cfg.Bot.SessionTTL != 30*time.Minute {
		t.Errorf("default session TTL = %v, want 30m", cfg.Bot.SessionTTL)
	}
	if cfg.Pixiv.APIURL != "https://app-api.pixiv.net" {
		t.Errorf("unexpected default API URL %q", cfg.Pixiv.APIURL)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"PIXIV_REFRESH_TOKEN", "pixiv.refresh_token"},
		{"BOT_PAGE_SIZE", "bot.page_size"},
		{"FILTER_ALLOW_ADULT", "filter.allow_adult"},
		{"FILTER_ALLOW_AI", "filter.allow_ai"},
		{"LOG_LEVEL", "logging.level"},
		{"SERVER_CORS_ORIGINS", "server.cors_origins"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PIXIV_REFRESH_TOKEN", "env-token")
	t.Setenv("DELIVERY_WEBHOOK_URL", "http://localhost:9000/hook")
	t.Setenv("BOT_PAGE_SIZE", "5")
	t.Setenv("FILTER_ALLOW_ADULT", "true")
	t.Setenv("SERVER_CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Pixiv.RefreshToken != "env-token" {
		t.Errorf("refresh token = %q, want env-token", cfg.Pixiv.RefreshToken)
	}
	if cfg.Bot.PageSize != 5 {
		t.Errorf("page size = %d, want 5", cfg.Bot.PageSize)
	}
	if !cfg.Filter.AllowAdult {
		t.Error("AllowAdult should be true from env")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != "http://a.example" {
		t.Errorf("CORS origins = %v, want two trimmed entries", cfg.Server.CORSOrigins)
	}
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("PIXIV_REFRESH_TOKEN", "env-token")
	t.Setenv("DELIVERY_WEBHOOK_URL", "http://localhost:9000/hook")
	t.Setenv("BOT_PAGE_SIZE", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected validation failure for BOT_PAGE_SIZE=99")
	}
}
