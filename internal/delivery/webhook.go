// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/Roast-2007/morfonica/internal/config"
	"github.com/Roast-2007/morfonica/internal/metrics"
)

// WebhookSender posts messages to the chat platform bridge endpoint.
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

// Ensure WebhookSender implements Sender.
var _ Sender = (*WebhookSender)(nil)

// NewWebhookSender creates a sender targeting the configured webhook.
func NewWebhookSender(cfg config.DeliveryConfig) *WebhookSender {
	return &WebhookSender{
		url:        cfg.WebhookURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Send posts one message. Any transport failure or non-2xx response is a
// delivery Error.
func (s *WebhookSender) Send(ctx context.Context, userKey string, parts []Part) error {
	payload, err := json.Marshal(Message{UserKey: userKey, Parts: parts})
	if err != nil {
		return &Error{Err: fmt.Errorf("marshal message: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return &Error{Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.DeliveryErrorsTotal.Inc()
		return &Error{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		metrics.DeliveryErrorsTotal.Inc()
		return &Error{Err: fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(body))}
	}

	metrics.DeliveredItemsTotal.Inc()
	return nil
}
