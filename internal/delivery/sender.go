// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// Package delivery sends browse results to the chat platform bridge.
//
// The core invokes Send once per illustration, sequentially and in batch
// order: multi-page works are numbered in the UI, so delivery order must be
// deterministic. The default implementation posts one JSON message per
// illustration to a configured webhook.
package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/Roast-2007/morfonica/internal/models"
)

// Part is one component of an outbound message.
type Part struct {
	Type string `json:"type"` // "text" or "image"
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Message is the webhook payload for one illustration.
type Message struct {
	UserKey string `json:"user_key"`
	Parts   []Part `json:"parts"`
}

// Sender delivers one message to a user. Implementations must return an
// *Error (or a wrapped one) on failure so the command layer can surface a
// delivery-specific notice.
type Sender interface {
	Send(ctx context.Context, userKey string, parts []Part) error
}

// Error indicates an outbound delivery failure. Delivery is at-most-once:
// a failure mid-batch is reported, not retried.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IllustParts renders one illustration as ordered message parts: a caption
// text part followed by one image part per page, in page order.
func IllustParts(illust *models.Illust) []Part {
	var caption strings.Builder
	fmt.Fprintf(&caption, "%s / %s\n", illust.Title, illust.User.Name)
	caption.WriteString(illust.ArtworkURL())
	if len(illust.Tags) > 0 {
		names := make([]string, 0, len(illust.Tags))
		for _, tag := range illust.Tags {
			names = append(names, tag.Name)
		}
		fmt.Fprintf(&caption, "\n#%s", strings.Join(names, " #"))
	}

	parts := []Part{{Type: "text", Text: caption.String()}}
	for _, url := range illust.PageImageURLs() {
		parts = append(parts, Part{Type: "image", URL: url})
	}
	return parts
}
