// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package browse

import (
	"context"
	"time"

	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/metrics"
)

// Janitor periodically removes sessions that have been idle longer than
// the configured TTL, keeping the per-user map bounded on busy
// platforms. It runs as a supervised service.
type Janitor struct {
	store    *Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewJanitor returns a janitor sweeping store every interval for
// sessions idle longer than ttl.
func NewJanitor(store *Store, ttl, interval time.Duration) *Janitor {
	return &Janitor{
		store:    store,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
	}
}

// Serve runs the sweep loop until the context is canceled. Implements
// suture.Service.
func (j *Janitor) Serve(ctx context.Context) error {
	logging.Info().
		Dur("ttl", j.ttl).
		Dur("interval", j.interval).
		Msg("session janitor started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("session janitor stopped")
			return ctx.Err()
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *Janitor) sweep() {
	expired := j.store.ExpireIdle(j.ttl, j.now())
	if expired > 0 {
		metrics.SessionsExpiredTotal.Add(float64(expired))
		logging.Debug().Int("expired", expired).Msg("idle sessions expired")
	}
}

// String names the service in supervisor logs.
func (j *Janitor) String() string {
	return "session-janitor"
}
