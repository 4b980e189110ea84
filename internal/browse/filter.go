// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

/*
filter.go - Content filter policy

Drops adult-restricted and AI-generated illustrations from a batch
according to the configured policy. An item is dropped either by its
explicit restriction/AI flag or by a marker substring in its tags, since
a fair share of uploads carry the marker only as a tag.

Filtering preserves batch order and never mutates the input slice.
*/

package browse

import (
	"strings"

	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/metrics"
	"github.com/Roast-2007/morfonica/internal/models"
)

// Policy controls which content classes pass the filter.
// Both flags default to off: restricted content is opt-in.
type Policy struct {
	AllowAdult bool
	AllowAI    bool
}

// Tag markers matched case-insensitively against tag names and their
// translations.
var (
	adultTagMarkers = []string{"r-18"}
	aiTagMarkers    = []string{"ai生成", "ai-generated"}
)

// Filter returns the subsequence of items permitted by the policy,
// in the original order. Dropped counts are recorded per reason.
func Filter(items []models.Illust, policy Policy) []models.Illust {
	if policy.AllowAdult && policy.AllowAI {
		return items
	}

	kept := make([]models.Illust, 0, len(items))
	var droppedAdult, droppedAI int

	for i := range items {
		switch {
		case !policy.AllowAdult && isAdult(&items[i]):
			droppedAdult++
		case !policy.AllowAI && isAIGenerated(&items[i]):
			droppedAI++
		default:
			kept = append(kept, items[i])
		}
	}

	if droppedAdult > 0 {
		metrics.FilteredItemsTotal.WithLabelValues("adult").Add(float64(droppedAdult))
	}
	if droppedAI > 0 {
		metrics.FilteredItemsTotal.WithLabelValues("ai").Add(float64(droppedAI))
	}
	if droppedAdult > 0 || droppedAI > 0 {
		logging.Debug().
			Int("dropped_adult", droppedAdult).
			Int("dropped_ai", droppedAI).
			Int("kept", len(kept)).
			Msg("content filter dropped items")
	}

	return kept
}

func isAdult(illust *models.Illust) bool {
	if illust.Restricted() {
		return true
	}
	return hasTagMarker(illust, adultTagMarkers)
}

func isAIGenerated(illust *models.Illust) bool {
	if illust.AIGenerated() {
		return true
	}
	return hasTagMarker(illust, aiTagMarkers)
}

func hasTagMarker(illust *models.Illust, markers []string) bool {
	for _, tag := range illust.Tags {
		name := strings.ToLower(tag.Name)
		translated := strings.ToLower(tag.TranslatedName)
		for _, marker := range markers {
			if strings.Contains(name, marker) || strings.Contains(translated, marker) {
				return true
			}
		}
	}
	return false
}
