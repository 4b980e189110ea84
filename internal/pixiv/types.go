// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package pixiv

import (
	"fmt"

	"github.com/Roast-2007/morfonica/internal/models"
)

// SearchTarget selects how the search keyword is matched.
type SearchTarget string

// Search target modes accepted by /v1/search/illust.
const (
	TargetPartialMatchTags SearchTarget = "partial_match_for_tags"
	TargetExactMatchTags   SearchTarget = "exact_match_for_tags"
	TargetTitleAndCaption  SearchTarget = "title_and_caption"
	TargetKeyword          SearchTarget = "keyword"
)

// Valid reports whether the target is a known search mode.
func (t SearchTarget) Valid() bool {
	switch t {
	case TargetPartialMatchTags, TargetExactMatchTags, TargetTitleAndCaption, TargetKeyword:
		return true
	}
	return false
}

// SearchSort selects the result ordering.
type SearchSort string

// Sort modes accepted by /v1/search/illust.
const (
	SortPopularDesc SearchSort = "popular_desc"
	SortDateDesc    SearchSort = "date_desc"
)

// Valid reports whether the sort is a known mode.
func (s SearchSort) Valid() bool {
	return s == SortPopularDesc || s == SortDateDesc
}

// SearchDuration restricts popularity sorting to a trailing time window.
// Empty means no restriction.
type SearchDuration string

// Duration qualifiers accepted by /v1/search/illust.
const (
	DurationNone      SearchDuration = ""
	DurationLastDay   SearchDuration = "within_last_day"
	DurationLastWeek  SearchDuration = "within_last_week"
	DurationLastMonth SearchDuration = "within_last_month"
)

// Valid reports whether the duration is a known qualifier.
func (d SearchDuration) Valid() bool {
	switch d {
	case DurationNone, DurationLastDay, DurationLastWeek, DurationLastMonth:
		return true
	}
	return false
}

// SearchParams are the query parameters for one search stream.
type SearchParams struct {
	Word     string
	Target   SearchTarget
	Sort     SearchSort
	Duration SearchDuration
}

// Validate checks the parameter combination before any remote call.
func (p SearchParams) Validate() error {
	if p.Word == "" {
		return fmt.Errorf("search keyword must not be empty")
	}
	if !p.Target.Valid() {
		return fmt.Errorf("unknown search target %q", p.Target)
	}
	if !p.Sort.Valid() {
		return fmt.Errorf("unknown search sort %q", p.Sort)
	}
	if !p.Duration.Valid() {
		return fmt.Errorf("unknown search duration %q", p.Duration)
	}
	if p.Duration != DurationNone && p.Sort != SortPopularDesc {
		return fmt.Errorf("duration qualifier requires popularity sort")
	}
	return nil
}

// RankingMode selects a ranking board.
type RankingMode string

// Ranking modes accepted by /v1/illust/ranking.
const (
	RankingDay      RankingMode = "day"
	RankingWeek     RankingMode = "week"
	RankingMonth    RankingMode = "month"
	RankingOriginal RankingMode = "week_original"
	RankingRookie   RankingMode = "week_rookie"
	RankingMale     RankingMode = "day_male"
	RankingFemale   RankingMode = "day_female"
	RankingAI       RankingMode = "day_ai"
	RankingDayR18   RankingMode = "day_r18"
	RankingWeekR18  RankingMode = "week_r18"
)

// Valid reports whether the mode is a known ranking board.
func (m RankingMode) Valid() bool {
	switch m {
	case RankingDay, RankingWeek, RankingMonth, RankingOriginal, RankingRookie,
		RankingMale, RankingFemale, RankingAI, RankingDayR18, RankingWeekR18:
		return true
	}
	return false
}

// Adult reports whether the mode is an adult-content-specific board.
// These boards require the allow-adult policy flag and are exempt from
// content filtering (the board itself is the scope).
func (m RankingMode) Adult() bool {
	return m == RankingDayR18 || m == RankingWeekR18
}

// Page is one batch of illustrations plus the opaque continuation URL.
// An empty NextURL means the remote has no further pages.
type Page struct {
	Illusts []models.Illust
	NextURL string
}
