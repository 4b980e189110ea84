// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

/*
session.go - Browse session model

A Session is the per-user continuation state of one result stream. The
stream kind is fixed for the session's lifetime; starting a different
kind replaces the session wholesale. Remote-cursor kinds (search,
ranking, recommended) keep a numeric offset into the remote stream.
Local-slice kinds (author, favorites) materialize their full source at
session start and keep an offset into the captured list.
*/

package browse

import (
	"time"

	"github.com/Roast-2007/morfonica/internal/models"
	"github.com/Roast-2007/morfonica/internal/pixiv"
)

// Kind identifies the pagination source of a session. The set is closed;
// every dispatch site switches exhaustively over it.
type Kind int

const (
	KindSearch Kind = iota
	KindRanking
	KindRecommended
	KindAuthor
	KindFavorites
)

// String returns the kind name used in logs and API responses.
func (k Kind) String() string {
	switch k {
	case KindSearch:
		return "search"
	case KindRanking:
		return "ranking"
	case KindRecommended:
		return "recommended"
	case KindAuthor:
		return "author"
	case KindFavorites:
		return "favorites"
	default:
		return "unknown"
	}
}

// remote reports whether the kind pages through a remote cursor rather
// than a list materialized at session start.
func (k Kind) remote() bool {
	return k == KindSearch || k == KindRanking || k == KindRecommended
}

// Session is one user's active result stream. Values are stored by
// copy; the Store hands out and accepts whole Session values.
type Session struct {
	UserKey string
	Kind    Kind

	// Start parameters, one group per kind.
	Search      pixiv.SearchParams
	RankingMode pixiv.RankingMode
	AuthorID    int64

	// Materialized sources for local-slice kinds.
	Works       []models.Illust
	FavoriteIDs []int64

	// Offset is the continuation cursor: the remote stream offset for
	// remote kinds, the index into the materialized list otherwise.
	Offset int

	// LastShownID is the id of the last item actually delivered to the
	// user, or zero when nothing has been delivered yet.
	LastShownID int64

	// LastActive is updated on every command touching the session and
	// drives idle expiry.
	LastActive time.Time
}

// filterBypassed reports whether content filtering is skipped for this
// session. Adult-scoped ranking boards are explicitly requested, so the
// adult filter does not second-guess them.
func (s *Session) filterBypassed() bool {
	return s.Kind == KindRanking && s.RankingMode.Adult()
}
