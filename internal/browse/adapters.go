// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

/*
adapters.go - Pagination source adapters

One fetch path per session kind behind a uniform contract: given the
session's continuation state, produce the next raw (unfiltered) batch
and whether the source has more. The kind set is closed, so dispatch is
a single exhaustive switch.

Remote kinds issue one API call per fetch. Author slices the works list
captured at session start and never calls the remote again. Favorites
slices the captured id list and resolves each id through an individual
detail lookup, skipping ids whose lookup fails.
*/

package browse

import (
	"context"
	"fmt"

	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/models"
)

// sourcePage is one raw batch from a pagination source, before the
// content filter runs.
type sourcePage struct {
	items []models.Illust

	// hasMore reports whether the source can yield further batches:
	// a remote continuation signal, or unconsumed materialized items.
	hasMore bool

	// rawCount is how many source entries this fetch consumed. For
	// favorites it counts ids, which can exceed len(items) when detail
	// lookups fail.
	rawCount int
}

// fetchNext produces the next raw batch for the session's kind. It does
// not advance the session offset; the controller owns cursor movement.
func (c *Controller) fetchNext(ctx context.Context, sess *Session) (sourcePage, error) {
	switch sess.Kind {
	case KindSearch:
		page, err := c.api.SearchIllusts(ctx, sess.Search, sess.Offset)
		if err != nil {
			return sourcePage{}, fmt.Errorf("search fetch: %w", err)
		}
		return sourcePage{items: page.Illusts, hasMore: page.NextURL != "", rawCount: len(page.Illusts)}, nil

	case KindRanking:
		page, err := c.api.Ranking(ctx, sess.RankingMode, sess.Offset)
		if err != nil {
			return sourcePage{}, fmt.Errorf("ranking fetch: %w", err)
		}
		return sourcePage{items: page.Illusts, hasMore: page.NextURL != "", rawCount: len(page.Illusts)}, nil

	case KindRecommended:
		page, err := c.api.Recommended(ctx, sess.Offset)
		if err != nil {
			return sourcePage{}, fmt.Errorf("recommended fetch: %w", err)
		}
		return sourcePage{items: page.Illusts, hasMore: page.NextURL != "", rawCount: len(page.Illusts)}, nil

	case KindAuthor:
		slice := sliceAt(sess.Works, sess.Offset, c.pageSize)
		return sourcePage{
			items:    slice,
			hasMore:  sess.Offset+len(slice) < len(sess.Works),
			rawCount: len(slice),
		}, nil

	case KindFavorites:
		ids := sliceAt(sess.FavoriteIDs, sess.Offset, c.pageSize)
		items := c.resolveFavorites(ctx, ids)
		return sourcePage{
			items:    items,
			hasMore:  sess.Offset+len(ids) < len(sess.FavoriteIDs),
			rawCount: len(ids),
		}, nil

	default:
		return sourcePage{}, fmt.Errorf("unknown session kind %d", sess.Kind)
	}
}

// sliceAt returns list[offset : offset+size], clamped to the list.
func sliceAt[T any](list []T, offset, size int) []T {
	if offset >= len(list) {
		return nil
	}
	end := min(offset+size, len(list))
	return list[offset:end]
}

// resolveFavorites looks up each id individually. A failed lookup is
// logged and skipped so one deleted or hidden work does not sink the
// whole page.
func (c *Controller) resolveFavorites(ctx context.Context, ids []int64) []models.Illust {
	items := make([]models.Illust, 0, len(ids))
	for _, id := range ids {
		illust, err := c.api.IllustDetail(ctx, id)
		if err != nil {
			logging.Warn().
				Err(err).
				Int64("illust_id", id).
				Msg("favorite detail lookup failed, skipping")
			continue
		}
		items = append(items, *illust)
	}
	return items
}
