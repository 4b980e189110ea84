// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

/*
controller.go - Session controller

The controller is the state machine behind every browse command. Each
user key is either NoSession or Active(kind). A start command validates
its parameters, runs the kind's adapter with fresh state, filters and
delivers the first page, and writes a new session, replacing any
existing one wholesale. Advance re-invokes the stored kind's adapter
from the stored continuation and either delivers the next page or, on
exhaustion, deletes the session.

Delivery is strictly sequential within a batch and LastShownID only
ever advances to an id that was actually sent. Remote cursors advance
by the filtered item count of each fetch; materialized lists advance by
the number of entries consumed.
*/

package browse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Roast-2007/morfonica/internal/delivery"
	"github.com/Roast-2007/morfonica/internal/favorites"
	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/models"
	"github.com/Roast-2007/morfonica/internal/pixiv"
)

const (
	minPageSize     = 1
	maxPageSize     = 10
	defaultPageSize = 3
)

// Result is one delivered page. More hints that another advance command
// can yield further items. An empty Items with More set means every
// item of this page was filtered out; the stream itself continues.
type Result struct {
	Items []models.Illust
	More  bool
}

// Controller drives browse sessions. Safe for concurrent use across
// user keys; same-user concurrent commands resolve last-write-wins.
type Controller struct {
	api      pixiv.API
	store    *Store
	favs     favorites.Store
	sender   delivery.Sender
	policy   Policy
	pageSize int
	now      func() time.Time
}

// NewController wires the controller to its collaborators. pageSize is
// clamped to [1, 10]; zero selects the default of 3.
func NewController(api pixiv.API, store *Store, favs favorites.Store, sender delivery.Sender, policy Policy, pageSize int) *Controller {
	switch {
	case pageSize == 0:
		pageSize = defaultPageSize
	case pageSize < minPageSize:
		pageSize = minPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return &Controller{
		api:      api,
		store:    store,
		favs:     favs,
		sender:   sender,
		policy:   policy,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// StartSearch begins a keyword search stream.
func (c *Controller) StartSearch(ctx context.Context, userKey string, params pixiv.SearchParams) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.start(ctx, Session{UserKey: userKey, Kind: KindSearch, Search: params})
}

// StartRanking begins a ranking board stream. Adult-scoped modes are
// rejected before any remote call when the policy disallows them.
func (c *Controller) StartRanking(ctx context.Context, userKey string, mode pixiv.RankingMode) (*Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown ranking mode %q", mode)
	}
	if mode.Adult() && !c.policy.AllowAdult {
		return nil, ErrAdultContentDisabled
	}
	return c.start(ctx, Session{UserKey: userKey, Kind: KindRanking, RankingMode: mode})
}

// StartRecommended begins a personalized recommendation stream.
func (c *Controller) StartRecommended(ctx context.Context, userKey string) (*Result, error) {
	return c.start(ctx, Session{UserKey: userKey, Kind: KindRecommended})
}

// StartAuthor begins a stream over one author's works. The full works
// list is captured here; advancing only re-slices it.
func (c *Controller) StartAuthor(ctx context.Context, userKey string, authorID int64) (*Result, error) {
	page, err := c.api.UserIllusts(ctx, authorID, 0)
	if err != nil {
		return nil, err
	}
	return c.start(ctx, Session{
		UserKey:  userKey,
		Kind:     KindAuthor,
		AuthorID: authorID,
		Works:    page.Illusts,
	})
}

// StartFavorites begins a stream over the user's stored favorites, most
// recent first. With no stored favorites it returns an empty result
// without any detail lookups.
func (c *Controller) StartFavorites(ctx context.Context, userKey string) (*Result, error) {
	records, err := c.favs.List(ctx, userKey)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		c.store.Delete(userKey)
		return &Result{}, nil
	}

	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.IllustID
	}
	return c.start(ctx, Session{UserKey: userKey, Kind: KindFavorites, FavoriteIDs: ids})
}

// Advance delivers the next page of the user's active stream.
func (c *Controller) Advance(ctx context.Context, userKey string) (*Result, error) {
	sess, ok := c.store.Get(userKey)
	if !ok {
		return nil, ErrNoActiveSession
	}

	result, exhausted, err := c.step(ctx, &sess)
	c.commit(&sess, exhausted, err)
	if err != nil {
		return nil, err
	}
	if exhausted && len(result.Items) == 0 {
		return nil, ErrStreamExhausted
	}
	return result, nil
}

// Favorite records the last shown item as a favorite. Present records
// are left untouched and reported via ErrAlreadyFavorited. Returns the
// affected illustration id.
func (c *Controller) Favorite(ctx context.Context, userKey string) (int64, error) {
	sess, ok := c.store.Get(userKey)
	if !ok {
		return 0, ErrNoActiveSession
	}
	if sess.LastShownID == 0 {
		return 0, ErrNothingShown
	}

	exists, err := c.favs.Exists(ctx, userKey, sess.LastShownID)
	if err != nil {
		return 0, err
	}
	if exists {
		return sess.LastShownID, ErrAlreadyFavorited
	}
	if err := c.favs.Create(ctx, userKey, sess.LastShownID, c.now()); err != nil {
		return 0, err
	}

	sess.LastActive = c.now()
	c.store.Put(userKey, sess)
	return sess.LastShownID, nil
}

// ActiveSession returns the user's current session, if any.
func (c *Controller) ActiveSession(userKey string) (Session, bool) {
	return c.store.Get(userKey)
}

// start replaces any existing session for the user and delivers the
// first page. A source that is exhausted on its very first fetch leaves
// the user with no session.
func (c *Controller) start(ctx context.Context, sess Session) (*Result, error) {
	result, exhausted, err := c.step(ctx, &sess)
	c.commit(&sess, exhausted, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// step runs one fetch-filter-deliver cycle, mutating the session's
// cursor and LastShownID in place. It reports whether the source is
// exhausted. On a delivery error the session still reflects every item
// delivered before the failure.
func (c *Controller) step(ctx context.Context, sess *Session) (*Result, bool, error) {
	page, err := c.fetchNext(ctx, sess)
	if err != nil {
		return nil, false, err
	}

	filtered := page.items
	if !sess.filterBypassed() {
		filtered = Filter(filtered, c.policy)
	}

	// Remote cursors advance by the filtered count, materialized lists
	// by the entries consumed. A fully filtered remote page advances
	// past its raw entries so a retry reaches new ground.
	if sess.Kind.remote() {
		if advance := len(filtered); advance > 0 {
			sess.Offset += advance
		} else {
			sess.Offset += page.rawCount
		}
	} else {
		sess.Offset += page.rawCount
	}

	if len(filtered) > c.pageSize {
		filtered = filtered[:c.pageSize]
	}

	for i := range filtered {
		if err := c.sender.Send(ctx, sess.UserKey, delivery.IllustParts(&filtered[i])); err != nil {
			return nil, false, err
		}
		sess.LastShownID = filtered[i].ID
	}

	exhausted := page.rawCount == 0 && !page.hasMore
	return &Result{Items: filtered, More: page.hasMore}, exhausted, nil
}

// commit writes the session's post-step state back to the store.
// Exhaustion deletes the session. A failed fetch leaves the stored
// session untouched so the user can retry; a failed delivery persists
// the progress made before the failure.
func (c *Controller) commit(sess *Session, exhausted bool, err error) {
	if err != nil {
		var deliveryErr *delivery.Error
		if errors.As(err, &deliveryErr) {
			sess.LastActive = c.now()
			c.store.Put(sess.UserKey, *sess)
		}
		return
	}
	if exhausted {
		c.store.Delete(sess.UserKey)
		logging.Debug().
			Str("user_key", sess.UserKey).
			Str("kind", sess.Kind.String()).
			Msg("stream exhausted, session removed")
		return
	}
	sess.LastActive = c.now()
	c.store.Put(sess.UserKey, *sess)
}
