// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

/*
handlers.go - browse command handlers

Each command endpoint decodes and validates its payload, invokes the
session controller, and renders the page (or the mapped error) in the
response envelope. Stream-exhaustion and already-favorited outcomes are
informational, not errors: they come back as successful envelopes with
the corresponding flag set.
*/

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Roast-2007/morfonica/internal/browse"
	"github.com/Roast-2007/morfonica/internal/favorites"
	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/metrics"
	"github.com/Roast-2007/morfonica/internal/models"
	"github.com/Roast-2007/morfonica/internal/pixiv"
)

// Handler carries the command endpoints' collaborators.
type Handler struct {
	controller *browse.Controller
	favs       favorites.Store
}

// NewHandler wires the handlers to the controller and favorites store.
func NewHandler(controller *browse.Controller, favs favorites.Store) *Handler {
	return &Handler{controller: controller, favs: favs}
}

// ItemView is the API rendering of one illustration.
type ItemView struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	AuthorID  int64    `json:"author_id"`
	PageCount int      `json:"page_count"`
	URL       string   `json:"url"`
	ImageURLs []string `json:"image_urls,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// PageView is the API rendering of one delivered page.
type PageView struct {
	Kind      string     `json:"kind"`
	Items     []ItemView `json:"items"`
	More      bool       `json:"more"`
	Exhausted bool       `json:"exhausted,omitempty"`
	Notice    string     `json:"notice,omitempty"`
}

// FavoriteView reports the outcome of a favorite command.
type FavoriteView struct {
	IllustID         int64  `json:"illust_id"`
	AlreadyFavorited bool   `json:"already_favorited"`
	Notice           string `json:"notice,omitempty"`
}

// SessionView is the API rendering of an active session.
type SessionView struct {
	Kind        string `json:"kind"`
	Offset      int    `json:"offset"`
	LastShownID int64  `json:"last_shown_id,omitempty"`
	LastActive  string `json:"last_active"`
}

// FavoriteRecordView is one stored favorite.
type FavoriteRecordView struct {
	IllustID  int64  `json:"illust_id"`
	CreatedAt string `json:"created_at"`
}

func itemView(illust *models.Illust) ItemView {
	tags := make([]string, len(illust.Tags))
	for i, tag := range illust.Tags {
		tags[i] = tag.Name
	}
	return ItemView{
		ID:        illust.ID,
		Title:     illust.Title,
		Author:    illust.User.Name,
		AuthorID:  illust.User.ID,
		PageCount: illust.PageCount,
		URL:       illust.ArtworkURL(),
		ImageURLs: illust.PageImageURLs(),
		Tags:      tags,
	}
}

func pageView(kind browse.Kind, result *browse.Result) PageView {
	items := make([]ItemView, len(result.Items))
	for i := range result.Items {
		items[i] = itemView(&result.Items[i])
	}
	view := PageView{Kind: kind.String(), Items: items, More: result.More}
	if len(items) == 0 {
		view.Notice = "No results this page."
	}
	return view
}

// Search handles POST /api/v1/commands/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("search", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	params := pixiv.SearchParams{
		Word:     req.Word,
		Target:   pixiv.SearchTarget(req.Target),
		Sort:     pixiv.SearchSort(req.Sort),
		Duration: pixiv.SearchDuration(req.Duration),
	}
	if params.Target == "" {
		params.Target = pixiv.TargetPartialMatchTags
	}
	if params.Sort == "" {
		params.Sort = pixiv.SortDateDesc
	}
	if err := params.Validate(); err != nil {
		metrics.RecordCommand("search", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	result, err := h.controller.StartSearch(r.Context(), req.UserKey, params)
	if err != nil {
		metrics.RecordCommand("search", "error")
		respondMappedError(w, r, err)
		return
	}
	metrics.RecordCommand("search", "ok")
	respondSuccess(w, r, pageView(browse.KindSearch, result))
}

// Ranking handles POST /api/v1/commands/ranking.
func (h *Handler) Ranking(w http.ResponseWriter, r *http.Request) {
	var req RankingRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("ranking", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	mode := pixiv.RankingMode(req.Mode)
	if mode == "" {
		mode = pixiv.RankingDay
	}

	result, err := h.controller.StartRanking(r.Context(), req.UserKey, mode)
	if err != nil {
		metrics.RecordCommand("ranking", "error")
		respondMappedError(w, r, err)
		return
	}
	metrics.RecordCommand("ranking", "ok")
	respondSuccess(w, r, pageView(browse.KindRanking, result))
}

// Recommended handles POST /api/v1/commands/recommended.
func (h *Handler) Recommended(w http.ResponseWriter, r *http.Request) {
	var req UserKeyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("recommended", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	result, err := h.controller.StartRecommended(r.Context(), req.UserKey)
	if err != nil {
		metrics.RecordCommand("recommended", "error")
		respondMappedError(w, r, err)
		return
	}
	metrics.RecordCommand("recommended", "ok")
	respondSuccess(w, r, pageView(browse.KindRecommended, result))
}

// Author handles POST /api/v1/commands/author.
func (h *Handler) Author(w http.ResponseWriter, r *http.Request) {
	var req AuthorRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("author", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	result, err := h.controller.StartAuthor(r.Context(), req.UserKey, req.AuthorID)
	if err != nil {
		metrics.RecordCommand("author", "error")
		respondMappedError(w, r, err)
		return
	}
	metrics.RecordCommand("author", "ok")
	respondSuccess(w, r, pageView(browse.KindAuthor, result))
}

// Favorites handles POST /api/v1/commands/favorites.
func (h *Handler) Favorites(w http.ResponseWriter, r *http.Request) {
	var req UserKeyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("favorites", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	result, err := h.controller.StartFavorites(r.Context(), req.UserKey)
	if err != nil {
		metrics.RecordCommand("favorites", "error")
		respondMappedError(w, r, err)
		return
	}
	view := pageView(browse.KindFavorites, result)
	if len(view.Items) == 0 && !view.More {
		view.Notice = "No favorites yet."
	}
	metrics.RecordCommand("favorites", "ok")
	respondSuccess(w, r, view)
}

// Next handles POST /api/v1/commands/next, advancing the active stream.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	var req UserKeyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("next", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	sess, ok := h.controller.ActiveSession(req.UserKey)
	if !ok {
		metrics.RecordCommand("next", "error")
		respondMappedError(w, r, browse.ErrNoActiveSession)
		return
	}

	result, err := h.controller.Advance(r.Context(), req.UserKey)
	if errors.Is(err, browse.ErrStreamExhausted) {
		metrics.RecordCommand("next", "ok")
		respondSuccess(w, r, PageView{
			Kind:      sess.Kind.String(),
			Items:     []ItemView{},
			Exhausted: true,
			Notice:    "No more results.",
		})
		return
	}
	if err != nil {
		metrics.RecordCommand("next", "error")
		respondMappedError(w, r, err)
		return
	}
	metrics.RecordCommand("next", "ok")
	respondSuccess(w, r, pageView(sess.Kind, result))
}

// Favorite handles POST /api/v1/commands/favorite, recording the last
// shown item.
func (h *Handler) Favorite(w http.ResponseWriter, r *http.Request) {
	var req UserKeyRequest
	if err := decodeAndValidate(r, &req); err != nil {
		metrics.RecordCommand("favorite", "rejected")
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	id, err := h.controller.Favorite(r.Context(), req.UserKey)
	if errors.Is(err, browse.ErrAlreadyFavorited) {
		metrics.RecordCommand("favorite", "ok")
		respondSuccess(w, r, FavoriteView{
			IllustID:         id,
			AlreadyFavorited: true,
			Notice:           "Already in your favorites.",
		})
		return
	}
	if err != nil {
		metrics.RecordCommand("favorite", "error")
		respondMappedError(w, r, err)
		return
	}
	metrics.RecordCommand("favorite", "ok")
	respondSuccess(w, r, FavoriteView{IllustID: id})
}

// Session handles GET /api/v1/session?user_key=...
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	userKey := r.URL.Query().Get("user_key")
	if userKey == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "user_key query parameter is required")
		return
	}

	sess, ok := h.controller.ActiveSession(userKey)
	if !ok {
		respondMappedError(w, r, browse.ErrNoActiveSession)
		return
	}
	respondSuccess(w, r, SessionView{
		Kind:        sess.Kind.String(),
		Offset:      sess.Offset,
		LastShownID: sess.LastShownID,
		LastActive:  sess.LastActive.UTC().Format(time.RFC3339),
	})
}

// FavoritesList handles GET /api/v1/favorites?user_key=...
func (h *Handler) FavoritesList(w http.ResponseWriter, r *http.Request) {
	userKey := r.URL.Query().Get("user_key")
	if userKey == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "user_key query parameter is required")
		return
	}

	records, err := h.favs.List(r.Context(), userKey)
	if err != nil {
		logging.Error().Err(err).Msg("favorites list failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Could not read favorites.")
		return
	}

	views := make([]FavoriteRecordView, len(records))
	for i, rec := range records {
		views[i] = FavoriteRecordView{
			IllustID:  rec.IllustID,
			CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	respondSuccess(w, r, views)
}

// HealthLive handles GET /live: the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]string{"status": "alive"})
}

// HealthReady handles GET /ready: collaborators are reachable enough
// to serve commands. The favorites store answering is the gate; the
// remote API is allowed to be down without failing readiness.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.favs.List(r.Context(), "health-probe"); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternalError, "favorites store unavailable")
		return
	}
	respondSuccess(w, r, map[string]string{"status": "ready"})
}
