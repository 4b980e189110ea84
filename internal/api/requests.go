// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// requests.go - command payload structs with go-playground/validator tags.
//
// Every command body carries the platform user key identifying whose
// session the command addresses. The bridge in front of this service is
// trusted; the key is an opaque routing handle, not a credential.

package api

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var validate = validator.New()

// SearchRequest starts a keyword search stream.
type SearchRequest struct {
	UserKey  string `json:"user_key" validate:"required,min=1,max=128"`
	Word     string `json:"word" validate:"required,min=1,max=200"`
	Target   string `json:"target" validate:"omitempty,oneof=partial_match_for_tags exact_match_for_tags title_and_caption keyword"`
	Sort     string `json:"sort" validate:"omitempty,oneof=date_desc popular_desc"`
	Duration string `json:"duration" validate:"omitempty,oneof=within_last_day within_last_week within_last_month"`
}

// RankingRequest starts a ranking board stream.
type RankingRequest struct {
	UserKey string `json:"user_key" validate:"required,min=1,max=128"`
	Mode    string `json:"mode" validate:"omitempty,oneof=day week month week_original week_rookie day_male day_female day_ai day_r18 week_r18"`
}

// AuthorRequest starts a stream over one author's works.
type AuthorRequest struct {
	UserKey  string `json:"user_key" validate:"required,min=1,max=128"`
	AuthorID int64  `json:"author_id" validate:"required,min=1"`
}

// UserKeyRequest is the body shared by commands that only need the
// user key: recommended, favorites, next, favorite.
type UserKeyRequest struct {
	UserKey string `json:"user_key" validate:"required,min=1,max=128"`
}

// decodeAndValidate decodes the JSON body into dst and runs the
// validator. Unknown fields are rejected to surface client typos.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("validate request: %w", err)
	}
	return nil
}
