// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// Package models defines the shared data model: Pixiv illustration records
// as returned by the app-API, and favorite records as persisted locally.
package models

import (
	"fmt"
	"time"
)

// XRestrict values as reported by the Pixiv app-API.
const (
	XRestrictNone = 0 // all ages
	XRestrictR18  = 1
	XRestrictR18G = 2
)

// IllustAITypeGenerated marks fully AI-generated works (illust_ai_type).
const IllustAITypeGenerated = 2

// User is the author of an illustration.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Account string `json:"account,omitempty"`
}

// Tag is a free-text label attached to an illustration. TranslatedName is
// populated by the API for non-Japanese clients and may be empty.
type Tag struct {
	Name           string `json:"name"`
	TranslatedName string `json:"translated_name,omitempty"`
}

// ImageURLs holds the size-variant URL fallback chain for one image.
// Not all variants are present on every record.
type ImageURLs struct {
	SquareMedium string `json:"square_medium,omitempty"`
	Medium       string `json:"medium,omitempty"`
	Large        string `json:"large,omitempty"`
	Original     string `json:"original,omitempty"`
}

// Best returns the highest-quality URL available, falling back through the
// size chain. Returns empty string when no variant is set.
func (u ImageURLs) Best() string {
	for _, url := range []string{u.Original, u.Large, u.Medium, u.SquareMedium} {
		if url != "" {
			return url
		}
	}
	return ""
}

// MetaSinglePage carries the original image URL for single-page works.
type MetaSinglePage struct {
	OriginalImageURL string `json:"original_image_url,omitempty"`
}

// MetaPage is one page of a multi-page work.
type MetaPage struct {
	ImageURLs ImageURLs `json:"image_urls"`
}

// Illust is one Pixiv illustration record as returned by the app-API.
type Illust struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Type           string         `json:"type,omitempty"`
	User           User           `json:"user"`
	Tags           []Tag          `json:"tags,omitempty"`
	PageCount      int            `json:"page_count"`
	XRestrict      int            `json:"x_restrict"`
	IllustAIType   int            `json:"illust_ai_type"`
	ImageURLs      ImageURLs      `json:"image_urls"`
	MetaSinglePage MetaSinglePage `json:"meta_single_page"`
	MetaPages      []MetaPage     `json:"meta_pages,omitempty"`
	TotalView      int            `json:"total_view,omitempty"`
	TotalBookmarks int            `json:"total_bookmarks,omitempty"`
	CreateDate     string         `json:"create_date,omitempty"`
}

// Restricted reports whether the work carries an adult restriction flag.
func (i *Illust) Restricted() bool {
	return i.XRestrict != XRestrictNone
}

// AIGenerated reports whether the API flags the work as AI-generated.
func (i *Illust) AIGenerated() bool {
	return i.IllustAIType == IllustAITypeGenerated
}

// ArtworkURL returns the public web page for the work.
func (i *Illust) ArtworkURL() string {
	return fmt.Sprintf("https://www.pixiv.net/artworks/%d", i.ID)
}

// PageImageURLs returns the ordered list of page image URLs, one per page,
// each resolved through the size-variant fallback chain. Single-page works
// prefer the original image URL from meta_single_page.
func (i *Illust) PageImageURLs() []string {
	if len(i.MetaPages) > 0 {
		urls := make([]string, 0, len(i.MetaPages))
		for _, page := range i.MetaPages {
			if url := page.ImageURLs.Best(); url != "" {
				urls = append(urls, url)
			}
		}
		return urls
	}

	if i.MetaSinglePage.OriginalImageURL != "" {
		return []string{i.MetaSinglePage.OriginalImageURL}
	}
	if url := i.ImageURLs.Best(); url != "" {
		return []string{url}
	}
	return nil
}

// Favorite is one persisted (user, illustration) bookmark record.
type Favorite struct {
	UserKey   string    `json:"user_key"`
	IllustID  int64     `json:"illust_id"`
	CreatedAt time.Time `json:"created_at"`
}
