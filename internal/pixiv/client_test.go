// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package pixiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Roast-2007/morfonica/internal/config"
)

const testTokenResponse = `{
	"access_token": "test-access-token",
	"expires_in": 3600,
	"refresh_token": "rotated-refresh-token",
	"token_type": "bearer"
}`

const testIllustsResponse = `{
	"illusts": [
		{
			"id": 101,
			"title": "First",
			"user": {"id": 7, "name": "Artist"},
			"page_count": 1,
			"x_restrict": 0,
			"illust_ai_type": 1,
			"image_urls": {"medium": "https://i.example/101_m.jpg"},
			"meta_single_page": {"original_image_url": "https://i.example/101.jpg"},
			"tags": [{"name": "風景"}]
		},
		{
			"id": 102,
			"title": "Second",
			"user": {"id": 8, "name": "Other"},
			"page_count": 2,
			"x_restrict": 1,
			"illust_ai_type": 0,
			"image_urls": {"medium": "https://i.example/102_m.jpg"},
			"meta_single_page": {},
			"meta_pages": [
				{"image_urls": {"original": "https://i.example/102_p0.jpg"}},
				{"image_urls": {"original": "https://i.example/102_p1.jpg"}}
			],
			"tags": [{"name": "R-18"}]
		}
	],
	"next_url": "NEXT_URL_PLACEHOLDER"
}`

// newTestClient points a Client at a test server that answers both the
// token endpoint and the app-API endpoints.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	var authCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			authCalls.Add(1)
			if r.Method != http.MethodPost {
				t.Errorf("token endpoint: expected POST, got %s", r.Method)
			}
			if r.Header.Get("X-Client-Hash") == "" {
				t.Error("token request missing X-Client-Hash header")
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(testTokenResponse))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.PixivConfig{
		RefreshToken:      "initial-refresh-token",
		APIURL:            server.URL,
		AuthURL:           server.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	})
	return client, server
}

func TestAuthenticate(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call to %s", r.URL.Path)
	})

	checkNoError(t, client.Authenticate(context.Background()))
	checkStringEqual(t, "accessToken", client.accessToken, "test-access-token")
	checkStringEqual(t, "refreshToken", client.refreshToken, "rotated-refresh-token")
	checkTrue(t, "token expiry in future", client.tokenExpiry.After(time.Now()))
}

func TestAuthenticateRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	}))
	defer server.Close()

	client := NewClient(config.PixivConfig{
		RefreshToken:      "expired",
		APIURL:            server.URL,
		AuthURL:           server.URL,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1,
	})

	err := client.Authenticate(context.Background())
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	checkIntEqual(t, "status", authErr.Status, http.StatusBadRequest)
}

func TestSearchIllusts(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/v1/search/illust")
		q := r.URL.Query()
		checkStringEqual(t, "word", q.Get("word"), "sailboat")
		checkStringEqual(t, "search_target", q.Get("search_target"), "partial_match_for_tags")
		checkStringEqual(t, "sort", q.Get("sort"), "popular_desc")
		checkStringEqual(t, "duration", q.Get("duration"), "within_last_week")
		checkStringEqual(t, "offset", q.Get("offset"), "0")
		checkStringEqual(t, "authorization", r.Header.Get("Authorization"), "Bearer test-access-token")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testIllustsResponse))
	})

	page, err := client.SearchIllusts(context.Background(), SearchParams{
		Word:     "sailboat",
		Target:   TargetPartialMatchTags,
		Sort:     SortPopularDesc,
		Duration: DurationLastWeek,
	}, 0)
	checkNoError(t, err)
	checkIntEqual(t, "illusts", len(page.Illusts), 2)
	checkInt64Equal(t, "illusts[0].ID", page.Illusts[0].ID, 101)
	checkStringEqual(t, "illusts[0].User.Name", page.Illusts[0].User.Name, "Artist")
	checkTrue(t, "illusts[1] restricted", page.Illusts[1].Restricted())
	checkStringEqual(t, "next url", page.NextURL, "NEXT_URL_PLACEHOLDER")
	_ = server
}

func TestSearchIllustsParamValidation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("remote should not be called on invalid params: %s", r.URL.Path)
	})

	tests := []struct {
		name   string
		params SearchParams
	}{
		{"empty word", SearchParams{Target: TargetKeyword, Sort: SortDateDesc}},
		{"bad target", SearchParams{Word: "x", Target: "bogus", Sort: SortDateDesc}},
		{"bad sort", SearchParams{Word: "x", Target: TargetKeyword, Sort: "bogus"}},
		{"duration without popularity sort", SearchParams{
			Word: "x", Target: TargetKeyword, Sort: SortDateDesc, Duration: DurationLastDay,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := client.SearchIllusts(context.Background(), tt.params, 0); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestRanking(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/v1/illust/ranking")
		checkStringEqual(t, "mode", r.URL.Query().Get("mode"), "week_original")
		checkStringEqual(t, "offset", r.URL.Query().Get("offset"), "60")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testIllustsResponse))
	})

	page, err := client.Ranking(context.Background(), RankingOriginal, 60)
	checkNoError(t, err)
	checkIntEqual(t, "illusts", len(page.Illusts), 2)
}

func TestRankingUnknownMode(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("remote should not be called for unknown mode")
	})

	if _, err := client.Ranking(context.Background(), "yearly", 0); err == nil {
		t.Error("expected error for unknown ranking mode")
	}
}

func TestUserIllusts(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/v1/user/illusts")
		checkStringEqual(t, "user_id", r.URL.Query().Get("user_id"), "4321")
		checkStringEqual(t, "type", r.URL.Query().Get("type"), "illust")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(testIllustsResponse))
	})

	page, err := client.UserIllusts(context.Background(), 4321, 0)
	checkNoError(t, err)
	checkIntEqual(t, "illusts", len(page.Illusts), 2)
}

func TestIllustDetail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/v1/illust/detail")
		checkStringEqual(t, "illust_id", r.URL.Query().Get("illust_id"), "101")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"illust": {"id": 101, "title": "First", "user": {"id": 7, "name": "Artist"}}}`))
	})

	illust, err := client.IllustDetail(context.Background(), 101)
	checkNoError(t, err)
	checkInt64Equal(t, "id", illust.ID, 101)
	checkStringEqual(t, "title", illust.Title, "First")
}

func TestIllustDetailNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.IllustDetail(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchOffsetForwarded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "offset", r.URL.Query().Get("offset"), "30")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"illusts": [], "next_url": ""}`))
	})

	page, err := client.SearchIllusts(context.Background(), SearchParams{
		Word: "x", Target: TargetKeyword, Sort: SortDateDesc,
	}, 30)
	checkNoError(t, err)
	checkIntEqual(t, "illusts", len(page.Illusts), 0)
	checkStringEqual(t, "next url", page.NextURL, "")
}

func TestNegativeOffsetRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("remote should not be called for a negative offset")
	})

	if _, err := client.Recommended(context.Background(), -1); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	var apiCalls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		apiCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Recommended(context.Background(), 0)
	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	checkStringEqual(t, "cached token cleared", client.accessToken, "")
	checkInt64Equal(t, "api calls", apiCalls.Load(), 1)
}

func TestServerErrorMapsToNetworkError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Recommended(context.Background(), 0)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestTokenReusedAcrossRequests(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"illusts": [], "next_url": ""}`))
	})

	ctx := context.Background()
	_, err := client.Recommended(ctx, 0)
	checkNoError(t, err)
	firstToken := client.accessToken

	_, err = client.Recommended(ctx, 0)
	checkNoError(t, err)
	checkStringEqual(t, "token unchanged", client.accessToken, firstToken)
}
