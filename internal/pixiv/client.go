// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

/*
client.go - Pixiv app-API REST client

Implements the subset of the Pixiv app-API that the browse layer consumes:
illustration search, ranking boards, personalized recommendations, an
author's works list, and single-illustration detail. Authentication uses
the OAuth refresh-token grant with automatic access-token renewal.

All list endpoints take an offset cursor and return a Page whose NextURL,
when non-empty, signals that the remote has further pages.
*/

package pixiv

import (
	"context"
	"crypto/md5" //nolint:gosec // required by the API's client-hash scheme, not used for security
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/Roast-2007/morfonica/internal/config"
	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/metrics"
	"github.com/Roast-2007/morfonica/internal/models"
)

// Public OAuth client credentials of the official Android app, as used by
// every third-party Pixiv client.
const (
	oauthClientID     = "MOBrBDS8blbauoSck0ZfDbtuzpyT"
	oauthClientSecret = "lsACyCD94FhDUtGTXi3QzcFE2uU1hqtDaKeqrdwj"
	clientHashSalt    = "28c1fdd170a5204386cb1313c7077b34f83e4aaf4aa829ce78c231e05b0bae2c"

	userAgent = "PixivAndroidApp/5.0.234 (Android 11; Pixel 5)"

	// tokenSlack renews the access token this long before it expires.
	tokenSlack = time.Minute
)

// API defines the Pixiv operations the browse layer consumes. Both Client
// and CircuitBreakerClient implement this interface.
type API interface {
	Authenticate(ctx context.Context) error
	SearchIllusts(ctx context.Context, params SearchParams, offset int) (*Page, error)
	Ranking(ctx context.Context, mode RankingMode, offset int) (*Page, error)
	Recommended(ctx context.Context, offset int) (*Page, error)
	UserIllusts(ctx context.Context, authorID int64, offset int) (*Page, error)
	IllustDetail(ctx context.Context, illustID int64) (*models.Illust, error)
}

// Ensure Client implements API.
var _ API = (*Client)(nil)

// Client provides access to the Pixiv app-API.
type Client struct {
	apiURL     string
	authURL    string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu           sync.Mutex
	refreshToken string
	accessToken  string
	tokenExpiry  time.Time
}

// NewClient creates a Pixiv app-API client. No remote call is made until
// the first request; call Authenticate at startup to fail fast on a bad
// refresh token.
func NewClient(cfg config.PixivConfig) *Client {
	return &Client{
		apiURL:       strings.TrimSuffix(cfg.APIURL, "/"),
		authURL:      strings.TrimSuffix(cfg.AuthURL, "/"),
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		refreshToken: cfg.RefreshToken,
	}
}

// illustsResponse is the common shape of all list endpoints.
type illustsResponse struct {
	Illusts []models.Illust `json:"illusts"`
	NextURL string          `json:"next_url"`
}

// detailResponse is the shape of /v1/illust/detail.
type detailResponse struct {
	Illust models.Illust `json:"illust"`
}

// tokenResponse is the shape of the OAuth token endpoint. Older endpoint
// revisions wrap the fields in a "response" object.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Response     *struct {
		AccessToken  string `json:"access_token"`
		ExpiresIn    int    `json:"expires_in"`
		RefreshToken string `json:"refresh_token"`
	} `json:"response"`
}

// Authenticate obtains a fresh access token using the refresh-token grant.
// Safe to call concurrently; callers normally rely on the automatic renewal
// in each request instead.
func (c *Client) Authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshAccessToken(ctx)
}

// refreshAccessToken performs the token grant. Caller must hold c.mu.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	form := url.Values{
		"client_id":      {oauthClientID},
		"client_secret":  {oauthClientSecret},
		"grant_type":     {"refresh_token"},
		"refresh_token":  {c.refreshToken},
		"get_secure_url": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.authURL+"/auth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)
	setClientHash(req, time.Now())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := &NetworkError{Op: "token refresh", Err: err}
		metrics.RecordRemoteRequest("auth", time.Since(start), errType(netErr))
		return netErr
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		authErr := &AuthError{Status: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
		metrics.RecordRemoteRequest("auth", time.Since(start), errType(authErr))
		return authErr
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		metrics.RecordRemoteRequest("auth", time.Since(start), "decode")
		return fmt.Errorf("decode token response: %w", err)
	}
	metrics.RecordRemoteRequest("auth", time.Since(start), "")

	if token.AccessToken == "" && token.Response != nil {
		token.AccessToken = token.Response.AccessToken
		token.ExpiresIn = token.Response.ExpiresIn
		token.RefreshToken = token.Response.RefreshToken
	}
	if token.AccessToken == "" {
		return &AuthError{Status: resp.StatusCode, Err: fmt.Errorf("token response missing access_token")}
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	if token.RefreshToken != "" {
		c.refreshToken = token.RefreshToken
	}

	logging.Debug().Time("expires", c.tokenExpiry).Msg("pixiv access token refreshed")
	return nil
}

// setClientHash adds the X-Client-Time/X-Client-Hash header pair the token
// endpoint requires.
func setClientHash(req *http.Request, now time.Time) {
	clientTime := now.Format(time.RFC3339)
	sum := md5.Sum([]byte(clientTime + clientHashSalt)) //nolint:gosec // API requirement
	req.Header.Set("X-Client-Time", clientTime)
	req.Header.Set("X-Client-Hash", hex.EncodeToString(sum[:]))
}

// token returns a valid access token, renewing it when close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.accessToken, nil
	}
	if err := c.refreshAccessToken(ctx); err != nil {
		return "", err
	}
	return c.accessToken, nil
}

// invalidateToken drops the cached access token after a 401/403 so the next
// request re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

// doGet executes an authenticated GET against rawURL and decodes the JSON
// response into result. endpoint is the metrics label.
func (c *Client) doGet(ctx context.Context, endpoint, rawURL string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	accessToken, err := c.token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		netErr := &NetworkError{Op: endpoint, Err: err}
		metrics.RecordRemoteRequest(endpoint, time.Since(start), errType(netErr))
		return netErr
	}
	defer resp.Body.Close() //nolint:errcheck

	reqErr := c.checkStatus(endpoint, resp)
	if reqErr != nil {
		metrics.RecordRemoteRequest(endpoint, time.Since(start), errType(reqErr))
		return reqErr
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		metrics.RecordRemoteRequest(endpoint, time.Since(start), "decode")
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	metrics.RecordRemoteRequest(endpoint, time.Since(start), "")
	return nil
}

// checkStatus maps a non-200 response to the error taxonomy.
func (c *Client) checkStatus(endpoint string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.invalidateToken()
		return &AuthError{Status: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return &NetworkError{Op: endpoint, Err: fmt.Errorf("server returned %d", resp.StatusCode)}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
}

// SearchIllusts runs an illustration search starting at offset.
func (c *Client) SearchIllusts(ctx context.Context, params SearchParams, offset int) (*Page, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", offset)
	}

	query := url.Values{
		"word":          {params.Word},
		"search_target": {string(params.Target)},
		"sort":          {string(params.Sort)},
		"offset":        {strconv.Itoa(offset)},
	}
	if params.Duration != DurationNone {
		query.Set("duration", string(params.Duration))
	}

	var out illustsResponse
	if err := c.doGet(ctx, "search", c.apiURL+"/v1/search/illust?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &Page{Illusts: out.Illusts, NextURL: out.NextURL}, nil
}

// Ranking returns one page of a ranking board starting at offset.
func (c *Client) Ranking(ctx context.Context, mode RankingMode, offset int) (*Page, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown ranking mode %q", mode)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", offset)
	}

	query := url.Values{
		"mode":   {string(mode)},
		"offset": {strconv.Itoa(offset)},
	}

	var out illustsResponse
	if err := c.doGet(ctx, "ranking", c.apiURL+"/v1/illust/ranking?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &Page{Illusts: out.Illusts, NextURL: out.NextURL}, nil
}

// Recommended returns one page of personalized recommendations.
func (c *Client) Recommended(ctx context.Context, offset int) (*Page, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", offset)
	}

	query := url.Values{
		"include_ranking_illusts": {"false"},
		"offset":                  {strconv.Itoa(offset)},
	}

	var out illustsResponse
	if err := c.doGet(ctx, "recommended", c.apiURL+"/v1/illust/recommended?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &Page{Illusts: out.Illusts, NextURL: out.NextURL}, nil
}

// UserIllusts returns one page of an author's works starting at offset.
func (c *Client) UserIllusts(ctx context.Context, authorID int64, offset int) (*Page, error) {
	if authorID <= 0 {
		return nil, fmt.Errorf("author id must be positive, got %d", authorID)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative, got %d", offset)
	}

	query := url.Values{
		"user_id": {strconv.FormatInt(authorID, 10)},
		"type":    {"illust"},
		"offset":  {strconv.Itoa(offset)},
	}

	var out illustsResponse
	if err := c.doGet(ctx, "user_illusts", c.apiURL+"/v1/user/illusts?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &Page{Illusts: out.Illusts, NextURL: out.NextURL}, nil
}

// IllustDetail fetches one illustration by id.
func (c *Client) IllustDetail(ctx context.Context, illustID int64) (*models.Illust, error) {
	if illustID <= 0 {
		return nil, fmt.Errorf("illust id must be positive, got %d", illustID)
	}

	query := url.Values{"illust_id": {strconv.FormatInt(illustID, 10)}}

	var out detailResponse
	if err := c.doGet(ctx, "detail", c.apiURL+"/v1/illust/detail?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return &out.Illust, nil
}

