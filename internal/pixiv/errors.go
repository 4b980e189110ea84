// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package pixiv

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the remote reported no such resource (unknown
// illustration or author id). Surfaced to users as a neutral "no results"
// message, not an error.
var ErrNotFound = errors.New("pixiv: not found")

// AuthError indicates the access or refresh token was rejected. The command
// that hit it fails; the remediation is a new refresh token.
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pixiv: authentication failed (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("pixiv: authentication failed (status %d)", e.Status)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NetworkError indicates the request never completed: timeout, connection
// refused, DNS failure, or a server-side 5xx.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("pixiv: %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError covers remaining non-2xx responses that are neither auth nor
// not-found, e.g. 400 for a malformed query.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pixiv: unexpected status %d: %s", e.Status, e.Body)
}

// errType maps an error to its metrics label.
func errType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		var authErr *AuthError
		var netErr *NetworkError
		var apiErr *APIError
		switch {
		case errors.As(err, &authErr):
			return "auth"
		case errors.As(err, &netErr):
			return "network"
		case errors.As(err, &apiErr):
			return "http"
		default:
			return "decode"
		}
	}
}
