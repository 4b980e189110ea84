// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

package browse

import "errors"

// Sentinel errors for session state machine outcomes. These are signals
// for the API boundary, not failures: each maps to a user-facing notice.
var (
	// ErrNoActiveSession means the user issued a continuation or favorite
	// command without a stream in progress.
	ErrNoActiveSession = errors.New("no active session")

	// ErrStreamExhausted means the active stream has no further pages.
	// The session is deleted before this is returned.
	ErrStreamExhausted = errors.New("stream exhausted")

	// ErrAlreadyFavorited means the favorite record already exists.
	// The existing record is left untouched.
	ErrAlreadyFavorited = errors.New("already favorited")

	// ErrNothingShown means a favorite command arrived before any item
	// was delivered in the active session.
	ErrNothingShown = errors.New("nothing shown yet")

	// ErrAdultContentDisabled rejects adult-scoped ranking modes when the
	// allow-adult policy flag is off. Raised before any remote call.
	ErrAdultContentDisabled = errors.New("adult content is disabled")
)
