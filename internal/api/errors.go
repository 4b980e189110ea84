// Morfonica - Conversational Pixiv Browsing Service
// Copyright 2026 Roast-2007
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Roast-2007/morfonica

// errors.go - taxonomy-to-HTTP mapping
//
// Every error leaving the controller or client is converted here into
// an envelope with a user-facing message. Remote failures never expose
// upstream response bodies.

package api

import (
	"errors"
	"net/http"

	"github.com/Roast-2007/morfonica/internal/browse"
	"github.com/Roast-2007/morfonica/internal/delivery"
	"github.com/Roast-2007/morfonica/internal/logging"
	"github.com/Roast-2007/morfonica/internal/pixiv"
)

// respondMappedError converts err into its API envelope.
func respondMappedError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, browse.ErrNoActiveSession):
		respondError(w, r, http.StatusNotFound, ErrCodeNoActiveSession,
			"No stream in progress. Start one with a search, ranking, recommended, author or favorites command.")

	case errors.Is(err, browse.ErrNothingShown):
		respondError(w, r, http.StatusBadRequest, ErrCodeNothingShown,
			"Nothing has been shown yet, so there is nothing to favorite.")

	case errors.Is(err, browse.ErrAdultContentDisabled):
		respondError(w, r, http.StatusForbidden, ErrCodeAdultDisabled,
			"Adult ranking boards are disabled on this instance.")

	case errors.Is(err, pixiv.ErrNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound,
			"Nothing found.")

	default:
		respondUnexpectedError(w, r, err)
	}
}

func respondUnexpectedError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		authErr     *pixiv.AuthError
		netErr      *pixiv.NetworkError
		apiErr      *pixiv.APIError
		deliveryErr *delivery.Error
	)

	switch {
	case errors.As(err, &authErr):
		logging.Error().Err(err).Msg("upstream authentication failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstreamAuth,
			"The content service rejected our credentials. Try again later.")

	case errors.As(err, &netErr):
		logging.Warn().Err(err).Msg("upstream unreachable")
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstreamUnavail,
			"The content service is unreachable. Try again later.")

	case errors.As(err, &apiErr):
		logging.Warn().Err(err).Msg("upstream returned an error")
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstreamUnavail,
			"The content service returned an error. Try again later.")

	case errors.As(err, &deliveryErr):
		logging.Error().Err(err).Msg("outbound delivery failed")
		respondError(w, r, http.StatusBadGateway, ErrCodeDeliveryFailed,
			"Some results could not be delivered.")

	default:
		logging.Error().Err(err).Msg("command failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError,
			"Something went wrong handling the command.")
	}
}
