// Package srt is the authenticated client for the SRT mobile booking
// API: login, schedule search, reserve and reservation listing. Error
// values below let callers separate "the service said no" from "the
// service is unreachable"; transport failures are wrapped with %w so
// they stay inspectable.
package srt

import "errors"

// ErrNotLoggedIn is returned by any operation that requires an
// authenticated session before one was established. No network call is
// made in that case.
var ErrNotLoggedIn = errors.New("srt: not logged in")

// ErrAuthFailed means the login response did not carry the success
// marker. The heuristic is inherited from the upstream app and must not
// be "improved": the wire format is not a stable contract.
var ErrAuthFailed = errors.New("srt: login rejected")

// ErrDecode means the response body did not have the expected JSON
// shape. The raw body is logged, never returned to callers.
var ErrDecode = errors.New("srt: unexpected response shape")

// ErrReserveRefused means the reserve endpoint answered with a FAIL
// result. The upstream message text is attached to the error string.
var ErrReserveRefused = errors.New("srt: reservation refused")
