package store

import "errors"

// ErrNotAuthenticated is returned when a store operation runs without a principal.
var ErrNotAuthenticated = errors.New("no authenticated user")
