package models

import "errors"

// ErrNotFound is returned when a lookup matches no row. Ownership-filtered
// task lookups return it for both nonexistent ids and tasks owned by
// another user, so the two are indistinguishable to callers.
var ErrNotFound = errors.New("not found")
