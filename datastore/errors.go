// Package datastore holds the repositories for coupons, users and
// suggestions. Each repository wraps one docstore collection; every mutation
// is a single read-modify-write cycle on that collection.
package datastore

import "errors"

var (
	// ErrNotFound is returned when an id does not match any record.
	ErrNotFound = errors.New("record not found")

	// ErrAuthentication is returned when no user matches an email/password pair.
	ErrAuthentication = errors.New("invalid email or password")
)
