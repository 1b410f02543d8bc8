package store

import "errors"

// Sentinel errors returned by store operations. Services translate these
// into coded domain errors before they reach a handler.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrEmailExists  = errors.New("email already registered")

	ErrBookmarkNotFound = errors.New("bookmark not found")

	ErrTagNotFound = errors.New("tag not found")
	ErrTagExists   = errors.New("tag already exists")

	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
)
