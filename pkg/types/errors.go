package types

import "errors"

// Local store errors.
var (
	ErrStorageUnreadable  = errors.New("local store is unreadable")
	ErrStorageWriteFailed = errors.New("local store write failed")
)

// Remote mirror errors. None of these fail a submission.
var (
	ErrRemoteAuthMissing = errors.New("remote sync credentials missing")
	ErrRemoteSyncFailed  = errors.New("remote sync failed")
	ErrVersionConflict   = errors.New("remote version token is stale")
	ErrRemoteNotFound    = errors.New("remote table not found")
)

// Image errors.
var (
	ErrInvalidImage = errors.New("invalid image")
	ErrNoPhoto      = errors.New("record has no photo")
)
