// Package mirror replicates the full maintenance table to a remote versioned
// file store. Every push re-sends the whole table.
package mirror

import "context"

// Mirror is a remote copy of the table addressed by one fixed path.
type Mirror interface {
	// Push replaces the remote table with content. Updates are conditional
	// on the last-known version token; a stale token returns an error
	// wrapping types.ErrVersionConflict and is never retried.
	Push(ctx context.Context, content []byte, message string) error

	// Pull returns the current remote table and remembers its version token.
	// Returns types.ErrRemoteNotFound when nothing has been pushed yet.
	Pull(ctx context.Context) ([]byte, error)

	// Forget drops the remembered version token so the next Push learns the
	// current one from the remote.
	Forget()
}
