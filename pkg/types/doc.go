// Package types defines the maintenance Record, the canonical column schema,
// the in-memory Table, configuration, and the standard errors shared by the
// local store, the remote mirror and the record repository.
package types
