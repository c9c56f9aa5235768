// Package store provides the keyed record store backing the echo application.
//
// Durable state is a handful of JSON arrays held under fixed namespace keys in
// a small key-value store, mirroring the browser localStorage layout the app
// originally shipped with. The KV interface is the only persistence surface;
// Records implements the record-level operations on top of it.
package store

import "context"

// Namespace keys for the persisted collections.
const (
	KeyJournal  = "echo_heart_records"
	KeyPraise   = "echo_praise_records"
	KeyCapsules = "echo_capsules"
	KeyCards    = "echo_relationship_clarity_cards"
	KeyFilter   = "echo_heart_filter"
)

// KV is a synchronous string key-value store.
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value string) error

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
