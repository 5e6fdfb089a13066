package storage

import "context"

// Collection names of the record store
const (
	CollectionUsers  = "users"
	CollectionTokens = "tokens"
	CollectionChecks = "checks"
)

// Collections lists every collection the store must provide
var Collections = []string{CollectionUsers, CollectionTokens, CollectionChecks}

// Store defines keyed record persistence over named collections.
// Values are encoded as JSON. Every operation is atomic for a single
// (collection, key) pair; there are no multi-key transactions.
type Store interface {
	// Create stores value under key.
	// Returns ErrAlreadyExists if the key is present; never overwrites.
	Create(ctx context.Context, collection, key string, value any) error

	// Read decodes the value stored under key into dst.
	// Returns ErrNotFound if the key doesn't exist
	Read(ctx context.Context, collection, key string, dst any) error

	// Update replaces the value stored under key.
	// Returns ErrNotFound if the key doesn't exist
	Update(ctx context.Context, collection, key string, value any) error

	// Delete removes the key.
	// Returns ErrNotFound if the key doesn't exist
	Delete(ctx context.Context, collection, key string) error

	// Close releases the underlying database
	Close() error
}

// KnownCollection reports whether name is one of Collections.
func KnownCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}
