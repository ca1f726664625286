// Package storage persists ledger snapshots as opaque blobs keyed by user.
package storage

import "context"

// BlobStore is the persistence port of the ledger. Load returns nil, nil for
// a key that has never been saved.
type BlobStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// KeyPrefix namespaces snapshot keys.
const KeyPrefix = "myfinance/"

// UserKey returns the blob key holding a user's snapshot.
func UserKey(userID string) string {
	return KeyPrefix + userID
}
