package session

import "context"

// Credential store keys. The manager persists exactly these two.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// CredentialStore is durable key-value storage for the bearer token and the
// serialized user snapshot. Implementations must survive process restarts
// on the same device; nothing else in the application may touch the store
// directly; all reads and writes go through the Manager.
type CredentialStore interface {
	// Get returns the stored value, or ErrCredentialNotFound if absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value under the key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
