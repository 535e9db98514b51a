// Package credstore provides durable implementations of
// session.CredentialStore, the two-key store holding the bearer token and
// the serialized user snapshot.
//
// FileStore keeps a single JSON document on disk with atomic writes and
// 0600 permissions; an optional 32-byte key enables AES-256-GCM encryption
// at rest (HKDF-SHA-256 key derivation, nonce-prefixed ciphertext).
// RedisStore keeps the same two keys in Redis for deployments without a
// durable local filesystem.
//
//	path, _ := credstore.DefaultFilePath()
//	store, err := credstore.NewFileStore(path,
//	    credstore.WithEncryptionKey(key),
//	)
//	if err != nil {
//	    // handle error
//	}
//	mgr := session.New(api, session.WithStore(store))
//
// Only the session manager should touch a credential store; everything
// else reads session state through the manager.
package credstore
