package credstore

import "errors"

var (
	// ErrInvalidKeySize indicates the encryption key is not 32 bytes
	ErrInvalidKeySize = errors.New("credstore: encryption key must be 32 bytes")

	// ErrDecryptionFailed indicates the credentials file could not be decrypted
	ErrDecryptionFailed = errors.New("credstore: decryption failed")

	// ErrInvalidCiphertext indicates the credentials file is too short or corrupt
	ErrInvalidCiphertext = errors.New("credstore: invalid ciphertext format")

	// ErrRedisNotReady indicates the Redis server did not answer the initial ping
	ErrRedisNotReady = errors.New("credstore: redis not ready")
)
