package credstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// keySize is the required encryption key length, 256 bits for AES-256.
	keySize = 32

	// saltInfo provides HKDF domain separation for this file format.
	saltInfo = "arcana-credstore-v1"
)

// GenerateKey returns a fresh random 32-byte encryption key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// deriveKey stretches the caller's key through HKDF-SHA-256 so the raw key
// material is never used directly as the cipher key.
func deriveKey(key []byte) ([]byte, error) {
	derived := make([]byte, keySize)
	r := hkdf.New(sha256.New, key, nil, []byte(saltInfo))
	if _, err := io.ReadFull(r, derived); err != nil {
		return nil, err
	}
	return derived, nil
}

// seal encrypts data with AES-256-GCM. The nonce is prepended to the
// ciphertext so the output is self-contained.
func seal(key, data []byte) ([]byte, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeySize
	}

	derived, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return aesGCM.Seal(nonce, nonce, data, nil), nil
}

// open decrypts a nonce-prefixed AES-256-GCM ciphertext.
func open(key, ciphertext []byte) ([]byte, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeySize
	}

	derived, err := deriveKey(key)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, ErrInvalidCiphertext
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.Join(ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
