package credstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// FileStore persists credentials as a single JSON document on disk. Writes
// are atomic (temp file + rename) and the file is created 0600. With an
// encryption key configured the document is sealed with AES-256-GCM, so a
// leaked backup does not leak the bearer token.
type FileStore struct {
	path string
	key  []byte

	mu sync.Mutex
}

// FileOption is a functional option for configuring the FileStore
type FileOption func(*FileStore)

// WithEncryptionKey enables encryption at rest. The key must be exactly
// 32 bytes; NewFileStore validates it.
func WithEncryptionKey(key []byte) FileOption {
	return func(s *FileStore) {
		s.key = key
	}
}

// NewFileStore creates a file-backed credential store at path. The parent
// directory is created if missing.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("credstore: path is required")
	}

	s := &FileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if s.key != nil && len(s.key) != keySize {
		return nil, ErrInvalidKeySize
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credstore: create directory: %w", err)
	}

	return s, nil
}

// DefaultFilePath returns the conventional per-user credentials location,
// $HOME/.config/arcana/credentials.json.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("credstore: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "arcana", "credentials.json"), nil
}

// Get returns the stored value for key.
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", err
	}
	value, ok := values[key]
	if !ok {
		return "", session.ErrCredentialNotFound
	}
	return value, nil
}

// Set stores the value under key.
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

// Remove deletes the key; absent keys are ignored.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// load reads and, if configured, decrypts the document. A missing file is
// an empty store.
func (s *FileStore) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: read %s: %w", s.path, err)
	}
	if len(raw) == 0 {
		return make(map[string]string), nil
	}

	if s.key != nil {
		raw, err = open(s.key, raw)
		if err != nil {
			return nil, err
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("credstore: decode %s: %w", s.path, err)
	}
	return values, nil
}

// save writes the document atomically with owner-only permissions.
func (s *FileStore) save(values map[string]string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("credstore: encode credentials: %w", err)
	}

	if s.key != nil {
		raw, err = seal(s.key, raw)
		if err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".credentials-*")
	if err != nil {
		return fmt.Errorf("credstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("credstore: chmod temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("credstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("credstore: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("credstore: replace %s: %w", s.path, err)
	}
	return nil
}

var _ session.CredentialStore = (*FileStore)(nil)
