package credstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/hkdf"
	"gopkg.in/yaml.v3"
)

const (
	// encryptionKeySize is the required size of the at-rest encryption key
	encryptionKeySize = 32 // 256 bits for AES-256

	// saltInfo is used for HKDF key derivation to provide domain separation
	saltInfo = "roster-credstore-v1"
)

// FileStore implements Store on top of a YAML file, so a session survives
// a process restart the way a browser session survives a page reload.
// Writes go through a temp file and an atomic rename; the full file is
// re-read on every Get, which keeps concurrent processes coherent at the
// cost of a small amount of I/O. All methods are safe for concurrent use
// within one process.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  []byte // nil means values are stored in plaintext
}

// FileOption is a functional option for FileStore
type FileOption func(*FileStore)

// WithEncryptionKey enables at-rest encryption of stored values using
// AES-256-GCM with an HKDF-SHA256-derived key. The key must be 32 bytes.
func WithEncryptionKey(key []byte) FileOption {
	return func(f *FileStore) {
		f.key = key
	}
}

// NewFileStore creates a file-backed credential store at path, creating
// parent directories as needed.
func NewFileStore(path string, opts ...FileOption) (*FileStore, error) {
	f := &FileStore{path: path}

	for _, opt := range opts {
		opt(f)
	}

	if f.key != nil && len(f.key) != encryptionKeySize {
		return nil, ErrInvalidEncryptionKey
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	return f, nil
}

// Get retrieves a stored value by key
func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", err
	}

	value, exists := values[key]
	if !exists {
		return "", ErrKeyNotFound
	}

	if f.key != nil {
		return f.decrypt(value)
	}
	return value, nil
}

// Set stores a value under key
func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}

	if f.key != nil {
		value, err = f.encrypt(value)
		if err != nil {
			return err
		}
	}

	values[key] = value
	return f.write(values)
}

// Delete removes a value by key
func (f *FileStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}

	if _, exists := values[key]; !exists {
		return nil
	}

	delete(values, key)
	return f.write(values)
}

// read loads the full key/value map; a missing file yields an empty map
func (f *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, errors.Join(ErrStorageFailed, err)
	}

	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}
	return values, nil
}

// write persists the full map atomically via temp file + rename
func (f *FileStore) write(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".credstore-*")
	if err != nil {
		return errors.Join(ErrStorageFailed, err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrStorageFailed, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrStorageFailed, err)
	}

	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrStorageFailed, err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.Join(ErrStorageFailed, err)
	}
	return nil
}

// encrypt seals a value with AES-256-GCM, nonce prepended, base64-encoded
func (f *FileStore) encrypt(plaintext string) (string, error) {
	aesGCM, err := f.cipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrStorageFailed, err)
	}

	ciphertext := aesGCM.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt reverses encrypt
func (f *FileStore) decrypt(encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}

	aesGCM, err := f.cipher()
	if err != nil {
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", ErrDecryptionFailed
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.Join(ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// cipher derives the AEAD from the configured key via HKDF-SHA256
func (f *FileStore) cipher() (cipher.AEAD, error) {
	derived := make([]byte, encryptionKeySize)
	kdf := hkdf.New(sha256.New, f.key, nil, []byte(saltInfo))
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, errors.Join(ErrStorageFailed, err)
	}

	return cipher.NewGCM(block)
}
