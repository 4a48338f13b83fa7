package credstore

import "errors"

var (
	// ErrKeyNotFound indicates the requested key has no stored value
	ErrKeyNotFound = errors.New("credstore.key_not_found")

	// ErrInvalidKey indicates an empty or malformed storage key
	ErrInvalidKey = errors.New("credstore.invalid_key")

	// ErrStorageFailed indicates the backend rejected a read or write
	ErrStorageFailed = errors.New("credstore.storage_failed")

	// ErrInvalidEncryptionKey indicates the at-rest encryption key is not 32 bytes
	ErrInvalidEncryptionKey = errors.New("credstore.invalid_encryption_key")

	// ErrDecryptionFailed indicates a stored value could not be decrypted
	ErrDecryptionFailed = errors.New("credstore.decryption_failed")
)
