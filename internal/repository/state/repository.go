package state

import (
	"errors"
	"regexp"
)

// Keys under which the application persists its local state.
const (
	KeyAuthToken = "auth_token"
	KeyUserData  = "user_data"
	KeyCartItems = "cart_items"
)

var (
	// ErrQuotaExceeded is returned when a value does not fit the store's capacity.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidKey is returned for keys outside the [a-z0-9_] alphabet.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Repository is a synchronous key-value store for local application state.
// A failed write is reported to the caller and never retried.
type Repository interface {
	ReadRaw(key string) (string, bool, error)
	WriteRaw(key, value string) error
	EraseRaw(key string) error
}

var keyPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}

func checkSize(value string, max int) error {
	if max > 0 && len(value) > max {
		return ErrQuotaExceeded
	}
	return nil
}
