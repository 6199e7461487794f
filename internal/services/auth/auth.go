// Package auth stores the tournament platform API key in the OS
// keychain so it never lands in config files or shell history.
package auth

import (
	"errors"

	"bhmc/ggbridge/internal/util"
)

const ServiceName = "ggbridge"

// ProviderGenius is the keyring account name for the tournament
// platform credential.
const ProviderGenius = "genius"

var ErrKeyNotFound = errors.New("provider API key not found")

type Store interface {
	SetKey(provider string, key string) error
	GetKey(provider string) (string, error)
	DeleteKey(provider string) error
}

// DefaultStore returns the standard auth store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// NormalizeProvider normalizes a provider name for consistent key lookup.
func NormalizeProvider(provider string) string {
	return util.NormalizeKey(provider)
}
