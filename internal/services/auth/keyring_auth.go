package auth

import (
	"errors"

	"github.com/zalando/go-keyring"
)

type KeyringStore struct {
	serviceName string
}

func NewKeyringStore(serviceName string) *KeyringStore {
	if serviceName == "" {
		serviceName = ServiceName
	}
	return &KeyringStore{serviceName: serviceName}
}

func (k *KeyringStore) SetKey(provider string, key string) error {
	providerKey := NormalizeProvider(provider)
	return keyring.Set(k.serviceName, providerKey, key)
}

func (k *KeyringStore) GetKey(provider string) (string, error) {
	providerKey := NormalizeProvider(provider)
	key, err := keyring.Get(k.serviceName, providerKey)
	if err == nil {
		return key, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	return "", err
}

func (k *KeyringStore) DeleteKey(provider string) error {
	providerKey := NormalizeProvider(provider)
	err := keyring.Delete(k.serviceName, providerKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrKeyNotFound
	}
	return err
}
