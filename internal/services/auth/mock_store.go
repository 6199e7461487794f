package auth

// MockStore is an in-memory auth store for testing.
type MockStore struct {
	keys map[string]string
}

func NewMockStore() *MockStore {
	return &MockStore{keys: make(map[string]string)}
}

func (m *MockStore) SetKey(provider string, key string) error {
	m.keys[provider] = key
	return nil
}

func (m *MockStore) GetKey(provider string) (string, error) {
	key, ok := m.keys[provider]
	if !ok {
		return "", ErrKeyNotFound
	}
	return key, nil
}

func (m *MockStore) DeleteKey(provider string) error {
	if _, ok := m.keys[provider]; !ok {
		return ErrKeyNotFound
	}
	delete(m.keys, provider)
	return nil
}
