package config

import (
	"strings"
	"sync"
)

// PlaceholderKey is the sample value shipped in example configs. It is
// treated as unset.
const PlaceholderKey = "your_apollo_api_key_here"

// KeyHolder holds the provider API key and allows it to be replaced at
// runtime. Safe for concurrent use.
type KeyHolder struct {
	mu  sync.RWMutex
	key string
}

// NewKeyHolder creates a KeyHolder seeded with key.
func NewKeyHolder(key string) *KeyHolder {
	return &KeyHolder{key: strings.TrimSpace(key)}
}

// Get returns the current key, or "" when none is configured.
func (k *KeyHolder) Get() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.key == PlaceholderKey {
		return ""
	}
	return k.key
}

// Set replaces the key with its trimmed value.
func (k *KeyHolder) Set(key string) {
	k.mu.Lock()
	k.key = strings.TrimSpace(key)
	k.mu.Unlock()
}

// Configured reports whether a usable key is held.
func (k *KeyHolder) Configured() bool {
	return k.Get() != ""
}
