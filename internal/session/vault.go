package session

import (
	"sync"

	"github.com/pkg/errors"
)

// Vault is the process-wide holder of the bearer credential. Every outbound
// request reads it; only Manager writes it.
type Vault struct {
	mu    sync.RWMutex
	token string
	store Store
}

// NewVault loads any persisted credential from store.
func NewVault(store Store) (*Vault, error) {
	if store == nil {
		store = &MemoryStore{}
	}
	token, err := store.Load()
	if err != nil {
		return nil, errors.Wrap(err, "load credential")
	}
	return &Vault{token: token, store: store}, nil
}

// Token returns the current credential, or "" when anonymous.
func (v *Vault) Token() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.token
}

// set updates memory first so the session works even if persisting fails.
func (v *Vault) set(token string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = token
	return v.store.Save(token)
}

func (v *Vault) clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = ""
	return v.store.Delete()
}
