// Package credential keeps the session credential in a memguard enclave
// so it is encrypted at rest in process memory.
package credential

import (
	"strings"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/bnema/evo/internal/ports"
)

type EnclaveCache struct {
	mu      sync.Mutex
	enclave *memguard.Enclave
}

var _ ports.CredentialCache = (*EnclaveCache)(nil)

// NewEnclaveCache returns an empty cache. Callers own shutdown and must
// call Purge before exiting.
func NewEnclaveCache() *EnclaveCache {
	return &EnclaveCache{}
}

func (c *EnclaveCache) Load() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enclave == nil {
		return "", false
	}

	buf, err := c.enclave.Open()
	if err != nil {
		return "", false
	}
	defer buf.Destroy()

	return strings.Clone(buf.String()), true
}

func (c *EnclaveCache) Store(value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// NewEnclave wipes the slice it is given.
	c.enclave = memguard.NewEnclave([]byte(value))
	return nil
}

func (c *EnclaveCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enclave = nil
}

// Purge wipes every guarded buffer. Call once on shutdown.
func Purge() {
	memguard.Purge()
}
