// Package secure keeps the decoded master key out of ordinary heap memory
// while the process runs. The key spends its resident life inside a
// memguard enclave (encrypted in memory, mlocked where the OS allows) and
// is only materialized briefly around a seal or open call.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// KeyBuffer holds the master key in a protected memory region.
type KeyBuffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use after destroy
	destroyed bool
}

// NewKeyBuffer copies key material into a protected region. The caller
// should zero its own copy afterwards.
func NewKeyBuffer(key []byte) *KeyBuffer {
	return &KeyBuffer{enclave: memguard.NewEnclave(key)}
}

// Open decrypts the key into a locked buffer. The caller MUST call
// Destroy() on the returned buffer as soon as the cryptographic operation
// finishes:
//
//	locked, err := buf.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	sealed, err := envelope.Seal(payload, locked.Bytes())
func (k *KeyBuffer) Open() (*memguard.LockedBuffer, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if k.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return k.enclave.Open()
}

// Destroy marks the buffer unusable. Idempotent; after Destroy, Open
// returns an empty buffer. The enclave's encrypted contents are safe to
// leave for garbage collection — call memguard.Purge() at process exit for
// full cleanup.
func (k *KeyBuffer) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.destroyed {
		return
	}
	k.enclave = nil
	k.destroyed = true
}
