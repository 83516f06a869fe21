// Package secure holds resolved secret values in encrypted memory between
// resolution and environment handoff. Plaintext exists only inside short
// lived locked buffers that the caller destroys after use.
package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer wraps memguard.Enclave so a resolved value is encrypted at
// rest in process memory and protected from swapping via mlock.
type SecureBuffer struct {
	enclave *memguard.Enclave
	mu      sync.RWMutex
	// destroyed allows idempotent Destroy calls and blocks use after
	// destruction.
	destroyed bool
}

// NewSecureBuffer copies the secret bytes into a protected memory region.
// The caller should zero the original slice afterwards.
func NewSecureBuffer(data []byte) *SecureBuffer {
	return &SecureBuffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the buffer. The caller MUST call Destroy on the returned
// LockedBuffer to wipe the plaintext. After the SecureBuffer itself is
// destroyed, Open returns an empty locked buffer.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return s.enclave.Open()
}

// Destroy marks the buffer unusable. Idempotent. The enclave ciphertext is
// left to the garbage collector; call memguard.Purge at process exit for a
// full sweep.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.enclave = nil
	s.destroyed = true
}

// Vault keys secure buffers by the identifier they were resolved for.
type Vault struct {
	mu      sync.Mutex
	buffers map[string]*SecureBuffer
}

// NewVault creates an empty vault.
func NewVault() *Vault {
	return &Vault{buffers: make(map[string]*SecureBuffer)}
}

// Put stores a value under key, destroying any previous buffer for it.
func (v *Vault) Put(key string, value []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if old, ok := v.buffers[key]; ok {
		old.Destroy()
	}
	v.buffers[key] = NewSecureBuffer(value)
}

// Get returns the buffer for key, or nil if absent.
func (v *Vault) Get(key string) *SecureBuffer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.buffers[key]
}

// Reveal decrypts the value for key into a plain string. Returns false if
// the key is absent.
func (v *Vault) Reveal(key string) (string, bool, error) {
	buf := v.Get(key)
	if buf == nil {
		return "", false, nil
	}
	locked, err := buf.Open()
	if err != nil {
		return "", false, err
	}
	defer locked.Destroy()
	return locked.String(), true, nil
}

// DestroyAll destroys every buffer in the vault.
func (v *Vault) DestroyAll() {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, buf := range v.buffers {
		buf.Destroy()
	}
	v.buffers = make(map[string]*SecureBuffer)
}
