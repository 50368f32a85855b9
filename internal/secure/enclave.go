package secure

import (
	"errors"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed Password is used.
var ErrDestroyed = errors.New("secure: password buffer already destroyed")

// Password keeps a credential encrypted in memory (memguard enclave) between
// the moment it is resolved and the moment it is sent to the server or
// shown to the operator.
type Password struct {
	mu        sync.Mutex
	enclave   *memguard.Enclave
	size      int
	destroyed bool
}

// Seal moves data into an enclave. memguard wipes data in the process, so
// the caller's slice is zeroed when Seal returns.
func Seal(data []byte) *Password {
	p := &Password{size: len(data)}
	if len(data) > 0 {
		p.enclave = memguard.NewEnclave(data)
	}
	return p
}

// SealString is Seal for values that already live in a Go string, such as
// a password read from configuration. The string itself cannot be wiped.
func SealString(s string) *Password {
	return Seal([]byte(s))
}

// Len returns the plaintext length.
func (p *Password) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Use decrypts the password into a locked buffer, hands the plaintext to fn
// and wipes the buffer when fn returns. fn must not retain the slice.
func (p *Password) Use(fn func(plaintext []byte) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return ErrDestroyed
	}
	if p.enclave == nil {
		return fn(nil)
	}

	locked, err := p.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()

	return fn(locked.Bytes())
}

// Destroy drops the enclave. It is safe to call more than once.
// Call memguard.Purge at process exit for a full wipe of key material.
func (p *Password) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enclave = nil
	p.destroyed = true
}
