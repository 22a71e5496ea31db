package secure

import (
	"errors"
	"io"
	"sync"

	"github.com/awnumar/memguard"
)

// ErrDestroyed is returned when a destroyed payload is opened.
var ErrDestroyed = errors.New("secure payload has been destroyed")

// Payload holds secret bytes encrypted in a memguard enclave.
//
// memguard refuses empty enclaves, so an empty payload keeps a nil enclave
// and opens to an empty buffer.
type Payload struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// Seal moves data into a new payload. data is wiped in the process.
func Seal(data []byte) *Payload {
	if len(data) == 0 {
		return &Payload{}
	}
	return &Payload{enclave: memguard.NewEnclave(data)}
}

// Size returns the plaintext length.
func (p *Payload) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.enclave == nil {
		return 0
	}
	return p.enclave.Size()
}

// Open decrypts the payload into a locked buffer. The caller MUST Destroy
// the returned buffer.
//
// Example:
//
//	locked, err := p.Open()
//	if err != nil {
//	    return err
//	}
//	defer locked.Destroy()
//	use(locked.Bytes())
func (p *Payload) Open() (*memguard.LockedBuffer, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.destroyed {
		return nil, ErrDestroyed
	}
	if p.enclave == nil {
		return memguard.NewBuffer(0), nil
	}
	return p.enclave.Open()
}

// WriteTo writes the plaintext to w and wipes it again.
func (p *Payload) WriteTo(w io.Writer) (int64, error) {
	locked, err := p.Open()
	if err != nil {
		return 0, err
	}
	defer locked.Destroy()

	n, err := w.Write(locked.Bytes())
	return int64(n), err
}

// Destroy releases the enclave. Calling it more than once is safe.
func (p *Payload) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enclave = nil
	p.destroyed = true
}
