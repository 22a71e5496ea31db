// Package secure keeps retrieved secret payloads out of ordinary Go memory.
//
// Payloads are sealed into a memguard enclave: encrypted at rest
// (XSalsa20Poly1305) and only decrypted into locked, guard-paged buffers
// for the moment they are needed.
//
// # Usage
//
//	p := secure.Seal(raw) // raw is wiped
//	defer p.Destroy()
//
//	// Stream the plaintext without keeping a copy around:
//	if _, err := p.WriteTo(os.Stdout); err != nil {
//	    return err
//	}
//
// # Platform Behavior
//
// Memory locking needs RLIMIT_MEMLOCK on Linux. When locking fails memguard
// falls back to ordinary pages; the enclave is still encrypted.
//
// It does NOT protect against attackers with access to the running process.
package secure
