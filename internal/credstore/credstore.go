// Package credstore keeps application credential secrets in the OS keyring
// (macOS Keychain, Secret Service on Linux, Windows Credential Manager).
package credstore

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/zalando/go-keyring"
)

// Service is the keyring service name entries are stored under.
const Service = "barbican-kms"

// ErrNotFound is returned when no secret is stored for an account.
var ErrNotFound = errors.New("no credential stored in keyring")

// Account returns the keyring account for a user in a region.
func Account(username, region string) string {
	return username + "@" + region
}

// Get returns the application credential secret stored for username in
// region.
func Get(username, region string) (string, error) {
	if username == "" || region == "" {
		return "", ErrNotFound
	}
	secret, err := keyring.Get(Service, Account(username, region))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("keyring lookup for %s failed: %w", Account(username, region), err)
	}
	return secret, nil
}

// Set stores secret for username in region, replacing any previous value.
func Set(username, region, secret string) error {
	if username == "" || region == "" {
		return fmt.Errorf("username and region are required to store a credential")
	}
	if err := keyring.Set(Service, Account(username, region), secret); err != nil {
		return fmt.Errorf("failed to store credential in keyring: %w", err)
	}
	return nil
}

// Delete removes the stored secret. A missing entry is not an error.
func Delete(username, region string) error {
	err := keyring.Delete(Service, Account(username, region))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete credential from keyring: %w", err)
	}
	return nil
}

// IsHeadless reports whether the session most likely has no keyring daemon
// to talk to.
func IsHeadless() bool {
	if os.Getenv("SSH_TTY") != "" || os.Getenv("CI") != "" {
		return true
	}
	// Secret Service needs a desktop session on Linux.
	return runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == ""
}
