// Package provider defines the interfaces and error types shared by secret
// store backends in barbican-kms.
//
// A backend implements Provider for reads and may implement Writer to store
// new secrets. Errors are reported with a small taxonomy so callers can react
// without parsing strings:
//   - AuthError for credential and validation failures
//   - NotFoundError for missing secrets and projects
//   - DecodeError for payloads that cannot be decoded
//   - TransportError for requests that never reached the service
//
// Providers never log secret values.
package provider
