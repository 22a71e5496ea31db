package provider

// NotFoundError indicates that a requested object does not exist in the
// provider. It is distinct from authentication failures or permission errors.
//
// Example:
//
//	if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
//	    return nil, NotFoundError{Provider: p.Name(), Key: id}
//	}
type NotFoundError struct {
	// Provider is the name of the provider where the object was not found.
	Provider string

	// Key is the identifier that could not be found.
	Key string
}

// Error implements the error interface.
func (e NotFoundError) Error() string {
	return "not found: " + e.Key + " in " + e.Provider
}

// AuthError indicates that authentication to the provider failed.
//
// Returned when credentials are invalid or expired, when the requested auth
// method is not supported, or when eager credential validation fails.
type AuthError struct {
	// Provider is the name of the provider that failed authentication.
	Provider string

	// Message provides details about the authentication failure.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Provider + ": " + e.Message
}

func (e AuthError) Unwrap() error {
	return e.Err
}

// DecodeError indicates that a payload returned by the provider could not be
// decoded into raw bytes.
type DecodeError struct {
	Provider string
	Key      string
	Err      error
}

// Error implements the error interface.
func (e DecodeError) Error() string {
	msg := "failed to decode payload of " + e.Key + " from " + e.Provider
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// TransportError indicates that a request never produced an HTTP response,
// for example a refused connection or an expired context.
type TransportError struct {
	Provider  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e TransportError) Error() string {
	msg := e.Provider + " " + e.Operation + " failed in transport"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e TransportError) Unwrap() error {
	return e.Err
}
