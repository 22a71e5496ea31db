package openstack

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gophercloud/gophercloud/v2"

	dserrors "github.com/systmms/barbican-kms/internal/errors"
)

// Environment variables read by CredentialsFromEnv.
const (
	EnvUsername                    = "OS_USERNAME"
	EnvPassword                    = "OS_PASSWORD"
	EnvApplicationCredentialName   = "OS_APPLICATION_CREDENTIAL_NAME"
	EnvApplicationCredentialSecret = "OS_APPLICATION_CREDENTIAL_SECRET"
	EnvCert                        = "OS_CERT"
	EnvKey                         = "OS_KEY"
	EnvAuthType                    = "OS_AUTH_TYPE"
	EnvRegionName                  = "OS_REGION_NAME"
	EnvUserDomainName              = "OS_USER_DOMAIN_NAME"
)

// IdentityURLTemplate is formatted with the region name to build the
// Keystone v3 endpoint.
const IdentityURLTemplate = "https://identity-3.%s.cloud.sap/v3"

// Auth types accepted in OS_AUTH_TYPE.
const (
	AuthTypeApplicationCredential = "v3applicationcredential"
	AuthTypePassword              = "v3password"
)

// Credentials is the connection configuration. It is read once when the
// helper is built and never modified afterwards.
type Credentials struct {
	Region            string
	UserDomainName    string
	ProjectDomainName string
	ProjectName       string

	Username                    string
	Password                    string
	ApplicationCredentialName   string
	ApplicationCredentialSecret string

	// CertFile and KeyFile are an optional TLS client certificate. A lone
	// CertFile must contain both certificate and key in PEM form.
	CertFile string
	KeyFile  string

	// AuthType overrides the auth method; empty means application credential.
	AuthType string
}

// CredentialsFromEnv combines the explicit connection parameters with the
// OS_* environment variables.
func CredentialsFromEnv(region, userDomainName, projectDomainName, projectName string) Credentials {
	return Credentials{
		Region:                      region,
		UserDomainName:              userDomainName,
		ProjectDomainName:           projectDomainName,
		ProjectName:                 projectName,
		Username:                    os.Getenv(EnvUsername),
		Password:                    os.Getenv(EnvPassword),
		ApplicationCredentialName:   os.Getenv(EnvApplicationCredentialName),
		ApplicationCredentialSecret: os.Getenv(EnvApplicationCredentialSecret),
		CertFile:                    os.Getenv(EnvCert),
		KeyFile:                     os.Getenv(EnvKey),
		AuthType:                    os.Getenv(EnvAuthType),
	}
}

// IdentityURL returns the Keystone endpoint for region.
func IdentityURL(region string) string {
	return fmt.Sprintf(IdentityURLTemplate, region)
}

// NormalizedAuthType maps the accepted OS_AUTH_TYPE spellings onto the two
// supported methods.
func (c Credentials) NormalizedAuthType() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.AuthType)) {
	case "", AuthTypeApplicationCredential, "application_credential", "applicationcredential":
		return AuthTypeApplicationCredential, nil
	case AuthTypePassword, "password":
		return AuthTypePassword, nil
	default:
		return "", dserrors.ConfigError{
			Field:      EnvAuthType,
			Value:      c.AuthType,
			Message:    "unsupported auth type",
			Suggestion: "Use v3applicationcredential or v3password, or unset OS_AUTH_TYPE",
		}
	}
}

// AuthOptions builds the gophercloud auth options for authURL.
func (c Credentials) AuthOptions(authURL string) (gophercloud.AuthOptions, error) {
	authType, err := c.NormalizedAuthType()
	if err != nil {
		return gophercloud.AuthOptions{}, err
	}

	opts := gophercloud.AuthOptions{
		IdentityEndpoint: authURL,
		Username:         c.Username,
		DomainName:       c.UserDomainName,
		AllowReauth:      true,
	}

	switch authType {
	case AuthTypeApplicationCredential:
		if c.ApplicationCredentialName == "" || c.ApplicationCredentialSecret == "" {
			return gophercloud.AuthOptions{}, dserrors.ConfigError{
				Field:      EnvApplicationCredentialName,
				Message:    "application credential name and secret are required",
				Suggestion: "Export OS_APPLICATION_CREDENTIAL_NAME and OS_APPLICATION_CREDENTIAL_SECRET or run 'barbican-kms login'",
			}
		}
		opts.ApplicationCredentialName = c.ApplicationCredentialName
		opts.ApplicationCredentialSecret = c.ApplicationCredentialSecret
	case AuthTypePassword:
		if c.Password == "" {
			return gophercloud.AuthOptions{}, dserrors.ConfigError{
				Field:      EnvPassword,
				Message:    "password auth selected but no password is set",
				Suggestion: "Export OS_PASSWORD or switch OS_AUTH_TYPE to v3applicationcredential",
			}
		}
		opts.Password = c.Password
		if c.ProjectName != "" {
			opts.Scope = &gophercloud.AuthScope{
				ProjectName: c.ProjectName,
				DomainName:  c.ProjectDomainName,
			}
		}
	}

	return opts, nil
}

// TLSConfig returns a client TLS config carrying the configured certificate,
// or nil when no certificate is configured.
func (c Credentials) TLSConfig() (*tls.Config, error) {
	if c.CertFile == "" && c.KeyFile == "" {
		return nil, nil
	}
	if c.CertFile == "" {
		return nil, dserrors.ConfigError{
			Field:      EnvKey,
			Value:      c.KeyFile,
			Message:    "client key given without a certificate",
			Suggestion: "Set OS_CERT to the matching certificate",
		}
	}

	keyFile := c.KeyFile
	if keyFile == "" {
		keyFile = c.CertFile
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate %s: %w", c.CertFile, err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// baseTransport returns the HTTP transport for the provider client.
func (c Credentials) baseTransport() (http.RoundTripper, error) {
	tlsConfig, err := c.TLSConfig()
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}
	return transport, nil
}
