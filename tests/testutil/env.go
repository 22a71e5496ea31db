package testutil

import (
	"os"
	"testing"
)

// openStackEnv lists every variable the credential loader reads.
var openStackEnv = []string{
	"OS_USERNAME",
	"OS_PASSWORD",
	"OS_APPLICATION_CREDENTIAL_NAME",
	"OS_APPLICATION_CREDENTIAL_SECRET",
	"OS_CERT",
	"OS_KEY",
	"OS_AUTH_TYPE",
	"OS_REGION_NAME",
	"OS_USER_DOMAIN_NAME",
}

// SetupTestEnv sets environment variables for the duration of a test.
//
// The original environment is restored automatically when the test completes.
//
// Example usage:
//
//	SetupTestEnv(t, map[string]string{
//	    "OS_REGION_NAME": "qa-de-1",
//	})
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	for key, value := range vars {
		t.Setenv(key, value)
	}
}

// SetupOpenStackEnv clears every OS_* variable the credential loader reads
// and then applies vars. Tests therefore never see the caller's real cloud
// credentials.
func SetupOpenStackEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	for _, key := range openStackEnv {
		// t.Setenv registers the restore; Unsetenv makes the variable absent
		// rather than empty.
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Failed to unset environment variable %s: %v", key, err)
		}
	}
	SetupTestEnv(t, vars)
}

// AppCredentialEnv returns a complete application credential environment
// for region.
func AppCredentialEnv(region string) map[string]string {
	return map[string]string{
		"OS_USERNAME":                      "kms-user",
		"OS_APPLICATION_CREDENTIAL_NAME":   "kms-cred",
		"OS_APPLICATION_CREDENTIAL_SECRET": "s3cr3t-app-cred",
		"OS_REGION_NAME":                   region,
		"OS_USER_DOMAIN_NAME":              "Default",
	}
}
