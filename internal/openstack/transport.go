package openstack

import (
	"net/http"
	"time"

	"github.com/systmms/barbican-kms/internal/logging"
	"github.com/systmms/barbican-kms/internal/metrics"
)

// instrumentedTransport logs and counts every request the provider client
// sends. Headers and bodies are never logged; they carry tokens and payloads.
type instrumentedTransport struct {
	next   http.RoundTripper
	logger *logging.Logger
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)

	code := 0
	if resp != nil {
		code = resp.StatusCode
	}
	metrics.RecordRequest(req.Method, code, elapsed)

	if err != nil {
		t.logger.Debug("%s %s failed after %s: %v", req.Method, req.URL.Redacted(), elapsed.Round(time.Millisecond), err)
		return resp, err
	}
	t.logger.Debug("%s %s -> %d (%s)", req.Method, req.URL.Redacted(), code, elapsed.Round(time.Millisecond))
	return resp, nil
}
