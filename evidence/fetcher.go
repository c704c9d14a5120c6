// Package evidence fetches and sanitizes the resolution evidence an oracle
// auditor reads, grounded on the teacher's conforacle query handler:
// bounded timeout, redirect cap, byte-limited response body, and an
// enclave-aware HTTPS requirement (spec §4.4).
package evidence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/covenantfi/oracle-agent/infrastructure/enclave"
	"github.com/covenantfi/oracle-agent/infrastructure/httputil"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
	"github.com/covenantfi/oracle-agent/infrastructure/resilience"
)

const (
	fetchTimeout  = 15 * time.Second
	maxRedirects  = 3
	maxBodyBytes  = 10 * 1024 // 10 KiB
)

var errTooManyRedirects = errors.New("evidence: too many redirects")

// Fetcher retrieves and sanitizes evidence from a pool's configured source
// URL. The zero value is not usable — construct with New.
type Fetcher struct {
	client        *http.Client
	enclaveActive bool
	breaker       *resilience.CircuitBreaker
}

// New builds a Fetcher. When e is non-nil and e.IsEnclave() is true, the
// fetcher uses the enclave's hardened external HTTP client and HTTPS
// becomes mandatory rather than merely preferred (spec §4.4). Evidence
// sources are arbitrary, agent-chosen URLs with no SLA, so outbound
// requests run through a lenient circuit breaker (spec §7) rather than the
// stricter RPC one the chain client uses — a handful of dead source URLs
// shouldn't open the breaker for every other pool's evidence.
func New(e *enclave.Enclave, log *logging.Logger) *Fetcher {
	f := &Fetcher{
		client: &http.Client{
			Timeout:       fetchTimeout,
			CheckRedirect: limitRedirects,
		},
		breaker: resilience.New(resilience.LenientServiceCBConfig(log)),
	}
	if e != nil && e.IsEnclave() {
		f.client = &http.Client{
			Transport:     e.ExternalHTTPClient().Transport,
			Timeout:       fetchTimeout,
			CheckRedirect: limitRedirects,
		}
		f.enclaveActive = true
	}
	return f
}

func limitRedirects(req *http.Request, via []*http.Request) error {
	if len(via) > maxRedirects {
		return errTooManyRedirects
	}
	return nil
}

// Fetch retrieves url, truncates the response to 10 KiB, and returns it
// sanitized against prompt-injection patterns. It never returns unsanitized
// content — callers must not re-sanitize.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("evidence: invalid url: %w", err)
	}
	if f.enclaveActive && parsed.Scheme != "https" {
		return "", fmt.Errorf("evidence: https is mandatory in enclave mode, got scheme %q", parsed.Scheme)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("evidence: unsupported scheme %q", parsed.Scheme)
	}

	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("evidence: build request: %w", err)
	}

	var resp *http.Response
	err = f.breaker.Execute(fctx, func() error {
		var doErr error
		resp, doErr = f.client.Do(req)
		return doErr
	})
	if err != nil {
		return "", fmt.Errorf("evidence: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("evidence: fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, _, err := httputil.ReadAllWithLimit(resp.Body, maxBodyBytes)
	if err != nil {
		return "", fmt.Errorf("evidence: read body: %w", err)
	}

	return Sanitize(strings.ToValidUTF8(string(body), "")), nil
}
