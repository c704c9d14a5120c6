// Package enclave wraps the EGo SGX runtime so the oracle agent can run as a
// confidential workload: it derives the oracle's signing key and LLM/API
// credentials from enclave-sealed secrets, and produces a remote-attestation
// report binding a resolution decision to the exact code that produced it.
package enclave

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/edgelesssys/ego/attestation"
	"github.com/edgelesssys/ego/enclave"

	slhttputil "github.com/covenantfi/oracle-agent/infrastructure/httputil"
	"github.com/covenantfi/oracle-agent/infrastructure/logging"
)

// Enclave represents the agent's enclave identity and its injected secrets.
type Enclave struct {
	mu sync.RWMutex

	agentType string
	uuid      string

	// Secrets injected by the coordinator (master key, API credentials).
	secrets map[string][]byte

	// Self-report used for remote attestation of resolution decisions.
	report *attestation.Report

	externalHTTPClient *http.Client

	initialized bool
}

// Config holds enclave configuration.
type Config struct {
	AgentType string
}

// New creates a new Enclave instance, capturing the self-report if running
// under SGX hardware or simulation mode. Outside an enclave, report is nil and
// IsEnclave reports false.
func New(cfg Config) (*Enclave, error) {
	e := &Enclave{
		agentType: cfg.AgentType,
		secrets:   make(map[string][]byte),
	}

	report, err := enclave.GetSelfReport()
	if err != nil {
		e.report = nil
	} else {
		e.report = &report
	}

	return e, nil
}

// Initialize loads secrets injected by the coordinator via environment
// variables. It is idempotent.
func (e *Enclave) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return nil
	}

	secretsJSON := os.Getenv("MARBLE_SECRETS")
	if secretsJSON != "" {
		if err := json.Unmarshal([]byte(secretsJSON), &e.secrets); err != nil {
			return fmt.Errorf("parse secrets: %w", err)
		}
	}

	e.uuid = os.Getenv("MARBLE_UUID")
	e.initialized = true
	return nil
}

// ExternalHTTPClient returns an HTTP client suitable for outbound calls to
// non-enclave endpoints (chain RPC, evidence providers, the LLM API, social
// platform API). It never attempts mTLS and always uses the system trust
// store with a TLS 1.2+ floor.
func (e *Enclave) ExternalHTTPClient() *http.Client {
	if e == nil {
		return &http.Client{
			Transport: &traceHeaderRoundTripper{base: slhttputil.DefaultTransportWithMinTLS12()},
			Timeout:   30 * time.Second,
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.externalHTTPClient != nil {
		return e.externalHTTPClient
	}

	transport := slhttputil.DefaultTransportWithMinTLS12()

	e.externalHTTPClient = &http.Client{
		Transport: &traceHeaderRoundTripper{base: transport},
		Timeout:   30 * time.Second,
	}
	return e.externalHTTPClient
}

type traceHeaderRoundTripper struct {
	base http.RoundTripper
}

func (t *traceHeaderRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.base == nil {
		t.base = http.DefaultTransport
	}

	traceID := logging.GetTraceID(req.Context())
	if traceID == "" || req.Header.Get("X-Trace-ID") != "" {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("X-Trace-ID", traceID)
	return t.base.RoundTrip(clone)
}

func decodeHexEnvSecret(value string) ([]byte, bool) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "0x")
	value = strings.TrimPrefix(value, "0X")
	if value == "" || len(value)%2 != 0 {
		return nil, false
	}

	for _, ch := range value {
		switch {
		case '0' <= ch && ch <= '9':
		case 'a' <= ch && ch <= 'f':
		case 'A' <= ch && ch <= 'F':
		default:
			return nil, false
		}
	}

	decoded, err := hex.DecodeString(value)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// Secret returns a secret by name, falling back to a same-named environment
// variable (hex-decoded when it looks like a hex string) for non-enclave runs.
func (e *Enclave) Secret(name string) ([]byte, bool) {
	e.mu.RLock()
	secret, ok := e.secrets[name]
	e.mu.RUnlock()
	if ok {
		return secret, true
	}

	envValue, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(envValue) == "" {
		return nil, false
	}

	decoded := []byte(envValue)
	if hexDecoded, ok := decodeHexEnvSecret(envValue); ok {
		decoded = hexDecoded
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if secret, ok := e.secrets[name]; ok {
		return secret, true
	}
	e.secrets[name] = decoded
	return decoded, true
}

// UseSecret provides secure access to a secret via callback. The secret is
// zeroed after the callback returns.
func (e *Enclave) UseSecret(name string, fn func([]byte) error) error {
	secret, ok := e.Secret(name)
	if !ok {
		return fmt.Errorf("secret not found: %s", name)
	}

	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)
	defer zeroBytes(secretCopy)

	return fn(secretCopy)
}

// Report returns the enclave self-report, used to bind a resolution decision
// to the exact enclave measurement that produced it.
func (e *Enclave) Report() *attestation.Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.report
}

// UUID returns the coordinator-assigned identifier.
func (e *Enclave) UUID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.uuid
}

// AgentType returns the enclave's configured agent type.
func (e *Enclave) AgentType() string {
	return e.agentType
}

// IsEnclave returns true if running inside an SGX enclave (hardware or simulation).
func (e *Enclave) IsEnclave() bool {
	return e.report != nil
}

// ReportHash returns a stable hash identifying the enclave's attestation
// state, for inclusion in a resolution's attestation metadata.
func (e *Enclave) ReportHash() []byte {
	if report := e.Report(); report != nil {
		if b, err := json.Marshal(report); err == nil && len(b) > 0 {
			sum := sha256.Sum256(b)
			return sum[:]
		}
	}
	sum := sha256.Sum256([]byte(e.agentType + "|" + e.uuid))
	return sum[:]
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SetTestSecret sets a secret for testing purposes only.
func (e *Enclave) SetTestSecret(name string, value []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.secrets[name] = value
}

// SetTestReport sets an enclave report for testing purposes only.
func (e *Enclave) SetTestReport(report *attestation.Report) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.report = report
}
