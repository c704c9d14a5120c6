package enclave

import (
	"crypto/sha256"
)

// ComputeAttestationHash computes a SHA-256 hash identifying the enclave that
// produced a resolution, for inclusion in the oracle's attestation metadata.
// The serviceID is used as a fallback identifier when no enclave is present.
func ComputeAttestationHash(e *Enclave, serviceID string) []byte {
	if e != nil {
		return e.ReportHash()
	}

	sum := sha256.Sum256([]byte(serviceID + ":attestation:unknown"))
	return sum[:]
}
