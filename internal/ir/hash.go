package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainCatalyst = "registrar/catalyst/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// CatalystID computes the content-addressed id of a catalyst record.
//
// nonce is the lifecycle store's monotonic add counter. It never repeats,
// so re-registering the same owner and domain after a removal yields a fresh
// id, and replaying a journal regenerates the same ids in the same order.
func CatalystID(owner, domain string, nonce int64) (string, error) {
	obj := map[string]any{
		"owner":  owner,
		"domain": domain,
		"nonce":  nonce,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("CatalystID: failed to marshal: %w", err)
	}

	return "0x" + hashWithDomain(DomainCatalyst, canonical), nil
}

// MustCatalystID is like CatalystID but panics on error. Inputs are plain
// strings so marshaling cannot fail in practice; use in tests.
func MustCatalystID(owner, domain string, nonce int64) string {
	id, err := CatalystID(owner, domain, nonce)
	if err != nil {
		panic(err)
	}
	return id
}
