// Package device derives the identifier sent to the verification backend to
// correlate tokens with the machine that requested them. The fingerprint is
// recomputed on every request that needs it and never persisted; it only has
// to stay stable for the lifetime of the process, not forever.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// FingerprintFunc produces a device identifier. It is injected wherever a
// fingerprint is needed so tests can supply fixed values.
type FingerprintFunc func() string

// Composite is the canonical fingerprint strategy: a SHA-256 digest over the
// hostname, operating system, architecture, and runtime version, hex encoded.
// An unreadable hostname is skipped rather than failing; the runtime signals
// are always present, so Composite never returns an empty string.
func Composite() string {
	signals := make([]string, 0, 4)
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		signals = append(signals, hostname)
	}
	signals = append(signals, runtime.GOOS, runtime.GOARCH, runtime.Version())

	digest := sha256.Sum256([]byte(strings.Join(signals, "|")))
	return hex.EncodeToString(digest[:])
}

// UserAgent is the alternative raw strategy kept for backends that expect a
// browser-style user-agent string rather than an opaque digest.
func UserAgent() string {
	return fmt.Sprintf("go-bioauth/1.0 (%s; %s) %s", runtime.GOOS, runtime.GOARCH, runtime.Version())
}
