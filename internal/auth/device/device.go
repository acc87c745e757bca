// Package device turns a User-Agent header into a short description for login
// audit records.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent returns "Browser on OS", or "Unknown Device" for an empty header.
func ParseUserAgent(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return "Unknown Device"
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}
	os := parsed.OS()
	if os == "" {
		os = parsed.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}
	return strings.TrimSpace(browser + " on " + os)
}

// Fingerprint hashes browser family, major version and OS so that routine
// browser updates keep the same value. Empty input yields "".
func Fingerprint(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return ""
	}
	parsed := useragent.New(ua)
	browser, version := parsed.Browser()
	major, _, _ := strings.Cut(version, ".")
	sum := sha256.Sum256([]byte(browser + "|" + major + "|" + parsed.OS() + "|" + parsed.Platform()))
	return hex.EncodeToString(sum[:])
}
