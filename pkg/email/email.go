// Package email normalizes and masks email addresses.
package email

import (
	"strings"
)

// Normalize returns the canonical form used as the account key.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// Mask hides most of the local part so addresses can appear in logs.
//
//	Mask("sita.sharma@example.com") // "s***a@example.com"
func Mask(address string) string {
	local, domain, ok := strings.Cut(address, "@")
	if !ok || local == "" {
		return "***"
	}
	runes := []rune(local)
	if len(runes) <= 2 {
		return string(runes[0]) + "***@" + domain
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1]) + "@" + domain
}
